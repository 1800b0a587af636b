package query

import (
	"strings"
	"time"

	"contacthub-data/internal/domain"
)

// Matches 在内存中求值谓词树（内存 repository 和单元测试使用）
func Matches(p Predicate, c *domain.Contact) bool {
	switch node := p.(type) {
	case And:
		for _, child := range node.Preds {
			if !Matches(child, c) {
				return false
			}
		}
		return true
	case Or:
		for _, child := range node.Preds {
			if Matches(child, c) {
				return true
			}
		}
		return false
	case Cond:
		return matchCond(node, c)
	default:
		return false
	}
}

func matchCond(cond Cond, c *domain.Contact) bool {
	switch cond.Field {
	case FieldName:
		return matchString(cond, c.Name)
	case FieldStatus:
		return matchString(cond, c.Status)
	case FieldCategory:
		return matchString(cond, c.Category)
	case FieldNotes:
		return matchString(cond, c.Notes)
	case FieldCity:
		return matchString(cond, c.City)
	case FieldState:
		return matchString(cond, c.State)
	case FieldCountry:
		return matchString(cond, c.Country)
	case FieldSuburb:
		return matchString(cond, c.Suburb)
	case FieldAddress:
		return matchString(cond, c.Address)
	case FieldAvatar:
		return matchString(cond, c.AvatarURL)
	case FieldParentContact:
		return matchString(cond, c.ParentContactID)
	case FieldDuplicateGroup:
		return matchString(cond, c.DuplicateGroup)

	case FieldIsMainContact:
		want, _ := cond.Value.(bool)
		return cond.Op == OpEq && c.IsMainContact == want

	case FieldTags:
		return matchStringArray(cond, c.Tags)
	case FieldAlternateNames:
		return matchStringArray(cond, c.AlternateNames)

	case FieldPhones:
		return matchPresence(cond, len(c.Phones) > 0)
	case FieldEmails:
		return matchPresence(cond, len(c.Emails) > 0)

	case FieldPhoneNumber:
		needle, _ := cond.Value.(string)
		for i := range c.Phones {
			stripped := strings.Join(strings.Fields(c.Phones[i].Number), "")
			if containsFold(stripped, needle) {
				return true
			}
		}
		return false
	case FieldPhoneValid:
		for i := range c.Phones {
			if c.Phones[i].IsValid {
				return true
			}
		}
		return false
	case FieldEmailAddress:
		needle, _ := cond.Value.(string)
		for i := range c.Emails {
			if containsFold(c.Emails[i].Address, needle) {
				return true
			}
		}
		return false
	case FieldEmailValid:
		for i := range c.Emails {
			if c.Emails[i].IsValid {
				return true
			}
		}
		return false

	case FieldCreatedAt:
		return matchTime(cond, c.CreatedAt)
	case FieldLastUpdated:
		return matchTime(cond, c.LastUpdated)
	}
	return false
}

func matchString(cond Cond, value string) bool {
	switch cond.Op {
	case OpEq:
		want, _ := cond.Value.(string)
		return value == want
	case OpEqFold:
		want, _ := cond.Value.(string)
		return strings.EqualFold(value, want)
	case OpContains:
		want, _ := cond.Value.(string)
		return containsFold(value, want)
	case OpIn:
		wants, _ := cond.Value.([]string)
		for _, w := range wants {
			if strings.EqualFold(value, w) {
				return true
			}
		}
		return false
	case OpExists:
		return value != ""
	case OpNotExists:
		return value == ""
	}
	return false
}

func matchStringArray(cond Cond, values []string) bool {
	switch cond.Op {
	case OpHas:
		want, _ := cond.Value.(string)
		for _, v := range values {
			if strings.EqualFold(v, want) {
				return true
			}
		}
		return false
	case OpHasAny:
		wants, _ := cond.Value.([]string)
		for _, v := range values {
			for _, w := range wants {
				if strings.EqualFold(v, w) {
					return true
				}
			}
		}
		return false
	case OpExists:
		return len(values) > 0
	case OpNotExists:
		return len(values) == 0
	}
	return false
}

func matchPresence(cond Cond, present bool) bool {
	switch cond.Op {
	case OpExists:
		return present
	case OpNotExists:
		return !present
	}
	return false
}

func matchTime(cond Cond, value time.Time) bool {
	want, ok := cond.Value.(time.Time)
	if !ok {
		return false
	}
	switch cond.Op {
	case OpGte:
		return !value.Before(want)
	case OpLte:
		return !value.After(want)
	}
	return false
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
