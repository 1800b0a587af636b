package repository

import (
	"fmt"
	"strings"
	"time"

	"contacthub-data/internal/query"

	"github.com/lib/pq"
)

// sqlBuilder 谓词树 -> WHERE 子句编译器（Postgres，内嵌集合为 JSONB）
type sqlBuilder struct {
	args []any
}

// 标量字段 -> 列名
var scalarColumns = map[query.Field]string{
	query.FieldName:           "name",
	query.FieldStatus:         "status",
	query.FieldCategory:       "category",
	query.FieldNotes:          "notes",
	query.FieldCity:           "city",
	query.FieldState:          "state",
	query.FieldCountry:        "country",
	query.FieldSuburb:         "suburb",
	query.FieldAddress:        "address",
	query.FieldAvatar:         "avatar_url",
	query.FieldParentContact:  "parent_contact_id",
	query.FieldDuplicateGroup: "duplicate_group",
}

// 数组字段 -> JSONB 列名
var arrayColumns = map[query.Field]string{
	query.FieldTags:           "tags",
	query.FieldAlternateNames: "alternate_names",
	query.FieldPhones:         "phones",
	query.FieldEmails:         "emails",
}

func (b *sqlBuilder) bind(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

// build 递归编译。空 And 编译为 TRUE（无约束）。
func (b *sqlBuilder) build(p query.Predicate) string {
	switch node := p.(type) {
	case query.And:
		if len(node.Preds) == 0 {
			return "TRUE"
		}
		parts := make([]string, 0, len(node.Preds))
		for _, child := range node.Preds {
			parts = append(parts, b.build(child))
		}
		return "(" + strings.Join(parts, " AND ") + ")"
	case query.Or:
		if len(node.Preds) == 0 {
			return "FALSE"
		}
		parts := make([]string, 0, len(node.Preds))
		for _, child := range node.Preds {
			parts = append(parts, b.build(child))
		}
		return "(" + strings.Join(parts, " OR ") + ")"
	case query.Cond:
		return b.buildCond(node)
	default:
		return "TRUE"
	}
}

func (b *sqlBuilder) buildCond(cond query.Cond) string {
	if col, ok := scalarColumns[cond.Field]; ok {
		return b.buildScalar(col, cond)
	}
	if col, ok := arrayColumns[cond.Field]; ok {
		return b.buildArray(col, cond)
	}

	switch cond.Field {
	case query.FieldIsMainContact:
		want, _ := cond.Value.(bool)
		return "is_main_contact = " + b.bind(want)

	case query.FieldPhoneNumber:
		needle, _ := cond.Value.(string)
		return fmt.Sprintf(
			`EXISTS (SELECT 1 FROM jsonb_array_elements(COALESCE(phones, '[]'::jsonb)) p
			 WHERE replace(p->>'number', ' ', '') ILIKE %s)`,
			b.bind("%"+needle+"%"),
		)
	case query.FieldPhoneValid:
		return `EXISTS (SELECT 1 FROM jsonb_array_elements(COALESCE(phones, '[]'::jsonb)) p
			 WHERE (p->>'isValid')::boolean)`
	case query.FieldEmailAddress:
		needle, _ := cond.Value.(string)
		return fmt.Sprintf(
			`EXISTS (SELECT 1 FROM jsonb_array_elements(COALESCE(emails, '[]'::jsonb)) e
			 WHERE e->>'address' ILIKE %s)`,
			b.bind("%"+needle+"%"),
		)
	case query.FieldEmailValid:
		return `EXISTS (SELECT 1 FROM jsonb_array_elements(COALESCE(emails, '[]'::jsonb)) e
			 WHERE (e->>'isValid')::boolean)`

	case query.FieldCreatedAt, query.FieldLastUpdated:
		col := "created_at"
		if cond.Field == query.FieldLastUpdated {
			col = "last_updated"
		}
		t, _ := cond.Value.(time.Time)
		switch cond.Op {
		case query.OpGte:
			return col + " >= " + b.bind(t)
		case query.OpLte:
			return col + " <= " + b.bind(t)
		}
	}
	return "TRUE"
}

func (b *sqlBuilder) buildScalar(col string, cond query.Cond) string {
	switch cond.Op {
	case query.OpEq:
		want, _ := cond.Value.(string)
		return col + " = " + b.bind(want)
	case query.OpEqFold:
		want, _ := cond.Value.(string)
		return "LOWER(COALESCE(" + col + ", '')) = LOWER(" + b.bind(want) + ")"
	case query.OpContains:
		want, _ := cond.Value.(string)
		return "COALESCE(" + col + ", '') ILIKE " + b.bind("%"+want+"%")
	case query.OpIn:
		wants, _ := cond.Value.([]string)
		lowered := make([]string, 0, len(wants))
		for _, w := range wants {
			lowered = append(lowered, strings.ToLower(w))
		}
		return "LOWER(COALESCE(" + col + ", '')) = ANY(" + b.bind(pq.Array(lowered)) + ")"
	case query.OpExists:
		return "COALESCE(" + col + ", '') <> ''"
	case query.OpNotExists:
		return "COALESCE(" + col + ", '') = ''"
	}
	return "TRUE"
}

func (b *sqlBuilder) buildArray(col string, cond query.Cond) string {
	elems := "jsonb_array_elements_text(COALESCE(" + col + ", '[]'::jsonb))"
	switch cond.Op {
	case query.OpHas:
		want, _ := cond.Value.(string)
		return fmt.Sprintf(
			"EXISTS (SELECT 1 FROM %s v WHERE LOWER(v) = LOWER(%s))",
			elems, b.bind(want),
		)
	case query.OpHasAny:
		wants, _ := cond.Value.([]string)
		lowered := make([]string, 0, len(wants))
		for _, w := range wants {
			lowered = append(lowered, strings.ToLower(w))
		}
		return fmt.Sprintf(
			"EXISTS (SELECT 1 FROM %s v WHERE LOWER(v) = ANY(%s))",
			elems, b.bind(pq.Array(lowered)),
		)
	case query.OpExists:
		return "jsonb_array_length(COALESCE(" + col + ", '[]'::jsonb)) > 0"
	case query.OpNotExists:
		return "jsonb_array_length(COALESCE(" + col + ", '[]'::jsonb)) = 0"
	}
	return "TRUE"
}

// CompileWhere 编译谓词为 WHERE 子句和参数列表
func CompileWhere(p query.Predicate) (string, []any) {
	b := &sqlBuilder{}
	clause := b.build(p)
	return clause, b.args
}
