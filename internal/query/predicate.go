package query

import "strings"

// Field 谓词可引用的字段
type Field string

const (
	FieldName           Field = "name"
	FieldStatus         Field = "status"
	FieldCategory       Field = "category"
	FieldNotes          Field = "notes"
	FieldCity           Field = "city"
	FieldState          Field = "state"
	FieldCountry        Field = "country"
	FieldSuburb         Field = "suburb"
	FieldAddress        Field = "address"
	FieldAvatar         Field = "avatarUrl"
	FieldIsMainContact  Field = "isMainContact"
	FieldParentContact  Field = "parentContactId"
	FieldDuplicateGroup Field = "duplicateGroup"
	FieldTags           Field = "tags"
	FieldAlternateNames Field = "alternateNames"
	FieldPhones         Field = "phones"
	FieldPhoneNumber    Field = "phones.number"
	FieldPhoneValid     Field = "phones.isValid"
	FieldEmails         Field = "emails"
	FieldEmailAddress   Field = "emails.address"
	FieldEmailValid     Field = "emails.isValid"
	FieldCreatedAt      Field = "createdAt"
	FieldLastUpdated    Field = "lastUpdated"
)

// Op 比较操作
type Op string

const (
	OpEq        Op = "eq"        // 精确相等
	OpEqFold    Op = "eqfold"    // 大小写不敏感相等
	OpContains  Op = "contains"  // 大小写不敏感子串
	OpIn        Op = "in"        // 值在集合内（大小写不敏感）
	OpHasAny    Op = "hasany"    // 数组字段包含集合中任意一个（精确）
	OpHas       Op = "has"       // 数组字段包含该值（精确）
	OpExists    Op = "exists"    // 字段存在/非空
	OpNotExists Op = "notexists" // 字段缺失/为空
	OpGte       Op = "gte"       // >=（日期）
	OpLte       Op = "lte"       // <=（日期）
)

// Predicate 谓词树节点。And/Or 组合 Cond 叶子。
// repository 的两个实现都直接消费这棵树，不做二次转换。
type Predicate interface {
	pred()
}

// And 所有子谓词同时成立（空 And 匹配一切）
type And struct {
	Preds []Predicate
}

// Or 任一子谓词成立
type Or struct {
	Preds []Predicate
}

// Cond 叶子比较
type Cond struct {
	Field Field
	Op    Op
	Value any
}

func (And) pred()  {}
func (Or) pred()   {}
func (Cond) pred() {}

// Compile 把规范过滤对象编译为谓词树。
// 顶层是 AND：search 的 OR 片段和其余所有片段并列（search 在其它过滤
// 选出的范围内收窄，而不是取代它们）。幂等：同样的输入产出结构相同的树。
func Compile(f ContactFilter) Predicate {
	var frags []Predicate

	// filter 枚举：all 不加约束
	switch f.Filter {
	case "main":
		frags = append(frags, Cond{FieldIsMainContact, OpEq, true})
	case "related":
		frags = append(frags, Cond{FieldIsMainContact, OpEq, false})
	case "duplicates":
		frags = append(frags, Cond{FieldDuplicateGroup, OpExists, nil})
	}

	if s := strings.TrimSpace(f.Search); s != "" {
		frags = append(frags, searchFragment(s))
	}

	for _, sf := range []struct {
		field Field
		value string
	}{
		{FieldCity, f.City},
		{FieldState, f.State},
		{FieldCountry, f.Country},
		{FieldSuburb, f.Suburb},
		{FieldCategory, f.Category},
		{FieldStatus, f.Status},
	} {
		if sf.value != "" {
			frags = append(frags, Cond{sf.field, OpEqFold, sf.value})
		}
	}

	if len(f.Categories) > 0 {
		frags = append(frags, Cond{FieldCategory, OpIn, f.Categories})
	}
	if len(f.Tags) > 0 {
		frags = append(frags, Cond{FieldTags, OpHasAny, f.Tags})
	}

	frags = appendPresence(frags, FieldPhones, f.HasPhones)
	frags = appendPresence(frags, FieldEmails, f.HasEmails)
	frags = appendPresence(frags, FieldAddress, f.HasAddress)
	frags = appendPresence(frags, FieldAvatar, f.HasAvatar)
	frags = appendPresence(frags, FieldParentContact, f.HasParent)

	if f.ValidPhonesOnly {
		frags = append(frags, Cond{FieldPhoneValid, OpEq, true})
	}
	if f.ValidEmailsOnly {
		frags = append(frags, Cond{FieldEmailValid, OpEq, true})
	}

	if f.CreatedAfter != nil {
		frags = append(frags, Cond{FieldCreatedAt, OpGte, *f.CreatedAfter})
	}
	if f.CreatedBefore != nil {
		frags = append(frags, Cond{FieldCreatedAt, OpLte, *f.CreatedBefore})
	}
	if f.UpdatedAfter != nil {
		frags = append(frags, Cond{FieldLastUpdated, OpGte, *f.UpdatedAfter})
	}
	if f.UpdatedBefore != nil {
		frags = append(frags, Cond{FieldLastUpdated, OpLte, *f.UpdatedBefore})
	}

	return And{Preds: frags}
}

// searchFragment search 展开为跨字段 OR：
// 文本字段子串 + 电话号码（搜索词去空白）+ 邮箱 + 标签（任一搜索词）+
// 别名（完整搜索短语精确成员）
func searchFragment(s string) Predicate {
	stripped := strings.Join(strings.Fields(s), "")
	preds := []Predicate{
		Cond{FieldName, OpContains, s},
		Cond{FieldPhoneNumber, OpContains, stripped},
		Cond{FieldEmailAddress, OpContains, s},
		Cond{FieldCity, OpContains, s},
		Cond{FieldState, OpContains, s},
		Cond{FieldCategory, OpContains, s},
		Cond{FieldStatus, OpContains, s},
		Cond{FieldNotes, OpContains, s},
		Cond{FieldTags, OpHasAny, strings.Fields(s)},
		Cond{FieldAlternateNames, OpHas, s},
	}
	return Or{Preds: preds}
}

func appendPresence(frags []Predicate, field Field, has *bool) []Predicate {
	if has == nil {
		return frags
	}
	if *has {
		return append(frags, Cond{field, OpExists, nil})
	}
	return append(frags, Cond{field, OpNotExists, nil})
}
