// Package query 实现过滤编译器：把松散类型的查询参数归一化为
// 规范过滤对象，再编译为 repository 可直接消费的谓词树。
// 纯函数、无状态，可并发调用。
package query

import (
	"strconv"
	"strings"
	"time"
)

// Params 原始参数集（GET query 或 POST body 归一化后的形式）
type Params map[string][]string

// ParamsFromJSON 把 POST body 的 map 转成 Params（string/bool/number/数组都接受）
func ParamsFromJSON(body map[string]any) Params {
	p := make(Params, len(body))
	for k, v := range body {
		switch val := v.(type) {
		case string:
			p[k] = []string{val}
		case bool:
			p[k] = []string{strconv.FormatBool(val)}
		case float64:
			p[k] = []string{strconv.FormatFloat(val, 'f', -1, 64)}
		case []any:
			var items []string
			for _, item := range val {
				if s, ok := item.(string); ok {
					items = append(items, s)
				}
			}
			if len(items) > 0 {
				p[k] = items
			}
		}
	}
	return p
}

// ContactFilter 规范过滤对象：只保留有定义值的键。
// 任何片段缺席都不得收窄结果集。
type ContactFilter struct {
	Search string
	Filter string // all / main / related / duplicates

	City     string
	State    string
	Country  string
	Suburb   string
	Category string
	Status   string

	Categories []string
	Tags       []string

	HasPhones  *bool
	HasEmails  *bool
	HasAddress *bool
	HasAvatar  *bool
	HasParent  *bool

	ValidPhonesOnly bool
	ValidEmailsOnly bool

	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	UpdatedAfter  *time.Time
	UpdatedBefore *time.Time
}

// Pagination 分页/排序参数。page 限制在 [1,1000]，limit 限制在 [1,100]
type Pagination struct {
	Page      int    `json:"page"`
	Limit     int    `json:"limit"`
	SortBy    string `json:"sortBy"`
	SortOrder string `json:"sortOrder"` // asc / desc
}

// Skip 偏移量
func (p Pagination) Skip() int {
	return (p.Page - 1) * p.Limit
}

// FilterValues `filter` 枚举的合法值；其余值静默回落到 all（宽容默认策略，
// 是刻意的 API 兼容选择，不要改成报错）
var filterValues = map[string]bool{
	"all":        true,
	"main":       true,
	"related":    true,
	"duplicates": true,
}

var sortFields = map[string]string{
	"name":        "name",
	"createdat":   "createdAt",
	"created_at":  "createdAt",
	"lastupdated": "lastUpdated",
	"city":        "city",
	"category":    "category",
}

// Normalize 归一化：trim 字符串、"true"/"false" 转布尔（其余值视为缺席）、
// 逗号分隔/重复值拆成集合、无法解析的日期视为缺席、分页钳位。
func Normalize(raw Params) (ContactFilter, Pagination) {
	f := ContactFilter{
		Search:   getString(raw, "search"),
		Filter:   "all",
		City:     getString(raw, "city"),
		State:    getString(raw, "state"),
		Country:  getString(raw, "country"),
		Suburb:   getString(raw, "suburb"),
		Category: getString(raw, "category"),
		Status:   getString(raw, "status"),

		Categories: getList(raw, "categories"),
		Tags:       getList(raw, "tags"),

		HasPhones:  getBool(raw, "hasPhones"),
		HasEmails:  getBool(raw, "hasEmails"),
		HasAddress: getBool(raw, "hasAddress"),
		HasAvatar:  getBool(raw, "hasAvatar"),
		HasParent:  getBool(raw, "hasParent"),

		CreatedAfter:  getDate(raw, "createdAfter"),
		CreatedBefore: getDate(raw, "createdBefore"),
		UpdatedAfter:  getDate(raw, "updatedAfter"),
		UpdatedBefore: getDate(raw, "updatedBefore"),
	}

	if v := strings.ToLower(getString(raw, "filter")); filterValues[v] {
		f.Filter = v
	}

	// "缺失字段"标志是 has* 的取反形式，两种拼法都接受
	applyMissing(&f.HasPhones, getBool(raw, "missingPhones"))
	applyMissing(&f.HasEmails, getBool(raw, "missingEmails"))
	applyMissing(&f.HasAddress, getBool(raw, "missingAddress"))
	applyMissing(&f.HasAvatar, getBool(raw, "missingAvatar"))

	if b := getBool(raw, "validPhonesOnly"); b != nil && *b {
		f.ValidPhonesOnly = true
	}
	if b := getBool(raw, "validEmailsOnly"); b != nil && *b {
		f.ValidEmailsOnly = true
	}

	page := Pagination{
		Page:      clampInt(getString(raw, "page"), 1, 1, 1000),
		Limit:     clampInt(getString(raw, "limit"), 20, 1, 100),
		SortBy:    "createdAt",
		SortOrder: "desc",
	}
	if s, ok := sortFields[strings.ToLower(getString(raw, "sortBy"))]; ok {
		page.SortBy = s
	}
	if o := strings.ToLower(getString(raw, "sortOrder")); o == "asc" || o == "desc" {
		page.SortOrder = o
	}

	return f, page
}

func applyMissing(has **bool, missing *bool) {
	if missing != nil && *missing {
		v := false
		*has = &v
	}
}

func getString(raw Params, key string) string {
	if vs, ok := raw[key]; ok && len(vs) > 0 {
		return strings.TrimSpace(vs[0])
	}
	return ""
}

// getBool "true"/"false" 之外的值一律视为缺席，不报错
func getBool(raw Params, key string) *bool {
	switch strings.ToLower(getString(raw, key)) {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	default:
		return nil
	}
}

// getList 逗号分隔或重复出现的值拆为集合
func getList(raw Params, key string) []string {
	vs, ok := raw[key]
	if !ok {
		return nil
	}
	var out []string
	for _, v := range vs {
		for _, item := range strings.Split(v, ",") {
			item = strings.TrimSpace(item)
			if item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// getDate 按已知格式解析日期，解析失败视为缺席
func getDate(raw Params, key string) *time.Time {
	s := getString(raw, key)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func clampInt(s string, def, min, max int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		n = def
	}
	if n < min {
		n = min
	}
	if n > max {
		n = max
	}
	return n
}
