package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNormalize_Defaults(t *testing.T) {
	f, page := Normalize(Params{})

	require.Equal(t, "all", f.Filter)
	require.Empty(t, f.Search)
	require.Nil(t, f.HasPhones)
	require.Nil(t, f.CreatedAfter)

	require.Equal(t, 1, page.Page)
	require.Equal(t, 20, page.Limit)
	require.Equal(t, "createdAt", page.SortBy)
	require.Equal(t, "desc", page.SortOrder)
	require.Equal(t, 0, page.Skip())
}

func TestNormalize_PaginationClamps(t *testing.T) {
	cases := []struct {
		page, limit         string
		wantPage, wantLimit int
	}{
		{"0", "0", 1, 1},
		{"-5", "-1", 1, 1},
		{"3", "50", 3, 50},
		{"5000", "900", 1000, 100},
		{"abc", "xyz", 1, 20}, // 不可解析 -> 默认值
	}
	for _, tc := range cases {
		_, page := Normalize(Params{"page": {tc.page}, "limit": {tc.limit}})
		require.Equal(t, tc.wantPage, page.Page, tc.page)
		require.Equal(t, tc.wantLimit, page.Limit, tc.limit)
	}

	_, page := Normalize(Params{"page": {"3"}, "limit": {"10"}})
	require.Equal(t, 20, page.Skip())
}

func TestNormalize_FilterEnum(t *testing.T) {
	for _, v := range []string{"all", "main", "related", "duplicates", "MAIN"} {
		f, _ := Normalize(Params{"filter": {v}})
		require.NotEqual(t, "", f.Filter)
	}

	f, _ := Normalize(Params{"filter": {"Duplicates"}})
	require.Equal(t, "duplicates", f.Filter)

	// 未知值静默回落到 all
	f, _ = Normalize(Params{"filter": {"bogus"}})
	require.Equal(t, "all", f.Filter)
}

func TestNormalize_Booleans(t *testing.T) {
	f, _ := Normalize(Params{"hasPhones": {"true"}, "hasEmails": {"false"}})
	require.NotNil(t, f.HasPhones)
	require.True(t, *f.HasPhones)
	require.NotNil(t, f.HasEmails)
	require.False(t, *f.HasEmails)

	// true/false 之外的值视为缺席
	f, _ = Normalize(Params{"hasPhones": {"yes"}, "hasEmails": {"1"}})
	require.Nil(t, f.HasPhones)
	require.Nil(t, f.HasEmails)
}

// missingX=true 等价于 hasX=false
func TestNormalize_MissingAliases(t *testing.T) {
	f, _ := Normalize(Params{"missingPhones": {"true"}})
	require.NotNil(t, f.HasPhones)
	require.False(t, *f.HasPhones)

	// missingX=false 不产生约束
	f, _ = Normalize(Params{"missingEmails": {"false"}})
	require.Nil(t, f.HasEmails)

	// missing 拼法覆盖 has 拼法
	f, _ = Normalize(Params{"hasAvatar": {"true"}, "missingAvatar": {"true"}})
	require.NotNil(t, f.HasAvatar)
	require.False(t, *f.HasAvatar)
}

func TestNormalize_Lists(t *testing.T) {
	f, _ := Normalize(Params{
		"categories": {"family, work", "vip"},
		"tags":       {" a ,,b "},
	})
	require.Equal(t, []string{"family", "work", "vip"}, f.Categories)
	require.Equal(t, []string{"a", "b"}, f.Tags)
}

func TestNormalize_Dates(t *testing.T) {
	f, _ := Normalize(Params{
		"createdAfter":  {"2024-03-01"},
		"createdBefore": {"2024-03-31T10:30:00Z"},
		"updatedAfter":  {"not-a-date"},
	})
	require.NotNil(t, f.CreatedAfter)
	require.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *f.CreatedAfter)
	require.NotNil(t, f.CreatedBefore)
	// 无法解析的日期视为缺席
	require.Nil(t, f.UpdatedAfter)
}

func TestNormalize_SortWhitelist(t *testing.T) {
	_, page := Normalize(Params{"sortBy": {"Name"}, "sortOrder": {"ASC"}})
	require.Equal(t, "name", page.SortBy)
	require.Equal(t, "asc", page.SortOrder)

	_, page = Normalize(Params{"sortBy": {"created_at"}})
	require.Equal(t, "createdAt", page.SortBy)

	// 白名单外的排序字段回落到默认
	_, page = Normalize(Params{"sortBy": {"password"}, "sortOrder": {"sideways"}})
	require.Equal(t, "createdAt", page.SortBy)
	require.Equal(t, "desc", page.SortOrder)
}

// 同样输入归一化两次结果一致
func TestNormalize_Idempotent(t *testing.T) {
	raw := Params{
		"search": {" shah "},
		"filter": {"main"},
		"city":   {"Mumbai"},
		"page":   {"2"},
	}
	f1, p1 := Normalize(raw)
	f2, p2 := Normalize(raw)
	require.Equal(t, f1, f2)
	require.Equal(t, p1, p2)
	require.Equal(t, "shah", f1.Search)
}

func TestParamsFromJSON(t *testing.T) {
	p := ParamsFromJSON(map[string]any{
		"search":    "shah",
		"hasPhones": true,
		"page":      float64(3),
		"tags":      []any{"a", "b", 7},
		"ignored":   map[string]any{"x": 1},
	})
	require.Equal(t, []string{"shah"}, p["search"])
	require.Equal(t, []string{"true"}, p["hasPhones"])
	require.Equal(t, []string{"3"}, p["page"])
	require.Equal(t, []string{"a", "b"}, p["tags"])
	require.NotContains(t, p, "ignored")
}
