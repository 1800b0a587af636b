package query

import (
	"testing"
	"time"

	"contacthub-data/internal/domain"

	"github.com/stretchr/testify/require"
)

func testContacts() []*domain.Contact {
	created := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	return []*domain.Contact{
		{
			ContactID:     "c1",
			Name:          "Asha Shah",
			Status:        "active",
			Category:      "family",
			City:          "Mumbai",
			Tags:          []string{"vip", "family"},
			IsMainContact: true,
			Phones: []domain.Phone{
				{PhoneID: "phone_1", Number: "+91 98765 43210", IsPrimary: true, IsValid: true},
			},
			Emails: []domain.Email{
				{EmailID: "email_1", Address: "asha@example.com", IsPrimary: true, IsValid: true},
			},
			CreatedAt:   created,
			LastUpdated: created,
		},
		{
			ContactID:       "c2",
			Name:            "Rahul",
			Status:          "active",
			AlternateNames:  []string{"Son Rahul"},
			City:            "Mumbai",
			IsMainContact:   false,
			ParentContactID: "c1",
			Phones: []domain.Phone{
				{PhoneID: "phone_1", Number: "+91 98765 00001", IsPrimary: true, IsValid: true},
			},
			CreatedAt:   created.Add(time.Hour),
			LastUpdated: created.Add(time.Hour),
		},
		{
			ContactID:      "c3",
			Name:           "John Smith",
			Status:         "inactive",
			Category:       "work",
			City:           "Austin",
			DuplicateGroup: "johnsmith",
			IsMainContact:  true,
			CreatedAt:      created.Add(2 * time.Hour),
			LastUpdated:    created.Add(2 * time.Hour),
		},
	}
}

func matchNames(t *testing.T, pred Predicate) []string {
	t.Helper()
	var names []string
	for _, c := range testContacts() {
		if Matches(pred, c) {
			names = append(names, c.Name)
		}
	}
	return names
}

func TestCompile_EmptyFilterMatchesAll(t *testing.T) {
	f, _ := Normalize(Params{})
	pred := Compile(f)
	require.Len(t, matchNames(t, pred), 3)
}

func TestCompile_MainRelatedPartition(t *testing.T) {
	fMain, _ := Normalize(Params{"filter": {"main"}})
	fRelated, _ := Normalize(Params{"filter": {"related"}})

	main := matchNames(t, Compile(fMain))
	related := matchNames(t, Compile(fRelated))

	// main/related 是全集的互补划分
	require.ElementsMatch(t, []string{"Asha Shah", "John Smith"}, main)
	require.ElementsMatch(t, []string{"Rahul"}, related)
}

func TestCompile_DuplicatesFilter(t *testing.T) {
	f, _ := Normalize(Params{"filter": {"duplicates"}})
	require.Equal(t, []string{"John Smith"}, matchNames(t, Compile(f)))
}

func TestCompile_SearchAcrossFields(t *testing.T) {
	cases := []struct {
		search string
		want   []string
	}{
		{"asha", []string{"Asha Shah"}},            // 名字
		{"98765 43210", []string{"Asha Shah"}},     // 电话（搜索词去空白后匹配）
		{"987654321", []string{"Asha Shah"}},       // 电话前缀
		{"asha@example.com", []string{"Asha Shah"}}, // 邮箱
		{"austin", []string{"John Smith"}},         // 城市
		{"vip", []string{"Asha Shah"}},             // 标签
		{"Son Rahul", []string{"Rahul"}},           // 别名（完整短语）
		{"zzz", nil},
	}
	for _, tc := range cases {
		f, _ := Normalize(Params{"search": {tc.search}})
		require.Equal(t, tc.want, matchNames(t, Compile(f)), tc.search)
	}
}

// search 与其它过滤是 AND 关系：结果是纯过滤结果的子集
func TestCompile_SearchNarrowsFilters(t *testing.T) {
	fFilter, _ := Normalize(Params{"city": {"mumbai"}})
	fBoth, _ := Normalize(Params{"city": {"mumbai"}, "search": {"rahul"}})

	withoutSearch := matchNames(t, Compile(fFilter))
	withSearch := matchNames(t, Compile(fBoth))

	require.ElementsMatch(t, []string{"Asha Shah", "Rahul"}, withoutSearch)
	require.Equal(t, []string{"Rahul"}, withSearch)
	for _, name := range withSearch {
		require.Contains(t, withoutSearch, name)
	}
}

func TestCompile_ScalarFiltersCaseInsensitive(t *testing.T) {
	f, _ := Normalize(Params{"city": {"MUMBAI"}})
	require.ElementsMatch(t, []string{"Asha Shah", "Rahul"}, matchNames(t, Compile(f)))

	f, _ = Normalize(Params{"status": {"inactive"}})
	require.Equal(t, []string{"John Smith"}, matchNames(t, Compile(f)))

	f, _ = Normalize(Params{"categories": {"family,work"}})
	require.ElementsMatch(t, []string{"Asha Shah", "John Smith"}, matchNames(t, Compile(f)))
}

func TestCompile_PresenceFilters(t *testing.T) {
	f, _ := Normalize(Params{"hasPhones": {"true"}})
	require.ElementsMatch(t, []string{"Asha Shah", "Rahul"}, matchNames(t, Compile(f)))

	f, _ = Normalize(Params{"missingPhones": {"true"}})
	require.Equal(t, []string{"John Smith"}, matchNames(t, Compile(f)))

	f, _ = Normalize(Params{"hasEmails": {"false"}})
	require.ElementsMatch(t, []string{"Rahul", "John Smith"}, matchNames(t, Compile(f)))

	f, _ = Normalize(Params{"hasParent": {"true"}})
	require.Equal(t, []string{"Rahul"}, matchNames(t, Compile(f)))
}

func TestCompile_DateRange(t *testing.T) {
	f, _ := Normalize(Params{"createdAfter": {"2024-03-10T13:00:00Z"}})
	require.ElementsMatch(t, []string{"Rahul", "John Smith"}, matchNames(t, Compile(f)))

	f, _ = Normalize(Params{
		"createdAfter":  {"2024-03-10T12:30:00Z"},
		"createdBefore": {"2024-03-10T13:30:00Z"},
	})
	require.Equal(t, []string{"Rahul"}, matchNames(t, Compile(f)))
}

// 同一过滤对象编译两次产出相同的树
func TestCompile_Deterministic(t *testing.T) {
	f, _ := Normalize(Params{
		"search": {"shah"}, "filter": {"main"}, "city": {"Mumbai"},
		"hasPhones": {"true"}, "tags": {"vip"},
	})
	require.Equal(t, Compile(f), Compile(f))
}

func TestMatches_EmptyAndOr(t *testing.T) {
	c := testContacts()[0]
	require.True(t, Matches(And{}, c))
	require.False(t, Matches(Or{}, c))
}
