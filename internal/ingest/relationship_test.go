package ingest

import (
	"testing"

	"contacthub-data/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestClassifyPhoneType_LabelWins(t *testing.T) {
	// 标签命中时列位置不起作用
	require.Equal(t, domain.PhoneTypeOffice, ClassifyPhoneType(0, "Office line"))
	require.Equal(t, domain.PhoneTypeResidence, ClassifyPhoneType(0, "home"))
	require.Equal(t, domain.PhoneTypeFax, ClassifyPhoneType(1, "Fax"))
	require.Equal(t, domain.PhoneTypeMobile, ClassifyPhoneType(5, "cell"))
}

func TestClassifyPhoneType_PositionFallback(t *testing.T) {
	require.Equal(t, domain.PhoneTypeMobile, ClassifyPhoneType(0, ""))
	require.Equal(t, domain.PhoneTypeMobile, ClassifyPhoneType(3, ""))
	require.Equal(t, domain.PhoneTypeOffice, ClassifyPhoneType(4, ""))
	require.Equal(t, domain.PhoneTypeResidence, ClassifyPhoneType(5, ""))
	require.Equal(t, domain.PhoneTypeOther, ClassifyPhoneType(6, ""))
}

func TestClassifyRelationship(t *testing.T) {
	cases := []struct {
		label string
		want  domain.RelationshipType
	}{
		// in-law 优先于家庭称谓
		{"Mother-in-law", domain.RelationInLaw},
		{"brother in law", domain.RelationInLaw},
		// grand* 优先于 parent/child
		{"Grandmother", domain.RelationGrandparent},
		{"Grandson Dev", domain.RelationGrandchild},
		{"Husband", domain.RelationSpouse},
		{"Son Rahul", domain.RelationChild},
		{"Daughter", domain.RelationChild},
		{"Mom", domain.RelationParent},
		{"Sister Priya", domain.RelationSibling},
		{"Aunty Meena", domain.RelationExtendedFamily},
		{"Personal Assistant", domain.RelationAssistant},
		{"Boss", domain.RelationSupervisor},
		{"Business Partner", domain.RelationBusinessPartner},
		{"Client Sharma", domain.RelationClient},
		{"Colleague", domain.RelationColleague},
		{"Friend Amit", domain.RelationFriend},
		{"Neighbour", domain.RelationNeighbor},
		{"Driver", domain.RelationRelated},
		{"", domain.RelationRelated},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ClassifyRelationship(tc.label), tc.label)
	}
}

func TestCleanRelationshipLabel(t *testing.T) {
	cases := []struct {
		label  string
		want   string
		wantOK bool
	}{
		// 纯关系词：没有人名
		{"Husband", "", false},
		{"mother-in-law", "", false},
		{"Office", "", false},
		// 关系词 + 人名：提取人名并 Title Case
		{"Son Rahul", "Rahul", true},
		{"wife ANITA", "Anita", true},
		{"Mrs. Asha Shah", "Asha Shah", true},
		{"dr mehta", "Mehta", true},
		{"Rahul's new number", "Rahul S", true},
		// 残余过短或纯数字
		{"x", "", false},
		{"12345", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := CleanRelationshipLabel(tc.label)
		require.Equal(t, tc.wantOK, ok, tc.label)
		require.Equal(t, tc.want, got, tc.label)
	}
}
