package ingest

import (
	"regexp"
	"strings"

	"contacthub-data/internal/domain"
)

// phoneTypeRules 电话类型规则，按优先级排列，先命中先赢
var phoneTypeRules = []struct {
	keywords []string
	phoneTyp domain.PhoneType
}{
	{[]string{"office", "work", "business"}, domain.PhoneTypeOffice},
	{[]string{"home", "house", "residence"}, domain.PhoneTypeResidence},
	{[]string{"fax"}, domain.PhoneTypeFax},
	{[]string{"mobile", "cell"}, domain.PhoneTypeMobile},
}

// ClassifyPhoneType 根据标签文本推断电话类型；标签无法判断时回落到列位置
// （前4列 mobile，第5列 office，第6列 residence，其余 other）
func ClassifyPhoneType(fieldPosition int, label string) domain.PhoneType {
	l := strings.ToLower(label)
	for _, rule := range phoneTypeRules {
		for _, kw := range rule.keywords {
			if strings.Contains(l, kw) {
				return rule.phoneTyp
			}
		}
	}
	switch {
	case fieldPosition < 4:
		return domain.PhoneTypeMobile
	case fieldPosition == 4:
		return domain.PhoneTypeOffice
	case fieldPosition == 5:
		return domain.PhoneTypeResidence
	default:
		return domain.PhoneTypeOther
	}
}

// relationshipRules 关系分类规则，顺序即优先级。
// "in-law" 必须排在具体家庭称谓之前（"mother-in-law" 应归 in_law 而不是 parent）；
// grand* 必须排在 parent/child 之前（"grandson" 包含 "son"）。
var relationshipRules = []struct {
	keywords []string
	relation domain.RelationshipType
}{
	{[]string{"in-law", "in law", "inlaw"}, domain.RelationInLaw},
	{[]string{"grandfather", "grandmother", "grandpa", "grandma", "grandparent"}, domain.RelationGrandparent},
	{[]string{"grandson", "granddaughter", "grandchild"}, domain.RelationGrandchild},
	{[]string{"wife", "husband", "spouse"}, domain.RelationSpouse},
	{[]string{"son", "daughter", "child", "kid"}, domain.RelationChild},
	{[]string{"mother", "father", "mom", "dad", "papa", "mummy"}, domain.RelationParent},
	{[]string{"brother", "sister", "sibling"}, domain.RelationSibling},
	{[]string{"uncle", "aunt", "aunty", "cousin", "nephew", "niece"}, domain.RelationExtendedFamily},
	{[]string{"assistant", "secretary"}, domain.RelationAssistant},
	{[]string{"boss", "supervisor", "manager"}, domain.RelationSupervisor},
	{[]string{"subordinate", "junior"}, domain.RelationSubordinate},
	{[]string{"partner"}, domain.RelationBusinessPartner},
	{[]string{"client", "customer"}, domain.RelationClient},
	{[]string{"colleague", "coworker", "co-worker"}, domain.RelationColleague},
	{[]string{"friend", "buddy"}, domain.RelationFriend},
	{[]string{"neighbour", "neighbor"}, domain.RelationNeighbor},
}

// ClassifyRelationship 把自由文本标签映射为关系类型，无法识别时返回 related
func ClassifyRelationship(label string) domain.RelationshipType {
	l := strings.ToLower(label)
	for _, rule := range relationshipRules {
		for _, kw := range rule.keywords {
			if strings.Contains(l, kw) {
				return rule.relation
			}
		}
	}
	return domain.RelationRelated
}

// labelNoiseWords 清洗候选人名时要移除的词表：
// 关系称谓 + 上下文词 + 常见停用词（按词边界、大小写不敏感）
var labelNoiseWords = []string{
	// 关系称谓
	"in-laws", "in-law", "in law", "inlaw",
	"grandfather", "grandmother", "grandparent", "grandpa", "grandma",
	"grandson", "granddaughter", "grandchild",
	"wife", "husband", "spouse",
	"son", "daughter", "child", "kid",
	"mother", "father", "mom", "dad", "papa", "mummy",
	"brother", "sister", "sibling",
	"uncle", "aunt", "aunty", "cousin", "nephew", "niece",
	"assistant", "secretary", "boss", "supervisor", "manager",
	"subordinate", "junior", "partner", "client", "customer",
	"colleague", "coworker", "co-worker", "friend", "buddy",
	"neighbour", "neighbor",
	// 上下文词
	"phone", "mobile", "cell", "number", "office", "work", "business",
	"home", "house", "residence", "fax", "contact", "ph", "no", "new", "old",
	// 称呼和停用词
	"mr", "mrs", "ms", "dr", "shri", "smt",
	"of", "the", "my", "his", "her", "their", "and",
}

var labelNoiseRe *regexp.Regexp

func init() {
	// 一次性编译：\b(word1|word2|...)\b
	escaped := make([]string, 0, len(labelNoiseWords))
	for _, w := range labelNoiseWords {
		escaped = append(escaped, regexp.QuoteMeta(w))
	}
	labelNoiseRe = regexp.MustCompile(`(?i)\b(` + strings.Join(escaped, "|") + `)\b`)
}

var (
	labelPunctRe   = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
	multiSpaceRe   = regexp.MustCompile(`\s+`)
	pureNumericRe  = regexp.MustCompile(`^[0-9]+$`)
	titleCaseSplit = regexp.MustCompile(`\s`)
)

// CleanRelationshipLabel 从关系标签中提取候选人名。
// 移除关系词/停用词，合并空白，剩余 token 转 Title Case。
// 残余短于2字符或纯数字时返回 ("", false)（该标签只描述关系，不含人名）。
func CleanRelationshipLabel(label string) (string, bool) {
	s := labelNoiseRe.ReplaceAllString(label, " ")
	s = labelPunctRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(multiSpaceRe.ReplaceAllString(s, " "))

	if len(s) < 2 || pureNumericRe.MatchString(s) {
		return "", false
	}

	tokens := titleCaseSplit.Split(s, -1)
	for i, tok := range tokens {
		if tok == "" {
			continue
		}
		tokens[i] = strings.ToUpper(tok[:1]) + strings.ToLower(tok[1:])
	}
	return strings.Join(tokens, " "), true
}
