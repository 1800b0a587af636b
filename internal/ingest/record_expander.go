package ingest

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"contacthub-data/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ContactRow 一行待导入数据（列顺序固定）
type ContactRow struct {
	Name          string   `json:"name"`
	Status        string   `json:"status,omitempty"`
	Address       string   `json:"address,omitempty"`
	Address2      string   `json:"address2,omitempty"`
	Suburb        string   `json:"suburb,omitempty"`
	City          string   `json:"city,omitempty"`
	Pincode       string   `json:"pincode,omitempty"`
	State         string   `json:"state,omitempty"`
	Country       string   `json:"country,omitempty"`
	OfficeAddress string   `json:"officeAddress,omitempty"`
	Category      string   `json:"category,omitempty"`
	Notes         string   `json:"notes,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	PhoneFields   []string `json:"phoneFields,omitempty"` // 最多 N 个电话列，列顺序有意义
	EmailField    string   `json:"emailField,omitempty"`  // 自由文本邮箱列
}

// RowGraph 一行数据展开后的联系人图：一个主联系人 + 若干关联联系人。
// 关系边全部挂在主联系人上，关联联系人不携带边。
type RowGraph struct {
	Main    *domain.Contact
	Related []*domain.Contact
}

// Contacts 固定迭代顺序：主联系人在前，关联联系人按创建顺序。
// EmailMatcher 的轮转分配依赖这个顺序，不要改变。
func (g *RowGraph) Contacts() []*domain.Contact {
	out := make([]*domain.Contact, 0, 1+len(g.Related))
	out = append(out, g.Main)
	out = append(out, g.Related...)
	return out
}

// rowSequence 行内 id 序列（phone/relationship；email 序列在 EmailMatcher 内）。
// 必须按行独立，不能用包级计数器，否则跨行并发会互相污染。
type rowSequence struct {
	phone        int
	relationship int
}

func (s *rowSequence) nextPhoneID() string {
	s.phone++
	return fmt.Sprintf("phone_%d", s.phone)
}

func (s *rowSequence) nextRelationshipID() string {
	s.relationship++
	return fmt.Sprintf("rel_%d", s.relationship)
}

// Expander 把一行数据展开为联系人图
type Expander struct {
	logger *zap.Logger
}

// NewExpander 创建 Expander
func NewExpander(logger *zap.Logger) *Expander {
	return &Expander{logger: logger}
}

var phoneFieldSplitRe = regexp.MustCompile(`[,;\n]`)

var (
	// NUMBER (LABEL)
	parenSplitRe = regexp.MustCompile(`^(.*?)\s*\(([^)]+)\)\s*$`)
	// LABEL: NUMBER
	colonSplitRe = regexp.MustCompile(`^([^:]+):\s*(.+)$`)
	// NUMBER - LABEL（贪婪左侧，取最后一个 '-'，避免把号码里的 '-' 当分隔符）
	dashSplitRe = regexp.MustCompile(`^(.*\S)\s*-\s*(\S.*)$`)
)

// splitNumberLabel 把 "号码+关系标签" 拆开。
// 按 NUMBER (LABEL)、LABEL: NUMBER、NUMBER - LABEL 的顺序尝试，
// 候选号码侧必须有 >=10 位数字才接受；两侧有歧义时取数字 >=10 的一侧。
// 拆不开时整串作为号码、无标签。
// 已知局限：标签本身含 >=10 位数字时会被误拆（与源系统行为一致，不做防护）。
func splitNumberLabel(raw string) (number, label string) {
	raw = strings.TrimSpace(raw)

	if m := parenSplitRe.FindStringSubmatch(raw); m != nil {
		if DigitCount(m[1]) >= 10 {
			return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		}
	}
	if m := colonSplitRe.FindStringSubmatch(raw); m != nil {
		if DigitCount(m[2]) >= 10 {
			return strings.TrimSpace(m[2]), strings.TrimSpace(m[1])
		}
		if DigitCount(m[1]) >= 10 {
			return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		}
	}
	if m := dashSplitRe.FindStringSubmatch(raw); m != nil {
		if DigitCount(m[1]) >= 10 {
			return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		}
		if DigitCount(m[2]) >= 10 {
			return strings.TrimSpace(m[2]), strings.TrimSpace(m[1])
		}
	}
	return raw, ""
}

// analyzedPhone 一个已接受的电话 + 其来源信息
type analyzedPhone struct {
	phone domain.Phone
	label string
}

// ExpandRow 展开一行：
//  1. 预先为主联系人生成 id（父子/关系引用在持久化前就要成立）
//  2. 按列顺序收集电话字段，拆分多号码，拆 号码/标签
//  3. 无标签电话挂主联系人；有标签电话清洗出人名后生成关联联系人
//  4. 关系边集中挂在主联系人上
func (e *Expander) ExpandRow(row ContactRow) (*RowGraph, error) {
	name := strings.TrimSpace(row.Name)
	if name == "" {
		return nil, fmt.Errorf("row has no contact name")
	}

	now := time.Now().UTC()
	seq := &rowSequence{}

	status := row.Status
	if status == "" {
		status = domain.StatusActive
	}

	main := &domain.Contact{
		ContactID:     uuid.NewString(),
		Name:          name,
		Status:        status,
		Category:      strings.TrimSpace(row.Category),
		Notes:         strings.TrimSpace(row.Notes),
		Address:       strings.TrimSpace(row.Address),
		Address2:      strings.TrimSpace(row.Address2),
		Suburb:        strings.TrimSpace(row.Suburb),
		City:          strings.TrimSpace(row.City),
		Pincode:       strings.TrimSpace(row.Pincode),
		State:         strings.TrimSpace(row.State),
		Country:       strings.TrimSpace(row.Country),
		OfficeAddress: strings.TrimSpace(row.OfficeAddress),
		Tags:          row.Tags,
		IsMainContact: true,
		CreatedAt:     now,
		LastUpdated:   now,
	}

	graph := &RowGraph{Main: main}

	accepted := 0
	var labeled []analyzedPhone

	for pos, field := range row.PhoneFields {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		for _, rawNumber := range phoneFieldSplitRe.Split(field, -1) {
			rawNumber = strings.TrimSpace(rawNumber)
			if rawNumber == "" {
				continue
			}
			numberPart, label := splitNumberLabel(rawNumber)
			info := AnalyzePhone(numberPart)
			if info == nil {
				e.logger.Debug("skipping non-phone value",
					zap.String("value", rawNumber),
					zap.String("contact", name),
				)
				continue
			}

			phone := domain.Phone{
				PhoneID:   seq.nextPhoneID(),
				Number:    info.Formatted,
				Type:      ClassifyPhoneType(pos, label),
				IsPrimary: accepted == 0,
				Label:     label,
				Country:   info.Country,
				Region:    info.Region,
				IsValid:   info.IsValid,
			}
			accepted++

			if label == "" {
				main.Phones = append(main.Phones, phone)
			} else {
				labeled = append(labeled, analyzedPhone{phone: phone, label: label})
			}
		}
	}

	for _, lp := range labeled {
		relatedName, ok := CleanRelationshipLabel(lp.label)
		if !ok {
			// 标签只描述关系、不含人名：该电话从图中丢弃
			e.logger.Info("labeled phone dropped, label yields no person name",
				zap.String("label", lp.label),
				zap.String("number", lp.phone.Number),
				zap.String("main_contact", name),
			)
			continue
		}

		relPhone := lp.phone
		relPhone.IsPrimary = true
		relPhone.Label = ""

		related := &domain.Contact{
			ContactID:      uuid.NewString(),
			Name:           relatedName,
			Status:         domain.StatusActive,
			AlternateNames: []string{lp.label},
			// 只继承城市级地址，不继承门牌级字段
			City:            main.City,
			State:           main.State,
			Country:         main.Country,
			Phones:          []domain.Phone{relPhone},
			IsMainContact:   false,
			ParentContactID: main.ContactID,
			CreatedAt:       now,
			LastUpdated:     now,
		}

		main.Relationships = append(main.Relationships, domain.ContactRelationship{
			RelationshipID:   seq.nextRelationshipID(),
			ContactID:        main.ContactID,
			RelatedContactID: related.ContactID,
			RelationshipType: ClassifyRelationship(lp.label),
			Description:      lp.label,
		})

		graph.Related = append(graph.Related, related)
	}

	return graph, nil
}
