package domain

import (
	"strings"
	"time"
)

// Contact 联系人领域模型（对应 contacts 表）
// 一行导入数据展开为一个主联系人（main contact）+ 若干关联联系人（related contact）
type Contact struct {
	// 主键
	ContactID string `db:"contact_id" json:"contactId"` // UUID, PRIMARY KEY

	// 基本信息
	Name     string `db:"name" json:"name"`         // VARCHAR(255), NOT NULL
	Status   string `db:"status" json:"status"`     // VARCHAR(50)（active/inactive/archived）
	Category string `db:"category" json:"category"` // VARCHAR(100), nullable
	Notes    string `db:"notes" json:"notes"`       // TEXT, nullable

	// 地址字段
	Address       string `db:"address" json:"address"`
	Address2      string `db:"address2" json:"address2"`
	Suburb        string `db:"suburb" json:"suburb"`
	City          string `db:"city" json:"city"`
	Pincode       string `db:"pincode" json:"pincode"`
	State         string `db:"state" json:"state"`
	Country       string `db:"country" json:"country"`
	OfficeAddress string `db:"office_address" json:"officeAddress"`

	// 别名和标签（JSONB）
	AlternateNames []string `db:"alternate_names" json:"alternateNames"` // 有序
	Tags           []string `db:"tags" json:"tags"`

	// 头像引用（上传/签名由外部媒体服务负责）
	AvatarURL string `db:"avatar_url" json:"avatarUrl"`

	// 结构字段
	// 不变式：IsMainContact=false 时 ParentContactID 必须非空；
	// IsMainContact=true 时 ParentContactID 必须为空
	IsMainContact   bool   `db:"is_main_contact" json:"isMainContact"`
	ParentContactID string `db:"parent_contact_id" json:"parentContactId"` // UUID, nullable
	DuplicateGroup  string `db:"duplicate_group" json:"duplicateGroup"`    // 去重分组key, nullable

	// 内嵌集合（JSONB，生命周期完全从属于 Contact）
	Phones        []Phone               `db:"phones" json:"phones"`
	Emails        []Email               `db:"emails" json:"emails"`
	Relationships []ContactRelationship `db:"relationships" json:"relationships"`

	// 时间戳
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`     // 创建后不可变
	LastUpdated time.Time `db:"last_updated" json:"lastUpdated"` // 每次更新刷新
}

// Phone 电话号码（内嵌于 Contact）
type Phone struct {
	PhoneID   string    `json:"phoneId"` // contact 内唯一
	Number    string    `json:"number"`  // 规范化后的显示形式
	Type      PhoneType `json:"type"`
	IsPrimary bool      `json:"isPrimary"`
	Label     string    `json:"label,omitempty"`   // 自由文本（关系提示）
	Country   string    `json:"country,omitempty"` // 国家推测
	Region    string    `json:"region,omitempty"`  // 区域码推测（IN/US/XX）
	IsValid   bool      `json:"isValid"`
}

// Email 邮箱地址（内嵌于 Contact）
type Email struct {
	EmailID   string `json:"emailId"`
	Address   string `json:"address"` // 统一小写
	IsPrimary bool   `json:"isPrimary"`
	IsValid   bool   `json:"isValid"`
}

// ContactRelationship 关系边（内嵌于主联系人）
// 方向：主联系人 -> 关联联系人
type ContactRelationship struct {
	RelationshipID   string           `json:"relationshipId"`
	ContactID        string           `json:"contactId"`        // 主联系人
	RelatedContactID string           `json:"relatedContactId"` // 同批次内的关联联系人
	RelationshipType RelationshipType `json:"relationshipType"`
	Description      string           `json:"description,omitempty"` // 原始标签文本
}

// PhoneType 电话类型
type PhoneType string

const (
	PhoneTypeMobile    PhoneType = "mobile"
	PhoneTypeOffice    PhoneType = "office"
	PhoneTypeResidence PhoneType = "residence"
	PhoneTypeFax       PhoneType = "fax"
	PhoneTypeOther     PhoneType = "other"
)

// RelationshipType 关系类型（家庭/职业/社交）
type RelationshipType string

const (
	RelationSpouse          RelationshipType = "spouse"
	RelationChild           RelationshipType = "child"
	RelationParent          RelationshipType = "parent"
	RelationSibling         RelationshipType = "sibling"
	RelationExtendedFamily  RelationshipType = "extended_family"
	RelationGrandparent     RelationshipType = "grandparent"
	RelationGrandchild      RelationshipType = "grandchild"
	RelationInLaw           RelationshipType = "in_law"
	RelationColleague       RelationshipType = "colleague"
	RelationAssistant       RelationshipType = "assistant"
	RelationSupervisor      RelationshipType = "supervisor"
	RelationSubordinate     RelationshipType = "subordinate"
	RelationBusinessPartner RelationshipType = "business_partner"
	RelationClient          RelationshipType = "client"
	RelationFriend          RelationshipType = "friend"
	RelationNeighbor        RelationshipType = "neighbor"
	RelationRelated         RelationshipType = "related" // 默认
)

// ContactStatus 常用状态值
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusArchived = "archived"
)

// Validate 校验结构不变式
func (c *Contact) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrNameRequired
	}
	if c.IsMainContact && c.ParentContactID != "" {
		return ErrMainHasParent
	}
	if !c.IsMainContact && c.ParentContactID == "" {
		return ErrRelatedWithoutParent
	}
	return nil
}

// NormalizePrimaryFlags 修复主标志自洽性：
// phones/emails 非空时恰好一个 isPrimary=true（保留第一个为 true 的，否则第一个）
func (c *Contact) NormalizePrimaryFlags() {
	primaryIdx := -1
	for i := range c.Phones {
		if c.Phones[i].IsPrimary && primaryIdx < 0 {
			primaryIdx = i
		}
	}
	if primaryIdx < 0 && len(c.Phones) > 0 {
		primaryIdx = 0
	}
	for i := range c.Phones {
		c.Phones[i].IsPrimary = i == primaryIdx
	}

	primaryIdx = -1
	for i := range c.Emails {
		if c.Emails[i].IsPrimary && primaryIdx < 0 {
			primaryIdx = i
		}
	}
	if primaryIdx < 0 && len(c.Emails) > 0 {
		primaryIdx = 0
	}
	for i := range c.Emails {
		c.Emails[i].IsPrimary = i == primaryIdx
	}
}

// HasEmailAddress 是否已有完全相同的邮箱地址
func (c *Contact) HasEmailAddress(address string) bool {
	for i := range c.Emails {
		if c.Emails[i].Address == address {
			return true
		}
	}
	return false
}

// PrimaryPhone 返回主电话号码（无则空串）
func (c *Contact) PrimaryPhone() string {
	for i := range c.Phones {
		if c.Phones[i].IsPrimary {
			return c.Phones[i].Number
		}
	}
	if len(c.Phones) > 0 {
		return c.Phones[0].Number
	}
	return ""
}

// PrimaryEmail 返回主邮箱（无则空串）
func (c *Contact) PrimaryEmail() string {
	for i := range c.Emails {
		if c.Emails[i].IsPrimary {
			return c.Emails[i].Address
		}
	}
	if len(c.Emails) > 0 {
		return c.Emails[0].Address
	}
	return ""
}
