package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"contacthub-data/internal/domain"
	"contacthub-data/internal/query"

	"github.com/google/uuid"
)

// PostgresContactsRepo 联系人 Repository 实现。
// 标量字段为普通列，phones/emails/relationships/tags/alternate_names 为 JSONB。
type PostgresContactsRepo struct {
	db *sql.DB
}

// NewPostgresContactsRepo 创建联系人 Repository
func NewPostgresContactsRepo(db *sql.DB) *PostgresContactsRepo {
	return &PostgresContactsRepo{db: db}
}

// 确保实现了接口
var _ ContactsRepository = (*PostgresContactsRepo)(nil)

const contactColumns = `
	contact_id::text,
	name,
	COALESCE(status, '') as status,
	COALESCE(category, '') as category,
	COALESCE(notes, '') as notes,
	COALESCE(address, '') as address,
	COALESCE(address2, '') as address2,
	COALESCE(suburb, '') as suburb,
	COALESCE(city, '') as city,
	COALESCE(pincode, '') as pincode,
	COALESCE(state, '') as state,
	COALESCE(country, '') as country,
	COALESCE(office_address, '') as office_address,
	COALESCE(alternate_names, '[]'::jsonb)::text as alternate_names,
	COALESCE(tags, '[]'::jsonb)::text as tags,
	COALESCE(avatar_url, '') as avatar_url,
	is_main_contact,
	COALESCE(parent_contact_id::text, '') as parent_contact_id,
	COALESCE(duplicate_group, '') as duplicate_group,
	COALESCE(phones, '[]'::jsonb)::text as phones,
	COALESCE(emails, '[]'::jsonb)::text as emails,
	COALESCE(relationships, '[]'::jsonb)::text as relationships,
	created_at,
	last_updated
`

// 排序字段白名单（防注入：OrderBy 来自 FilterCompiler 的受控集合，这里再兜一层）
var orderColumns = map[string]string{
	"name":        "name",
	"createdAt":   "created_at",
	"lastUpdated": "last_updated",
	"city":        "city",
	"category":    "category",
}

// FindMany 按谓词查询，带分页/排序
func (r *PostgresContactsRepo) FindMany(ctx context.Context, pred query.Predicate, opts FindOptions) ([]*domain.Contact, error) {
	where, args := CompileWhere(pred)

	orderCol, ok := orderColumns[opts.OrderBy]
	if !ok {
		orderCol = "created_at"
	}
	direction := "ASC"
	if opts.Desc {
		direction = "DESC"
	}

	q := fmt.Sprintf(
		`SELECT %s FROM contacts WHERE %s ORDER BY %s %s, contact_id ASC`,
		contactColumns, where, orderCol, direction,
	)
	if opts.Take > 0 {
		args = append(args, opts.Take)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Skip > 0 {
		args = append(args, opts.Skip)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}
	defer rows.Close()

	var contacts []*domain.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// Count 按谓词计数
func (r *PostgresContactsRepo) Count(ctx context.Context, pred query.Predicate) (int, error) {
	where, args := CompileWhere(pred)

	var total int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM contacts WHERE "+where, args...,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count contacts: %w", err)
	}
	return total, nil
}

// Create 插入单个联系人
func (r *PostgresContactsRepo) Create(ctx context.Context, contact *domain.Contact) (*domain.Contact, error) {
	if err := contact.Validate(); err != nil {
		return nil, err
	}
	if contact.ContactID == "" {
		contact.ContactID = uuid.NewString()
	}
	now := time.Now().UTC()
	if contact.CreatedAt.IsZero() {
		contact.CreatedAt = now
	}
	contact.LastUpdated = now
	contact.NormalizePrimaryFlags()

	alternateNames, _ := json.Marshal(emptyIfNil(contact.AlternateNames))
	tags, _ := json.Marshal(emptyIfNil(contact.Tags))
	phones, _ := json.Marshal(contact.Phones)
	emails, _ := json.Marshal(contact.Emails)
	relationships, _ := json.Marshal(contact.Relationships)
	if contact.Phones == nil {
		phones = []byte("[]")
	}
	if contact.Emails == nil {
		emails = []byte("[]")
	}
	if contact.Relationships == nil {
		relationships = []byte("[]")
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO contacts (
			contact_id, name, status, category, notes,
			address, address2, suburb, city, pincode, state, country, office_address,
			alternate_names, tags, avatar_url,
			is_main_contact, parent_contact_id, duplicate_group,
			phones, emails, relationships,
			created_at, last_updated
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16,
			$17, NULLIF($18, '')::uuid, NULLIF($19, ''),
			$20, $21, $22,
			$23, $24
		)`,
		contact.ContactID, contact.Name, contact.Status, contact.Category, contact.Notes,
		contact.Address, contact.Address2, contact.Suburb, contact.City, contact.Pincode,
		contact.State, contact.Country, contact.OfficeAddress,
		alternateNames, tags, contact.AvatarURL,
		contact.IsMainContact, contact.ParentContactID, contact.DuplicateGroup,
		phones, emails, relationships,
		contact.CreatedAt, contact.LastUpdated,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert contact: %w", err)
	}
	return contact, nil
}

// CreateMany 批量插入（逐条；批内失败隔离由调用方的管线负责）
func (r *PostgresContactsRepo) CreateMany(ctx context.Context, contacts []*domain.Contact) (int, error) {
	created := 0
	for _, c := range contacts {
		if _, err := r.Create(ctx, c); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// patch key -> 列名（可更新字段白名单）
var patchColumns = map[string]string{
	"name":          "name",
	"status":        "status",
	"category":      "category",
	"notes":         "notes",
	"address":       "address",
	"address2":      "address2",
	"suburb":        "suburb",
	"city":          "city",
	"pincode":       "pincode",
	"state":         "state",
	"country":       "country",
	"officeAddress": "office_address",
	"avatarUrl":     "avatar_url",
}

var patchJSONColumns = map[string]string{
	"tags":           "tags",
	"alternateNames": "alternate_names",
}

// Update 按 patch 更新；last_updated 总是刷新
func (r *PostgresContactsRepo) Update(ctx context.Context, contactID string, patch map[string]any) (*domain.Contact, error) {
	sets := []string{}
	args := []any{}

	for key, value := range patch {
		if col, ok := patchColumns[key]; ok {
			if s, ok := value.(string); ok {
				args = append(args, s)
				sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
			}
			continue
		}
		if col, ok := patchJSONColumns[key]; ok {
			b, err := json.Marshal(toStringSlice(value))
			if err != nil {
				continue
			}
			args = append(args, b)
			sets = append(sets, fmt.Sprintf("%s = $%d::jsonb", col, len(args)))
		}
	}

	args = append(args, time.Now().UTC())
	sets = append(sets, fmt.Sprintf("last_updated = $%d", len(args)))

	args = append(args, contactID)
	q := fmt.Sprintf(
		"UPDATE contacts SET %s WHERE contact_id = $%d",
		strings.Join(sets, ", "), len(args),
	)

	result, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return nil, ErrNotFound
	}

	return r.FindByID(ctx, contactID)
}

// FindByID 按主键查询
func (r *PostgresContactsRepo) FindByID(ctx context.Context, contactID string) (*domain.Contact, error) {
	row := r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM contacts WHERE contact_id = $1", contactColumns),
		contactID,
	)
	c, err := scanContact(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return c, nil
}

// scanner 兼容 *sql.Row 和 *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanContact(row scanner) (*domain.Contact, error) {
	var c domain.Contact
	var alternateNames, tags, phones, emails, relationships string

	err := row.Scan(
		&c.ContactID,
		&c.Name,
		&c.Status,
		&c.Category,
		&c.Notes,
		&c.Address,
		&c.Address2,
		&c.Suburb,
		&c.City,
		&c.Pincode,
		&c.State,
		&c.Country,
		&c.OfficeAddress,
		&alternateNames,
		&tags,
		&c.AvatarURL,
		&c.IsMainContact,
		&c.ParentContactID,
		&c.DuplicateGroup,
		&phones,
		&emails,
		&relationships,
		&c.CreatedAt,
		&c.LastUpdated,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(alternateNames), &c.AlternateNames); err != nil {
		return nil, fmt.Errorf("failed to decode alternate_names: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &c.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	if err := json.Unmarshal([]byte(phones), &c.Phones); err != nil {
		return nil, fmt.Errorf("failed to decode phones: %w", err)
	}
	if err := json.Unmarshal([]byte(emails), &c.Emails); err != nil {
		return nil, fmt.Errorf("failed to decode emails: %w", err)
	}
	if err := json.Unmarshal([]byte(relationships), &c.Relationships); err != nil {
		return nil, fmt.Errorf("failed to decode relationships: %w", err)
	}
	return &c, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

