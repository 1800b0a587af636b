package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"contacthub-data/internal/domain"
	"contacthub-data/internal/query"

	"github.com/google/uuid"
)

// MemoryContactsRepo 内存实现，DB 未就绪时的开发回退，也用于单元测试。
// 谓词求值复用 query.Matches。
type MemoryContactsRepo struct {
	mu       sync.RWMutex
	contacts map[string]*domain.Contact
}

// NewMemoryContactsRepo 创建内存 repo
func NewMemoryContactsRepo() *MemoryContactsRepo {
	return &MemoryContactsRepo{
		contacts: map[string]*domain.Contact{},
	}
}

var _ ContactsRepository = (*MemoryContactsRepo)(nil)

func (r *MemoryContactsRepo) FindMany(_ context.Context, pred query.Predicate, opts FindOptions) ([]*domain.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*domain.Contact
	for _, c := range r.contacts {
		if query.Matches(pred, c) {
			copied := *c
			all = append(all, &copied)
		}
	}

	sortContacts(all, opts.OrderBy, opts.Desc)

	start := opts.Skip
	if start > len(all) {
		start = len(all)
	}
	end := len(all)
	if opts.Take > 0 && start+opts.Take < end {
		end = start + opts.Take
	}
	return all[start:end], nil
}

func (r *MemoryContactsRepo) Count(_ context.Context, pred query.Predicate) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, c := range r.contacts {
		if query.Matches(pred, c) {
			n++
		}
	}
	return n, nil
}

func (r *MemoryContactsRepo) Create(_ context.Context, contact *domain.Contact) (*domain.Contact, error) {
	if err := contact.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if contact.ContactID == "" {
		contact.ContactID = uuid.NewString()
	}
	if _, exists := r.contacts[contact.ContactID]; exists {
		return nil, fmt.Errorf("contact %s already exists", contact.ContactID)
	}

	now := time.Now().UTC()
	if contact.CreatedAt.IsZero() {
		contact.CreatedAt = now
	}
	contact.LastUpdated = now
	contact.NormalizePrimaryFlags()

	copied := *contact
	r.contacts[contact.ContactID] = &copied
	return contact, nil
}

func (r *MemoryContactsRepo) CreateMany(ctx context.Context, contacts []*domain.Contact) (int, error) {
	created := 0
	for _, c := range contacts {
		if _, err := r.Create(ctx, c); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func (r *MemoryContactsRepo) Update(_ context.Context, contactID string, patch map[string]any) (*domain.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.contacts[contactID]
	if !ok {
		return nil, ErrNotFound
	}

	for key, value := range patch {
		switch key {
		case "name":
			if s, ok := value.(string); ok && s != "" {
				c.Name = s
			}
		case "status":
			if s, ok := value.(string); ok {
				c.Status = s
			}
		case "category":
			if s, ok := value.(string); ok {
				c.Category = s
			}
		case "notes":
			if s, ok := value.(string); ok {
				c.Notes = s
			}
		case "address":
			if s, ok := value.(string); ok {
				c.Address = s
			}
		case "address2":
			if s, ok := value.(string); ok {
				c.Address2 = s
			}
		case "suburb":
			if s, ok := value.(string); ok {
				c.Suburb = s
			}
		case "city":
			if s, ok := value.(string); ok {
				c.City = s
			}
		case "pincode":
			if s, ok := value.(string); ok {
				c.Pincode = s
			}
		case "state":
			if s, ok := value.(string); ok {
				c.State = s
			}
		case "country":
			if s, ok := value.(string); ok {
				c.Country = s
			}
		case "officeAddress":
			if s, ok := value.(string); ok {
				c.OfficeAddress = s
			}
		case "avatarUrl":
			if s, ok := value.(string); ok {
				c.AvatarURL = s
			}
		case "tags":
			c.Tags = toStringSlice(value)
		case "alternateNames":
			c.AlternateNames = toStringSlice(value)
		}
	}

	c.LastUpdated = time.Now().UTC()
	c.NormalizePrimaryFlags()

	copied := *c
	return &copied, nil
}

func (r *MemoryContactsRepo) FindByID(_ context.Context, contactID string) (*domain.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.contacts[contactID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func toStringSlice(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func sortContacts(contacts []*domain.Contact, orderBy string, desc bool) {
	less := func(i, j int) bool {
		a, b := contacts[i], contacts[j]
		switch orderBy {
		case "name":
			return a.Name < b.Name
		case "city":
			return a.City < b.City
		case "category":
			return a.Category < b.Category
		case "lastUpdated":
			return a.LastUpdated.Before(b.LastUpdated)
		default: // createdAt
			if a.CreatedAt.Equal(b.CreatedAt) {
				return a.ContactID < b.ContactID
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	if desc {
		sort.SliceStable(contacts, func(i, j int) bool { return less(j, i) })
	} else {
		sort.SliceStable(contacts, less)
	}
}
