package repository

import (
	"context"
	"errors"

	"contacthub-data/internal/domain"
	"contacthub-data/internal/query"
)

// ErrNotFound 联系人不存在
var ErrNotFound = errors.New("contact not found")

// FindOptions 查询选项（分页 + 排序）
type FindOptions struct {
	Skip    int
	Take    int
	OrderBy string // name / createdAt / lastUpdated / city / category
	Desc    bool
}

// ContactsRepository 联系人存储接口。
// 过滤编译器输出的谓词树直接作为查询条件，不需要二次转换。
type ContactsRepository interface {
	FindMany(ctx context.Context, pred query.Predicate, opts FindOptions) ([]*domain.Contact, error)
	Count(ctx context.Context, pred query.Predicate) (int, error)
	Create(ctx context.Context, contact *domain.Contact) (*domain.Contact, error)
	CreateMany(ctx context.Context, contacts []*domain.Contact) (int, error)
	Update(ctx context.Context, contactID string, patch map[string]any) (*domain.Contact, error)
	FindByID(ctx context.Context, contactID string) (*domain.Contact, error)
}
