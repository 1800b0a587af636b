package service

import (
	"context"
	"fmt"
	"time"

	"contacthub-data/internal/domain"
	"contacthub-data/internal/query"
	"contacthub-data/internal/repository"

	"go.uber.org/zap"
)

// ContactService 联系人查询/维护服务接口
type ContactService interface {
	// 查询
	SearchContacts(ctx context.Context, req SearchContactsRequest) (*SearchContactsResponse, error)
	GetContact(ctx context.Context, contactID string) (*domain.Contact, error)

	// 创建/更新（导入之外的单条入口）
	CreateContact(ctx context.Context, req CreateContactRequest) (*domain.Contact, error)
	UpdateContact(ctx context.Context, contactID string, patch map[string]any) (*domain.Contact, error)
}

// contactService 实现
type contactService struct {
	repo   repository.ContactsRepository
	logger *zap.Logger
}

// NewContactService 创建 ContactService 实例
func NewContactService(repo repository.ContactsRepository, logger *zap.Logger) ContactService {
	return &contactService{repo: repo, logger: logger}
}

// ============================================
// Request/Response DTOs
// ============================================

// SearchContactsRequest 搜索请求：原始过滤参数原样传入，
// 归一化和谓词编译都在 FilterCompiler 内完成
type SearchContactsRequest struct {
	Params query.Params
}

// SearchContactsResponse 搜索响应
type SearchContactsResponse struct {
	Contacts    []*domain.Contact `json:"contacts"`
	Total       int               `json:"total"`
	TotalPages  int               `json:"totalPages"`
	CurrentPage int               `json:"currentPage"`
	HasNextPage bool              `json:"hasNextPage"`
	HasPrevPage bool              `json:"hasPrevPage"`
	TookMs      int64             `json:"tookMs"`
}

// CreateContactRequest 单条创建请求
type CreateContactRequest struct {
	Contact domain.Contact `json:"contact"`
}

// ============================================
// 实现
// ============================================

// SearchContacts 归一化 -> 编译 -> count + 分页查询。
// 恶意/畸形过滤输入从不报错，只会退化为最宽松的合法解释。
func (s *contactService) SearchContacts(ctx context.Context, req SearchContactsRequest) (*SearchContactsResponse, error) {
	start := time.Now()

	filter, page := query.Normalize(req.Params)
	pred := query.Compile(filter)

	total, err := s.repo.Count(ctx, pred)
	if err != nil {
		return nil, fmt.Errorf("failed to count contacts: %w", err)
	}

	contacts, err := s.repo.FindMany(ctx, pred, repository.FindOptions{
		Skip:    page.Skip(),
		Take:    page.Limit,
		OrderBy: page.SortBy,
		Desc:    page.SortOrder == "desc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search contacts: %w", err)
	}
	if contacts == nil {
		contacts = []*domain.Contact{}
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + page.Limit - 1) / page.Limit
	}

	return &SearchContactsResponse{
		Contacts:    contacts,
		Total:       total,
		TotalPages:  totalPages,
		CurrentPage: page.Page,
		HasNextPage: page.Page*page.Limit < total,
		HasPrevPage: page.Page > 1,
		TookMs:      time.Since(start).Milliseconds(),
	}, nil
}

func (s *contactService) GetContact(ctx context.Context, contactID string) (*domain.Contact, error) {
	if contactID == "" {
		return nil, fmt.Errorf("contact_id is required")
	}
	return s.repo.FindByID(ctx, contactID)
}

// CreateContact 直接创建（主标志自洽性在 repo 层修复）
func (s *contactService) CreateContact(ctx context.Context, req CreateContactRequest) (*domain.Contact, error) {
	c := req.Contact
	if c.ParentContactID == "" {
		c.IsMainContact = true
	}
	if c.Status == "" {
		c.Status = domain.StatusActive
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, &c)
	if err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}
	s.logger.Info("contact created",
		zap.String("contact_id", created.ContactID),
		zap.Bool("is_main", created.IsMainContact),
	)
	return created, nil
}

func (s *contactService) UpdateContact(ctx context.Context, contactID string, patch map[string]any) (*domain.Contact, error) {
	if contactID == "" {
		return nil, fmt.Errorf("contact_id is required")
	}
	if len(patch) == 0 {
		return s.repo.FindByID(ctx, contactID)
	}
	return s.repo.Update(ctx, contactID, patch)
}
