package service

import (
	"context"
	"fmt"
	"testing"

	"contacthub-data/internal/domain"
	"contacthub-data/internal/query"
	"contacthub-data/internal/repository"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestContactService(t *testing.T) (ContactService, *repository.MemoryContactsRepo) {
	t.Helper()
	repo := repository.NewMemoryContactsRepo()
	return NewContactService(repo, zap.NewNop()), repo
}

func seedContacts(t *testing.T, repo *repository.MemoryContactsRepo, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := repo.Create(context.Background(), &domain.Contact{
			Name:          fmt.Sprintf("Contact %03d", i),
			Status:        domain.StatusActive,
			City:          "Mumbai",
			IsMainContact: true,
		})
		require.NoError(t, err)
	}
}

func TestSearchContacts_Pagination(t *testing.T) {
	svc, repo := newTestContactService(t)
	seedContacts(t, repo, 45)

	resp, err := svc.SearchContacts(context.Background(), SearchContactsRequest{
		Params: query.Params{"limit": {"20"}, "page": {"1"}},
	})
	require.NoError(t, err)
	require.Equal(t, 45, resp.Total)
	require.Equal(t, 3, resp.TotalPages)
	require.Equal(t, 1, resp.CurrentPage)
	require.Len(t, resp.Contacts, 20)
	require.True(t, resp.HasNextPage)
	require.False(t, resp.HasPrevPage)

	resp, err = svc.SearchContacts(context.Background(), SearchContactsRequest{
		Params: query.Params{"limit": {"20"}, "page": {"3"}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Contacts, 5)
	require.False(t, resp.HasNextPage)
	require.True(t, resp.HasPrevPage)
}

// 超出数据范围的页返回空集而不是错误
func TestSearchContacts_PageBeyondRange(t *testing.T) {
	svc, repo := newTestContactService(t)
	seedContacts(t, repo, 3)

	resp, err := svc.SearchContacts(context.Background(), SearchContactsRequest{
		Params: query.Params{"page": {"50"}},
	})
	require.NoError(t, err)
	require.Equal(t, 3, resp.Total)
	require.Empty(t, resp.Contacts)
	require.NotNil(t, resp.Contacts) // 序列化为 [] 而不是 null
}

// 畸形过滤输入宽容降级，不报错
func TestSearchContacts_MalformedParams(t *testing.T) {
	svc, repo := newTestContactService(t)
	seedContacts(t, repo, 2)

	resp, err := svc.SearchContacts(context.Background(), SearchContactsRequest{
		Params: query.Params{
			"filter":       {"bogus"},
			"page":         {"-10"},
			"limit":        {"99999"},
			"hasPhones":    {"maybe"},
			"createdAfter": {"not a date"},
			"sortBy":       {"'; DROP TABLE contacts;--"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 2, resp.Total)
	require.Equal(t, 1, resp.CurrentPage)
}

func TestSearchContacts_SortAscending(t *testing.T) {
	svc, repo := newTestContactService(t)
	for _, name := range []string{"Charlie", "Alice", "Bob"} {
		_, err := repo.Create(context.Background(), &domain.Contact{Name: name, IsMainContact: true})
		require.NoError(t, err)
	}

	resp, err := svc.SearchContacts(context.Background(), SearchContactsRequest{
		Params: query.Params{"sortBy": {"name"}, "sortOrder": {"asc"}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Contacts, 3)
	require.Equal(t, "Alice", resp.Contacts[0].Name)
	require.Equal(t, "Bob", resp.Contacts[1].Name)
	require.Equal(t, "Charlie", resp.Contacts[2].Name)
}

func TestCreateContact_Defaults(t *testing.T) {
	svc, _ := newTestContactService(t)

	created, err := svc.CreateContact(context.Background(), CreateContactRequest{
		Contact: domain.Contact{Name: "Asha Shah"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ContactID)
	require.True(t, created.IsMainContact)
	require.Equal(t, domain.StatusActive, created.Status)
}

func TestCreateContact_Invalid(t *testing.T) {
	svc, _ := newTestContactService(t)

	_, err := svc.CreateContact(context.Background(), CreateContactRequest{
		Contact: domain.Contact{Name: "   "},
	})
	require.ErrorIs(t, err, domain.ErrNameRequired)
}

func TestGetContact(t *testing.T) {
	svc, repo := newTestContactService(t)
	created, err := repo.Create(context.Background(), &domain.Contact{Name: "Asha", IsMainContact: true})
	require.NoError(t, err)

	got, err := svc.GetContact(context.Background(), created.ContactID)
	require.NoError(t, err)
	require.Equal(t, "Asha", got.Name)

	_, err = svc.GetContact(context.Background(), "missing-id")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdateContact(t *testing.T) {
	svc, repo := newTestContactService(t)
	created, err := repo.Create(context.Background(), &domain.Contact{Name: "Asha", IsMainContact: true})
	require.NoError(t, err)

	updated, err := svc.UpdateContact(context.Background(), created.ContactID, map[string]any{
		"city": "Pune",
		"tags": []any{"vip"},
	})
	require.NoError(t, err)
	require.Equal(t, "Pune", updated.City)
	require.Equal(t, []string{"vip"}, updated.Tags)

	// 空 patch 等价于读取
	same, err := svc.UpdateContact(context.Background(), created.ContactID, nil)
	require.NoError(t, err)
	require.Equal(t, "Pune", same.City)

	_, err = svc.UpdateContact(context.Background(), "missing-id", map[string]any{"city": "X"})
	require.ErrorIs(t, err, repository.ErrNotFound)
}
