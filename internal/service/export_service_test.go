package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"testing"

	"contacthub-data/internal/domain"
	"contacthub-data/internal/query"
	"contacthub-data/internal/repository"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestExportService(t *testing.T) (ExportService, *repository.MemoryContactsRepo) {
	t.Helper()
	repo := repository.NewMemoryContactsRepo()
	return NewExportService(repo, zap.NewNop()), repo
}

func TestExportContacts_CSV(t *testing.T) {
	svc, repo := newTestExportService(t)
	_, err := repo.Create(context.Background(), &domain.Contact{
		Name:          "Asha Shah",
		Status:        domain.StatusActive,
		City:          "Mumbai",
		IsMainContact: true,
		Phones: []domain.Phone{
			{PhoneID: "phone_1", Number: "+91 98765 43210", IsPrimary: true, IsValid: true},
			{PhoneID: "phone_2", Number: "+1 (415) 555-0147"},
		},
		Emails: []domain.Email{
			{EmailID: "email_1", Address: "asha@x.com", IsPrimary: true, IsValid: true},
		},
		Tags: []string{"vip", "family"},
	})
	require.NoError(t, err)

	resp, err := svc.ExportContacts(context.Background(), ExportContactsRequest{
		Format: "csv",
		Fields: []string{"name", "city", "primaryPhone", "allPhones", "primaryEmail", "tags"},
	})
	require.NoError(t, err)
	require.Equal(t, "text/csv", resp.ContentType)
	require.Equal(t, 1, resp.Rows)
	require.True(t, strings.HasSuffix(resp.FileName, ".csv"))

	records, err := csv.NewReader(bytes.NewReader(resp.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, []string{"Name", "City", "Primary Phone", "All Phones", "Primary Email", "Tags"}, records[0])
	require.Equal(t, "Asha Shah", records[1][0])
	require.Equal(t, "+91 98765 43210", records[1][2])
	require.Equal(t, "+91 98765 43210; +1 (415) 555-0147", records[1][3])
	require.Equal(t, "asha@x.com", records[1][4])
	require.Equal(t, "vip; family", records[1][5])
}

// 未知字段被忽略；全部未知时回落到默认投影
func TestExportContacts_FieldResolution(t *testing.T) {
	svc, repo := newTestExportService(t)
	_, err := repo.Create(context.Background(), &domain.Contact{Name: "A", IsMainContact: true})
	require.NoError(t, err)

	resp, err := svc.ExportContacts(context.Background(), ExportContactsRequest{
		Format: "csv",
		Fields: []string{"name", "noSuchField"},
	})
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(resp.Data)).ReadAll()
	require.NoError(t, err)
	require.Equal(t, []string{"Name"}, records[0])

	resp, err = svc.ExportContacts(context.Background(), ExportContactsRequest{
		Format: "csv",
		Fields: []string{"bogus"},
	})
	require.NoError(t, err)
	records, err = csv.NewReader(bytes.NewReader(resp.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records[0], len(defaultExportFields))
}

// 导出共用 FilterCompiler：过滤参数语义与搜索一致
func TestExportContacts_Filtered(t *testing.T) {
	svc, repo := newTestExportService(t)
	for i, city := range []string{"Mumbai", "Pune", "Mumbai"} {
		_, err := repo.Create(context.Background(), &domain.Contact{
			Name:          fmt.Sprintf("C%d", i),
			City:          city,
			IsMainContact: true,
		})
		require.NoError(t, err)
	}

	resp, err := svc.ExportContacts(context.Background(), ExportContactsRequest{
		Params: query.Params{"city": {"Mumbai"}},
		Format: "csv",
	})
	require.NoError(t, err)
	require.Equal(t, 2, resp.Rows)
}

func TestExportContacts_SkipPagination(t *testing.T) {
	svc, repo := newTestExportService(t)
	for i := 0; i < 30; i++ {
		_, err := repo.Create(context.Background(), &domain.Contact{
			Name:          fmt.Sprintf("Contact %03d", i),
			IsMainContact: true,
		})
		require.NoError(t, err)
	}

	// 默认分页：limit 20
	resp, err := svc.ExportContacts(context.Background(), ExportContactsRequest{Format: "csv"})
	require.NoError(t, err)
	require.Equal(t, 20, resp.Rows)

	// skipPagination：全量
	resp, err = svc.ExportContacts(context.Background(), ExportContactsRequest{
		Format:         "csv",
		SkipPagination: true,
	})
	require.NoError(t, err)
	require.Equal(t, 30, resp.Rows)
}

func TestExportContacts_DefaultsToXlsx(t *testing.T) {
	svc, repo := newTestExportService(t)
	_, err := repo.Create(context.Background(), &domain.Contact{Name: "A", IsMainContact: true})
	require.NoError(t, err)

	resp, err := svc.ExportContacts(context.Background(), ExportContactsRequest{Format: "whatever"})
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(resp.FileName, ".xlsx"))
	require.NotEmpty(t, resp.Data)
}
