package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"contacthub-data/internal/domain"
	"contacthub-data/internal/query"
	"contacthub-data/internal/repository"

	"go.uber.org/zap"
)

// ExportService 批量导出服务接口
type ExportService interface {
	ExportContacts(ctx context.Context, req ExportContactsRequest) (*ExportContactsResponse, error)
}

// exportService 实现
type exportService struct {
	repo   repository.ContactsRepository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo repository.ContactsRepository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ============================================
// Request/Response DTOs
// ============================================

// ExportContactsRequest 导出请求：过滤参数与搜索同构，外加投影字段和格式
type ExportContactsRequest struct {
	Params         query.Params `json:"-"`
	Fields         []string     `json:"fields"`
	Format         string       `json:"format"` // xlsx / csv
	SkipPagination bool         `json:"skipPagination"`
}

// ExportContactsResponse 导出结果
type ExportContactsResponse struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"-"`
	Rows        int    `json:"rows"`
}

// ============================================
// 字段投影
// ============================================

// exportField 一个可导出字段：表头 + 取值函数。
// 电话/邮箱折叠为 primary + 分号连接的全量两类列
type exportField struct {
	Header string
	Value  func(c *domain.Contact) string
}

var exportFields = map[string]exportField{
	"name":     {"Name", func(c *domain.Contact) string { return c.Name }},
	"status":   {"Status", func(c *domain.Contact) string { return c.Status }},
	"category": {"Category", func(c *domain.Contact) string { return c.Category }},
	"notes":    {"Notes", func(c *domain.Contact) string { return c.Notes }},
	"address":  {"Address", func(c *domain.Contact) string { return c.Address }},
	"address2": {"Address 2", func(c *domain.Contact) string { return c.Address2 }},
	"suburb":   {"Suburb", func(c *domain.Contact) string { return c.Suburb }},
	"city":     {"City", func(c *domain.Contact) string { return c.City }},
	"pincode":  {"Pincode", func(c *domain.Contact) string { return c.Pincode }},
	"state":    {"State", func(c *domain.Contact) string { return c.State }},
	"country":  {"Country", func(c *domain.Contact) string { return c.Country }},
	"officeAddress": {"Office Address", func(c *domain.Contact) string {
		return c.OfficeAddress
	}},
	"tags": {"Tags", func(c *domain.Contact) string {
		return strings.Join(c.Tags, "; ")
	}},
	"alternateNames": {"Alternate Names", func(c *domain.Contact) string {
		return strings.Join(c.AlternateNames, "; ")
	}},
	"isMainContact": {"Is Main Contact", func(c *domain.Contact) string {
		return strconv.FormatBool(c.IsMainContact)
	}},
	"parentContactId": {"Parent Contact ID", func(c *domain.Contact) string {
		return c.ParentContactID
	}},
	"duplicateGroup": {"Duplicate Group", func(c *domain.Contact) string {
		return c.DuplicateGroup
	}},
	"primaryPhone": {"Primary Phone", func(c *domain.Contact) string {
		return c.PrimaryPhone()
	}},
	"allPhones": {"All Phones", func(c *domain.Contact) string {
		numbers := make([]string, 0, len(c.Phones))
		for i := range c.Phones {
			numbers = append(numbers, c.Phones[i].Number)
		}
		return strings.Join(numbers, "; ")
	}},
	"primaryEmail": {"Primary Email", func(c *domain.Contact) string {
		return c.PrimaryEmail()
	}},
	"allEmails": {"All Emails", func(c *domain.Contact) string {
		addresses := make([]string, 0, len(c.Emails))
		for i := range c.Emails {
			addresses = append(addresses, c.Emails[i].Address)
		}
		return strings.Join(addresses, "; ")
	}},
	"relationshipCount": {"Relationships", func(c *domain.Contact) string {
		return strconv.Itoa(len(c.Relationships))
	}},
	"createdAt": {"Created At", func(c *domain.Contact) string {
		return c.CreatedAt.Format("2006-01-02 15:04:05")
	}},
	"lastUpdated": {"Last Updated", func(c *domain.Contact) string {
		return c.LastUpdated.Format("2006-01-02 15:04:05")
	}},
}

// defaultExportFields 未指定字段时的默认投影（列顺序）
var defaultExportFields = []string{
	"name", "status", "category", "city", "state", "country",
	"primaryPhone", "allPhones", "primaryEmail", "allEmails", "tags",
}

// exportPageSize skipPagination 时的内部翻页步长
const exportPageSize = 500

// ============================================
// 实现
// ============================================

// ExportContacts 过滤 -> 投影 -> xlsx/csv。
// 过滤参数与搜索共用 FilterCompiler，畸形输入同样宽容降级。
func (s *exportService) ExportContacts(ctx context.Context, req ExportContactsRequest) (*ExportContactsResponse, error) {
	filter, page := query.Normalize(req.Params)
	pred := query.Compile(filter)

	fields := resolveFields(req.Fields)

	var contacts []*domain.Contact
	var err error
	if req.SkipPagination {
		contacts, err = s.fetchAll(ctx, pred, page)
	} else {
		contacts, err = s.repo.FindMany(ctx, pred, repository.FindOptions{
			Skip:    page.Skip(),
			Take:    page.Limit,
			OrderBy: page.SortBy,
			Desc:    page.SortOrder == "desc",
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contacts for export: %w", err)
	}

	headers := make([]string, 0, len(fields))
	for _, f := range fields {
		headers = append(headers, f.Header)
	}
	rows := make([][]string, 0, len(contacts))
	for _, c := range contacts {
		row := make([]string, 0, len(fields))
		for _, f := range fields {
			row = append(row, f.Value(c))
		}
		rows = append(rows, row)
	}

	format := strings.ToLower(strings.TrimSpace(req.Format))
	if format != "csv" {
		format = "xlsx"
	}

	var data []byte
	var contentType string
	switch format {
	case "csv":
		data, err = encodeCSV(headers, rows)
		contentType = "text/csv"
	default:
		data, err = GenerateContactsExcel(headers, rows)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}

	s.logger.Info("contacts exported",
		zap.Int("rows", len(rows)),
		zap.String("format", format),
	)

	return &ExportContactsResponse{
		FileName:    fmt.Sprintf("contacts-%s.%s", time.Now().UTC().Format("20060102-150405"), format),
		ContentType: contentType,
		Data:        data,
		Rows:        len(rows),
	}, nil
}

// fetchAll 忽略请求分页，按内部步长翻页取全量
func (s *exportService) fetchAll(ctx context.Context, pred query.Predicate, page query.Pagination) ([]*domain.Contact, error) {
	var all []*domain.Contact
	skip := 0
	for {
		chunk, err := s.repo.FindMany(ctx, pred, repository.FindOptions{
			Skip:    skip,
			Take:    exportPageSize,
			OrderBy: page.SortBy,
			Desc:    page.SortOrder == "desc",
		})
		if err != nil {
			return nil, err
		}
		all = append(all, chunk...)
		if len(chunk) < exportPageSize {
			return all, nil
		}
		skip += exportPageSize
	}
}

func resolveFields(names []string) []exportField {
	if len(names) == 0 {
		names = defaultExportFields
	}
	fields := make([]exportField, 0, len(names))
	for _, n := range names {
		if f, ok := exportFields[n]; ok {
			fields = append(fields, f)
		}
	}
	if len(fields) == 0 {
		for _, n := range defaultExportFields {
			fields = append(fields, exportFields[n])
		}
	}
	return fields
}

func encodeCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(headers); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
