package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"contacthub-data/internal/config"
	"contacthub-data/internal/domain"
	"contacthub-data/internal/ingest"
	"contacthub-data/internal/query"
	"contacthub-data/internal/repository"
	"contacthub-data/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 管线开始前的快速拒绝
var ErrNoUsableRows = errors.New("no row carries a contact name")

const (
	importProgressKeyPrefix = "contacthub:import:"
	importProgressTTL       = time.Hour
	maxErrorsInResponse     = 20
)

// ImportService 批量导入服务接口
type ImportService interface {
	ImportContacts(ctx context.Context, req ImportContactsRequest) (*ImportContactsResponse, error)
	GetImportProgress(ctx context.Context, jobID string) (*ingest.Progress, error)
}

// importService 实现
type importService struct {
	repo   repository.ContactsRepository
	kv     store.KV
	cfg    config.ImportConfig
	logger *zap.Logger
}

// NewImportService 创建 ImportService 实例
func NewImportService(repo repository.ContactsRepository, kv store.KV, cfg config.ImportConfig, logger *zap.Logger) ImportService {
	return &importService{repo: repo, kv: kv, cfg: cfg, logger: logger}
}

// ============================================
// Request/Response DTOs
// ============================================

// ImportOptions 导入选项
type ImportOptions struct {
	SkipValidation bool `json:"skipValidation"` // 跳过管线前的行形状预检
	BatchSize      int  `json:"batchSize"`      // 覆盖默认批大小
	UpdateExisting bool `json:"updateExisting"` // 同名主联系人改为更新而不是新建
}

// ImportContactsRequest 导入请求
type ImportContactsRequest struct {
	Contacts []ingest.ContactRow `json:"contacts"`
	FileName string              `json:"fileName"`
	FileSize int64               `json:"fileSize"`
	Options  ImportOptions       `json:"options"`
}

// ImportContactsResponse 导入响应。
// Errors 最多 20 条，HasMoreErrors 指示是否还有更多
type ImportContactsResponse struct {
	Success         bool                `json:"success"`
	JobID           string              `json:"jobId"`
	Status          ingest.ImportStatus `json:"status"`
	Statistics      ingest.Statistics   `json:"statistics"`
	Summary         string              `json:"summary"`
	Errors          []string            `json:"errors"`
	HasMoreErrors   bool                `json:"hasMoreErrors"`
	Recommendations []string            `json:"recommendations"`
}

// ============================================
// 实现
// ============================================

// ImportContacts 执行一次导入。
// 空输入/超上限/全部无名在任何行处理前快速失败，不产生部分状态。
func (s *importService) ImportContacts(ctx context.Context, req ImportContactsRequest) (*ImportContactsResponse, error) {
	if len(req.Contacts) == 0 {
		return nil, ingest.ErrEmptyImport
	}
	if len(req.Contacts) > s.cfg.MaxRows {
		return nil, fmt.Errorf("%w: %d rows, limit %d", ingest.ErrTooManyRows, len(req.Contacts), s.cfg.MaxRows)
	}
	if !req.Options.SkipValidation {
		usable := 0
		for i := range req.Contacts {
			if strings.TrimSpace(req.Contacts[i].Name) != "" {
				usable++
			}
		}
		if usable == 0 {
			return nil, ErrNoUsableRows
		}
	}

	jobID := uuid.NewString()
	s.logger.Info("starting contact import",
		zap.String("job_id", jobID),
		zap.String("file_name", req.FileName),
		zap.Int("rows", len(req.Contacts)),
	)

	pipelineCfg := ingest.PipelineConfig{
		BatchSize:     s.cfg.BatchSize,
		MaxRows:       s.cfg.MaxRows,
		Workers:       s.cfg.Workers,
		RetryCount:    s.cfg.RetryCount,
		ProgressEvery: s.cfg.ProgressEvery,
	}
	if req.Options.BatchSize > 0 {
		pipelineCfg.BatchSize = req.Options.BatchSize
	}

	var writer ingest.ContactWriter = s.repo
	if req.Options.UpdateExisting {
		writer = &upsertWriter{repo: s.repo}
	}

	pipeline := ingest.NewPipeline(writer, pipelineCfg, s.logger)
	result, err := pipeline.Run(ctx, req.Contacts, func(p ingest.Progress) {
		s.publishProgress(ctx, jobID, p)
	})
	if err != nil {
		return nil, err
	}

	return s.buildResponse(jobID, req, result), nil
}

// GetImportProgress 读取进度快照（供轮询）
func (s *importService) GetImportProgress(ctx context.Context, jobID string) (*ingest.Progress, error) {
	raw, err := s.kv.Get(ctx, importProgressKeyPrefix+jobID)
	if err != nil {
		if errors.Is(err, store.ErrMiss) {
			return nil, fmt.Errorf("import job %s not found", jobID)
		}
		return nil, err
	}
	var p ingest.Progress
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("corrupt progress record: %w", err)
	}
	return &p, nil
}

func (s *importService) publishProgress(ctx context.Context, jobID string, p ingest.Progress) {
	b, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := s.kv.Set(ctx, importProgressKeyPrefix+jobID, string(b), importProgressTTL); err != nil {
		s.logger.Warn("failed to publish import progress",
			zap.String("job_id", jobID),
			zap.Error(err),
		)
	}
}

func (s *importService) buildResponse(jobID string, req ImportContactsRequest, result *ingest.Result) *ImportContactsResponse {
	stats := result.Statistics

	errStrings := make([]string, 0, len(result.Errors))
	for _, e := range result.Errors {
		errStrings = append(errStrings, e.String())
	}
	hasMore := len(errStrings) > maxErrorsInResponse
	if hasMore {
		errStrings = errStrings[:maxErrorsInResponse]
	}

	summary := fmt.Sprintf(
		"Imported %d of %d contacts from %d rows (%d main, %d related)",
		stats.ContactsCreated, stats.ContactsAttempted, stats.RowsScanned,
		stats.MainContacts, stats.RelatedContacts,
	)
	if req.FileName != "" {
		summary = fmt.Sprintf("%s — %s", req.FileName, summary)
	}

	var recommendations []string
	if stats.DuplicateGroups > 0 {
		recommendations = append(recommendations, fmt.Sprintf(
			"%d duplicate name groups detected; review them with filter=duplicates",
			stats.DuplicateGroups,
		))
	}
	if stats.RowsFailed > 0 {
		recommendations = append(recommendations, fmt.Sprintf(
			"%d rows failed to parse; check that every row has a contact name",
			stats.RowsFailed,
		))
	}
	if stats.ContactsFailed > 0 {
		recommendations = append(recommendations, fmt.Sprintf(
			"%d contacts could not be persisted; retry the import for the failed records",
			stats.ContactsFailed,
		))
	}
	if stats.PhonesTotal == 0 && stats.ContactsCreated > 0 {
		recommendations = append(recommendations,
			"no phone numbers were recognized; verify the phone column mapping",
		)
	}

	return &ImportContactsResponse{
		Success:         result.Status == ingest.StatusCompleted,
		JobID:           jobID,
		Status:          result.Status,
		Statistics:      stats,
		Summary:         summary,
		Errors:          errStrings,
		HasMoreErrors:   hasMore,
		Recommendations: recommendations,
	}
}

// upsertWriter UpdateExisting 选项：主联系人按精确名字命中已有记录时改为更新。
// 命中时记录 新id->已有id 映射，后续关联联系人的 parent 引用按映射重写；
// 新的关系边不会合并到已有主联系人上（已知取舍）。
type upsertWriter struct {
	repo     repository.ContactsRepository
	parentID sync.Map // 本批次主联系人id -> 已有联系人id
}

func (w *upsertWriter) Create(ctx context.Context, c *domain.Contact) (*domain.Contact, error) {
	if !c.IsMainContact {
		if mapped, ok := w.parentID.Load(c.ParentContactID); ok {
			c.ParentContactID = mapped.(string)
		}
		return w.repo.Create(ctx, c)
	}

	pred := query.And{Preds: []query.Predicate{
		query.Cond{Field: query.FieldName, Op: query.OpEqFold, Value: c.Name},
		query.Cond{Field: query.FieldIsMainContact, Op: query.OpEq, Value: true},
	}}
	existing, err := w.repo.FindMany(ctx, pred, repository.FindOptions{Take: 1})
	if err != nil || len(existing) == 0 {
		return w.repo.Create(ctx, c)
	}
	w.parentID.Store(c.ContactID, existing[0].ContactID)

	patch := map[string]any{
		"status":        c.Status,
		"category":      c.Category,
		"notes":         c.Notes,
		"address":       c.Address,
		"address2":      c.Address2,
		"suburb":        c.Suburb,
		"city":          c.City,
		"pincode":       c.Pincode,
		"state":         c.State,
		"country":       c.Country,
		"officeAddress": c.OfficeAddress,
	}
	return w.repo.Update(ctx, existing[0].ContactID, patch)
}
