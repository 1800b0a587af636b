package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"contacthub-data/internal/domain"

	"go.uber.org/zap"
)

// 管线级失败（开始处理前就拒绝，不产生任何部分状态）
var (
	ErrEmptyImport = errors.New("import contains no rows")
	ErrTooManyRows = errors.New("import exceeds the maximum row count")
)

// ContactWriter 管线需要的最小持久化接口（repository.ContactsRepository 满足）
type ContactWriter interface {
	Create(ctx context.Context, contact *domain.Contact) (*domain.Contact, error)
}

// PipelineConfig 管线配置
type PipelineConfig struct {
	BatchSize     int           // 持久化批大小
	MaxRows       int           // 单次导入行数硬上限
	Workers       int           // 批次并发 worker 数（store 支持并发写时 >1）
	RetryCount    int           // 单条写入的有界重试次数
	RetryBaseWait time.Duration // 重试基础等待（指数退避）
	ProgressEvery int           // 每 N 个批次上报一次进度
}

// 默认值
func (c *PipelineConfig) applyDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.MaxRows <= 0 {
		c.MaxRows = 10000
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.RetryCount <= 0 {
		c.RetryCount = 3
	}
	if c.RetryBaseWait <= 0 {
		c.RetryBaseWait = 100 * time.Millisecond
	}
	if c.ProgressEvery <= 0 {
		c.ProgressEvery = 5
	}
}

// ImportStatus 管线终态
type ImportStatus string

const (
	StatusProcessing ImportStatus = "processing"
	StatusCompleted  ImportStatus = "completed"
	StatusPartial    ImportStatus = "partial" // 0 < created < attempted，调用方必须能与完全成功区分
	StatusFailed     ImportStatus = "failed"  // 尝试过但一个都没写入，且至少有一个错误
)

// Statistics 运行统计
type Statistics struct {
	RowsScanned       int            `json:"rowsScanned"`
	RowsFailed        int            `json:"rowsFailed"`
	ContactsAttempted int            `json:"contactsAttempted"`
	ContactsCreated   int            `json:"contactsCreated"`
	ContactsFailed    int            `json:"contactsFailed"`
	MainContacts      int            `json:"mainContacts"`
	RelatedContacts   int            `json:"relatedContacts"`
	PhonesTotal       int            `json:"phonesTotal"`
	EmailsTotal       int            `json:"emailsTotal"`
	CategoryCounts    map[string]int `json:"categoryCounts"`
	DuplicateGroups   int            `json:"duplicateGroups"`
	ElapsedMs         int64          `json:"elapsedMs"`
	ContactsPerSecond float64        `json:"contactsPerSecond"`
}

// RowError 行级错误（1-based 行号）
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

func (e RowError) String() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// Progress 进度快照
type Progress struct {
	Status       ImportStatus `json:"status"`
	Phase        string       `json:"phase"` // expanding / persisting / done
	BatchesDone  int          `json:"batchesDone"`
	BatchesTotal int          `json:"batchesTotal"`
	Statistics   Statistics   `json:"statistics"`
}

// ProgressFunc 进度回调（导入服务把快照写入 Redis 供轮询）
type ProgressFunc func(Progress)

// Result 管线结果
type Result struct {
	Status     ImportStatus
	Statistics Statistics
	Errors     []RowError
}

// Pipeline 导入管线：行 -> 联系人图 -> 去重分组 -> 分批持久化。
// 行处理严格顺序执行；只有批次持久化允许并发（统计用互斥锁粗粒度保护）。
type Pipeline struct {
	expander *Expander
	writer   ContactWriter
	cfg      PipelineConfig
	logger   *zap.Logger
}

// NewPipeline 创建管线
func NewPipeline(writer ContactWriter, cfg PipelineConfig, logger *zap.Logger) *Pipeline {
	cfg.applyDefaults()
	return &Pipeline{
		expander: NewExpander(logger),
		writer:   writer,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run 执行一次导入。
// 空输入和超上限在任何行处理前快速失败。
// 单行错误被隔离记录，绝不中断整个导入。
func (p *Pipeline) Run(ctx context.Context, rows []ContactRow, progress ProgressFunc) (*Result, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyImport
	}
	if len(rows) > p.cfg.MaxRows {
		return nil, fmt.Errorf("%w: %d rows, limit %d", ErrTooManyRows, len(rows), p.cfg.MaxRows)
	}

	start := time.Now()
	stats := Statistics{CategoryCounts: make(map[string]int)}
	var rowErrors []RowError

	// 阶段1：顺序展开。邮箱匹配和关系编号都是行内作用域，不允许跨行交错。
	var all []*domain.Contact
	for i, row := range rows {
		stats.RowsScanned++
		graph, err := p.expander.ExpandRow(row)
		if err != nil {
			stats.RowsFailed++
			rowErrors = append(rowErrors, RowError{Row: i + 1, Message: err.Error()})
			continue
		}

		emails := ExtractEmails(row.EmailField)
		DistributeEmails(emails, graph.Contacts())

		for _, c := range graph.Contacts() {
			stats.PhonesTotal += len(c.Phones)
			stats.EmailsTotal += len(c.Emails)
			if c.Category != "" {
				stats.CategoryCounts[c.Category]++
			}
			if c.IsMainContact {
				stats.MainContacts++
			} else {
				stats.RelatedContacts++
			}
			all = append(all, c)
		}
	}
	stats.ContactsAttempted = len(all)

	if progress != nil {
		progress(Progress{Status: StatusProcessing, Phase: "expanding", Statistics: stats})
	}

	// 阶段2：整批一次性去重分组（内存屏障：全部联系人就绪后才开始持久化）
	stats.DuplicateGroups = GroupDuplicates(all)

	// 阶段3：分批持久化，批内逐条隔离，批次可并发
	batches := splitBatches(all, p.cfg.BatchSize)
	var (
		mu          sync.Mutex
		wg          sync.WaitGroup
		batchesDone int
	)
	sem := make(chan struct{}, p.cfg.Workers)

	for bi, batch := range batches {
		wg.Add(1)
		sem <- struct{}{}
		go func(batchIndex int, batch []*domain.Contact) {
			defer wg.Done()
			defer func() { <-sem }()

			created, failed, errs := p.persistBatch(ctx, batchIndex, batch)

			mu.Lock()
			stats.ContactsCreated += created
			stats.ContactsFailed += failed
			rowErrors = append(rowErrors, errs...)
			batchesDone++
			stats.ElapsedMs = time.Since(start).Milliseconds()
			if progress != nil && batchesDone%p.cfg.ProgressEvery == 0 {
				progress(Progress{
					Status:       StatusProcessing,
					Phase:        "persisting",
					BatchesDone:  batchesDone,
					BatchesTotal: len(batches),
					Statistics:   stats,
				})
			}
			mu.Unlock()
		}(bi, batch)
	}
	wg.Wait()

	stats.ElapsedMs = time.Since(start).Milliseconds()
	if secs := time.Since(start).Seconds(); secs > 0 {
		stats.ContactsPerSecond = float64(stats.ContactsCreated) / secs
	}

	result := &Result{
		Status:     terminalStatus(stats, len(rowErrors)),
		Statistics: stats,
		Errors:     rowErrors,
	}

	if progress != nil {
		progress(Progress{
			Status:       result.Status,
			Phase:        "done",
			BatchesDone:  len(batches),
			BatchesTotal: len(batches),
			Statistics:   stats,
		})
	}

	p.logger.Info("import pipeline finished",
		zap.String("status", string(result.Status)),
		zap.Int("rows", stats.RowsScanned),
		zap.Int("created", stats.ContactsCreated),
		zap.Int("failed", stats.ContactsFailed),
		zap.Int64("elapsed_ms", stats.ElapsedMs),
	)
	return result, nil
}

// persistBatch 持久化一个批次。
// 批内逐条写入：单条失败（约束冲突等）只记录错误，不影响同批其它记录；
// 批级 panic 被捕获，未写入的整批记为失败，管线继续下一批。
func (p *Pipeline) persistBatch(ctx context.Context, batchIndex int, batch []*domain.Contact) (created, failed int, errs []RowError) {
	done := 0
	defer func() {
		if r := recover(); r != nil {
			remaining := len(batch) - done
			failed += remaining
			errs = append(errs, RowError{
				Row:     0,
				Message: fmt.Sprintf("batch %d aborted: %v (%d contacts not persisted)", batchIndex+1, r, remaining),
			})
			p.logger.Error("persistence batch panicked",
				zap.Int("batch", batchIndex+1),
				zap.Any("panic", r),
			)
		}
	}()

	for _, c := range batch {
		err := p.createWithRetry(ctx, c)
		done++
		if err != nil {
			failed++
			errs = append(errs, RowError{
				Row:     0,
				Message: fmt.Sprintf("contact %q not persisted: %v", c.Name, err),
			})
			continue
		}
		created++
	}
	return created, failed, errs
}

// createWithRetry 有界重试 + 指数退避
func (p *Pipeline) createWithRetry(ctx context.Context, c *domain.Contact) error {
	var err error
	wait := p.cfg.RetryBaseWait
	for attempt := 0; attempt < p.cfg.RetryCount; attempt++ {
		if attempt > 0 {
			time.Sleep(wait)
			wait *= 2
		}
		if _, err = p.writer.Create(ctx, c); err == nil {
			return nil
		}
	}
	return err
}

func splitBatches(contacts []*domain.Contact, size int) [][]*domain.Contact {
	var batches [][]*domain.Contact
	for start := 0; start < len(contacts); start += size {
		end := start + size
		if end > len(contacts) {
			end = len(contacts)
		}
		batches = append(batches, contacts[start:end])
	}
	return batches
}

// terminalStatus 终态判定：
// 一个都没写入且有错误 -> failed；部分写入 -> partial；全部写入 -> completed
func terminalStatus(stats Statistics, errCount int) ImportStatus {
	switch {
	case stats.ContactsCreated == 0 && errCount > 0:
		return StatusFailed
	case stats.ContactsCreated < stats.ContactsAttempted || stats.RowsFailed > 0:
		return StatusPartial
	default:
		return StatusCompleted
	}
}
