package knowledge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"nutribot/internal/pkg/common"

	"go.uber.org/zap"
)

var (
	// ErrReloadInProgress 已有重建在執行
	ErrReloadInProgress = errors.New("knowledge reload already in progress")
	// ErrIngestionTimeout 重建超過時間上限
	ErrIngestionTimeout = errors.New("knowledge ingestion timed out")
	// ErrIngestionFailed 重建或發布失敗，先前的世代保持不變
	ErrIngestionFailed = errors.New("knowledge ingestion failed")
)

// DefaultIngestionTimeout 重建的時間上限
const DefaultIngestionTimeout = 60 * time.Second

// Publisher 發布新世代
type Publisher interface {
	Publish(facts []FoodFact, generatedAt time.Time) error
}

// ReloadObserver 接收重建結果，供指標使用
type ReloadObserver interface {
	ObserveReload(outcome string, duration time.Duration, totalFoods int)
}

// ReloadRequest 重建參數，零值使用預設
type ReloadRequest struct {
	Queries     []string `json:"queries,omitempty"`
	MaxPerQuery int      `json:"max_per_query,omitempty"`
}

// ReloadResult 成功重建的結果
type ReloadResult struct {
	Report      BuildReport `json:"report"`
	GeneratedAt time.Time   `json:"generated_at"`
	TotalFoods  int         `json:"total_foods"`
	Source      Source      `json:"source"`
}

// ReloadStatus 重建狀態
type ReloadStatus struct {
	Running     bool         `json:"running"`
	Runs        int64        `json:"runs"`
	Failures    int64        `json:"failures"`
	LastStarted *time.Time   `json:"last_started,omitempty"`
	LastOutcome string       `json:"last_outcome,omitempty"`
	LastError   string       `json:"last_error,omitempty"`
	LastReport  *BuildReport `json:"last_report,omitempty"`
}

// ReloaderOptions 重建器設定
type ReloaderOptions struct {
	Timeout     time.Duration
	MaxPerQuery int
	Queries     []string
	Observer    ReloadObserver
}

// Reloader 一次只允許一個重建：建立、發布、再替換 Catalog
type Reloader struct {
	builder   *Builder
	publisher Publisher
	catalog   *Catalog
	opts      ReloaderOptions
	now       func() time.Time

	running  sync.Mutex
	runs     atomic.Int64
	failures atomic.Int64

	mu     sync.RWMutex
	status ReloadStatus
}

// NewReloader 創建重建器
func NewReloader(builder *Builder, publisher Publisher, catalog *Catalog, opts ReloaderOptions) *Reloader {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultIngestionTimeout
	}
	if opts.MaxPerQuery <= 0 {
		opts.MaxPerQuery = DefaultMaxPerQuery
	}
	if len(opts.Queries) == 0 {
		opts.Queries = DefaultQueries()
	}
	return &Reloader{
		builder:   builder,
		publisher: publisher,
		catalog:   catalog,
		opts:      opts,
		now:       time.Now,
	}
}

// Run 執行一次重建；已有重建進行中時立即回傳 ErrReloadInProgress
func (r *Reloader) Run(ctx context.Context, req ReloadRequest) (*ReloadResult, error) {
	if !r.running.TryLock() {
		return nil, ErrReloadInProgress
	}
	defer r.running.Unlock()

	queries := req.Queries
	if len(queries) == 0 {
		queries = r.opts.Queries
	}
	maxPerQuery := req.MaxPerQuery
	if maxPerQuery <= 0 {
		maxPerQuery = r.opts.MaxPerQuery
	}

	started := r.now()
	r.runs.Add(1)
	r.setStatus(func(s *ReloadStatus) {
		s.Running = true
		s.LastStarted = &started
	})

	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	result, report, err := r.run(ctx, queries, maxPerQuery)
	duration := time.Since(started)

	outcome := "success"
	switch {
	case errors.Is(err, ErrIngestionTimeout):
		outcome = "timeout"
	case err != nil:
		outcome = "failed"
	}
	if err != nil {
		r.failures.Add(1)
		common.LogError("知識庫重建失敗", zap.Error(err), zap.Duration("耗時", duration))
	}
	if r.opts.Observer != nil {
		total := 0
		if result != nil {
			total = result.TotalFoods
		}
		r.opts.Observer.ObserveReload(outcome, duration, total)
	}

	r.setStatus(func(s *ReloadStatus) {
		s.Running = false
		s.LastOutcome = outcome
		s.LastError = ""
		if err != nil {
			s.LastError = err.Error()
		}
		s.LastReport = &report
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Reloader) run(ctx context.Context, queries []string, maxPerQuery int) (*ReloadResult, BuildReport, error) {
	facts, report, err := r.builder.Build(ctx, queries, maxPerQuery)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, report, fmt.Errorf("%w after %s: %v", ErrIngestionTimeout, r.opts.Timeout, err)
		}
		return nil, report, fmt.Errorf("%w: %v", ErrIngestionFailed, err)
	}

	// 空的世代不發布，保留先前的世代
	if len(facts) == 0 {
		return nil, report, fmt.Errorf("%w: no facts produced (%d of %d queries failed)",
			ErrIngestionFailed, len(report.FailedQueries), report.Queries)
	}

	generatedAt := r.now().UTC()
	if err := r.publisher.Publish(facts, generatedAt); err != nil {
		return nil, report, fmt.Errorf("%w: %v", ErrIngestionFailed, err)
	}

	store := r.catalog.Reload()
	return &ReloadResult{
		Report:      report,
		GeneratedAt: generatedAt,
		TotalFoods:  store.Len(),
		Source:      store.Source,
	}, report, nil
}

func (r *Reloader) setStatus(fn func(*ReloadStatus)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&r.status)
}

// Status 目前的重建狀態
func (r *Reloader) Status() ReloadStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.status
	s.Runs = r.runs.Load()
	s.Failures = r.failures.Load()
	return s
}
