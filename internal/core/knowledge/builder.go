package knowledge

import (
	"context"
	"sync"
	"time"

	"nutribot/internal/core/fooddata"
	"nutribot/internal/pkg/common"

	"go.uber.org/zap"
)

// DefaultMaxPerQuery 每個查詢預設取回的結果數
const DefaultMaxPerQuery = 3

// Searcher 外部食物搜尋服務
type Searcher interface {
	Search(ctx context.Context, query string, pageSize int) ([]fooddata.RawFood, error)
}

// BuildReport 單次重建的統計
type BuildReport struct {
	Queries       int           `json:"queries"`
	FailedQueries []string      `json:"failed_queries,omitempty"`
	Dropped       int           `json:"dropped"`
	Duplicates    int           `json:"duplicates"`
	Total         int           `json:"total"`
	Duration      time.Duration `json:"duration"`
}

// Builder 將查詢清單轉為完整的 dynamic 世代
type Builder struct {
	searcher Searcher
	workers  int
}

// NewBuilder 創建知識庫建構器
func NewBuilder(searcher Searcher, workers int) *Builder {
	if workers <= 0 {
		workers = 1
	}
	return &Builder{searcher: searcher, workers: workers}
}

// queryResult 單一查詢的結果
type queryResult struct {
	foods []fooddata.RawFood
	err   error
}

// Build 以有限的 worker 並行搜尋，結果依查詢順序組裝。
// 單一查詢失敗只記錄在報告中；context 取消或逾時則整批中止並回傳 ctx.Err()。
func (b *Builder) Build(ctx context.Context, queries []string, maxPerQuery int) ([]FoodFact, BuildReport, error) {
	start := time.Now()
	if maxPerQuery <= 0 {
		maxPerQuery = DefaultMaxPerQuery
	}
	report := BuildReport{Queries: len(queries)}

	common.LogInfo("開始建立知識庫",
		zap.Int("queries", len(queries)),
		zap.Int("max_per_query", maxPerQuery),
		zap.Int("workers", b.workers),
	)

	results := make([]queryResult, len(queries))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < b.workers && w < len(queries); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				foods, err := b.searcher.Search(ctx, queries[i], maxPerQuery)
				results[i] = queryResult{foods: foods, err: err}
			}
		}()
	}

	// 派發工作，context 結束時停止派發
dispatch:
	for i := range queries {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		report.Duration = time.Since(start)
		common.LogWarn("知識庫建立中止", zap.Error(err), zap.Duration("耗時", report.Duration))
		return nil, report, err
	}

	facts := make([]FoodFact, 0, len(queries)*maxPerQuery)
	positions := make(map[string]int)

	for i, res := range results {
		if res.err != nil {
			report.FailedQueries = append(report.FailedQueries, queries[i])
			common.LogWarn("查詢失敗，略過", zap.String("query", queries[i]), zap.Error(res.err))
			continue
		}

		for _, raw := range res.foods {
			if raw.IsError() {
				report.Dropped++
				continue
			}
			fact := NewFact(raw)
			if !fact.Valid() {
				report.Dropped++
				common.LogDebug("無法處理的食物，略過", zap.String("name", raw.DisplayName))
				continue
			}

			// 相同識別碼保留第一次出現的位置，內容以後者為準
			if pos, ok := positions[fact.Identifier]; ok {
				facts[pos] = fact
				report.Duplicates++
				continue
			}
			positions[fact.Identifier] = len(facts)
			facts = append(facts, fact)
		}
	}

	report.Total = len(facts)
	report.Duration = time.Since(start)

	common.LogInfo("知識庫建立完成",
		zap.Int("total", report.Total),
		zap.Int("failed_queries", len(report.FailedQueries)),
		zap.Int("dropped", report.Dropped),
		zap.Int("duplicates", report.Duplicates),
		zap.Duration("耗時", report.Duration),
	)
	return facts, report, nil
}
