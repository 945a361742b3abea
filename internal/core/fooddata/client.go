// Package fooddata 封裝 USDA FoodData Central 的搜尋與詳細資料查詢。
package fooddata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"nutribot/internal/infrastructure/config"
	"nutribot/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const serviceName = "fooddata"

var (
	// ErrNotFound 查無此食物
	ErrNotFound = errors.New("food not found")
	// ErrUnavailable 外部服務暫時不可用（熔斷中或持續失敗）
	ErrUnavailable = errors.New("fooddata unavailable")
)

// Observer 接收外部呼叫的結果，供指標使用
type Observer interface {
	ObserveUpstream(service, operation string, duration time.Duration, err error)
}

// Client FoodData Central 客戶端
type Client struct {
	http     *resty.Client
	apiKey   string
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker[[]byte]
	observer Observer
}

// NewClient 創建 FoodData Central 客戶端
func NewClient(cfg config.FDCConfig, observer Observer) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			// 只重試傳輸錯誤、429 與 5xx
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		})

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	c := &Client{
		http:     client,
		apiKey:   cfg.APIKey,
		limiter:  rate.NewLimiter(limit, burst),
		observer: observer,
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        serviceName,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			// 查無資料與呼叫端取消不算服務失敗
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			common.LogWarn("熔斷器狀態變更",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return c
}

// Search 依名稱搜尋食物，最多回傳 pageSize 筆
func (c *Client) Search(ctx context.Context, query string, pageSize int) ([]RawFood, error) {
	if pageSize <= 0 {
		pageSize = 1
	}

	body, err := c.do(ctx, "search", "/foods/search", map[string]string{
		"query":    query,
		"pageSize": strconv.Itoa(pageSize),
	})
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	foods := make([]RawFood, 0, len(result.Foods))
	for _, f := range result.Foods {
		if len(foods) >= pageSize {
			break
		}
		foods = append(foods, f.toRawFood())
	}
	return foods, nil
}

// Details 取得單一食物的詳細營養資料
func (c *Client) Details(ctx context.Context, fdcID int64) (*FoodDetails, error) {
	if fdcID <= 0 {
		return nil, fmt.Errorf("invalid fdc id %d: %w", fdcID, ErrNotFound)
	}

	body, err := c.do(ctx, "details", "/food/"+strconv.FormatInt(fdcID, 10), nil)
	if err != nil {
		return nil, fmt.Errorf("details %d: %w", fdcID, err)
	}

	var result detailResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse details response: %w", err)
	}
	return result.toDetails(), nil
}

// do 經過限流與熔斷後送出 GET 請求
func (c *Client) do(ctx context.Context, operation, path string, params map[string]string) (body []byte, err error) {
	start := time.Now()
	defer func() {
		common.LogUpstreamCall(serviceName, operation, time.Since(start), err)
		if c.observer != nil {
			c.observer.ObserveUpstream(serviceName, operation, time.Since(start), err)
		}
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err = c.breaker.Execute(func() ([]byte, error) {
		req := c.http.R().
			SetContext(ctx).
			SetQueryParam("api_key", c.apiKey)
		if len(params) > 0 {
			req.SetQueryParams(params)
		}

		resp, err := req.Get(path)
		if err != nil {
			return nil, fmt.Errorf("failed to send request to FoodData Central: %w", err)
		}

		switch {
		case resp.StatusCode() == http.StatusNotFound:
			return nil, ErrNotFound
		case resp.StatusCode() != http.StatusOK:
			return nil, fmt.Errorf("FoodData Central returned status %d", resp.StatusCode())
		}
		return resp.Body(), nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return body, err
}
