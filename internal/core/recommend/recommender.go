package recommend

import (
	"context"
	"fmt"

	"nutribot/internal/core/matcher"
	"nutribot/internal/core/sensor"
	"nutribot/internal/pkg/common"

	"go.uber.org/zap"
)

// RecommenderOptions 推薦器選項
type RecommenderOptions struct {
	Thresholds     sensor.Thresholds
	DefaultMaxTime int
	Limit          int
}

// Recommender 依使用者最新的感測資料推薦食物
type Recommender struct {
	facts    FactSource
	sensors  sensor.Store
	matcher  *matcher.Matcher
	composer *Composer
	opts     RecommenderOptions
}

// NewRecommender 創建推薦器
func NewRecommender(facts FactSource, sensors sensor.Store, m *matcher.Matcher, composer *Composer, opts RecommenderOptions) *Recommender {
	if opts.DefaultMaxTime <= 0 {
		opts.DefaultMaxTime = DefaultMaxTime
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.Thresholds == (sensor.Thresholds{}) {
		opts.Thresholds = sensor.DefaultThresholds
	}
	if m == nil {
		m = matcher.New(matcher.DefaultThresholds)
	}
	return &Recommender{facts: facts, sensors: sensors, matcher: m, composer: composer, opts: opts}
}

// ForUser 推薦給使用者；沒有感測資料時回傳 ErrSensorDataMissing。
// maxTime <= 0 時使用預設值。空結果不是錯誤。
func (r *Recommender) ForUser(ctx context.Context, userID string, maxTime int) (*Result, error) {
	if maxTime <= 0 {
		maxTime = r.opts.DefaultMaxTime
	}

	snap, ok, err := r.sensors.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read sensor data: %w", err)
	}
	if !ok {
		return nil, ErrSensorDataMissing
	}

	climate, state := sensor.Context(snap, r.opts.Thresholds)
	store := r.facts.Current()
	ids := r.matcher.Match(store, climate, state, maxTime)

	common.LogDebug("條件比對完成",
		zap.String("user_id", userID),
		zap.String("weather", string(climate)),
		zap.String("state", string(state)),
		zap.Int("max_time", maxTime),
		zap.Int("matches", len(ids)),
	)

	return &Result{
		UserID:          userID,
		Weather:         climate,
		State:           state,
		MaxTime:         maxTime,
		Source:          store.Source,
		Recommendations: r.composer.Compose(ctx, ids, r.opts.Limit),
	}, nil
}
