package api

import (
	"context"
	"errors"
	"fmt"

	"nutribot/internal/api/handlers/health"
	"nutribot/internal/core/cache"
	"nutribot/internal/core/fooddata"
	"nutribot/internal/core/intent"
	"nutribot/internal/core/knowledge"
	"nutribot/internal/core/matcher"
	"nutribot/internal/core/recommend"
	"nutribot/internal/core/sensor"
	"nutribot/internal/infrastructure/config"
	"nutribot/internal/infrastructure/metrics"
	"nutribot/internal/pkg/common"

	"go.uber.org/zap"
)

// Services 應用程式的服務組合，由 NewServices 依設定建立
type Services struct {
	Metrics       *metrics.Collector
	NutrientCache *cache.Manager[*fooddata.FoodDetails]
	FDC           *fooddata.Client
	Lookup        *fooddata.Lookup
	Store         *knowledge.FileStore
	Catalog       *knowledge.Catalog
	Reloader      *knowledge.Reloader
	Sensors       sensor.Store
	Recommender   *recommend.Recommender
	Dispatcher    *recommend.Dispatcher

	pingers map[string]health.Pinger
	closers []func() error
}

// NewServices 建立所有服務
func NewServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	s := &Services{
		Metrics: metrics.NewCollector(),
		pingers: make(map[string]health.Pinger),
	}

	// 營養資料快取
	s.NutrientCache = cache.NewManager[*fooddata.FoodDetails]("nutrients", cfg.Cache)
	if s.NutrientCache != nil {
		s.Metrics.RegisterCache("nutrients", s.NutrientCache.GetStats)
		s.closers = append(s.closers, s.NutrientCache.Close)
	}

	// FoodData Central
	s.FDC = fooddata.NewClient(cfg.FDC, s.Metrics)
	s.Lookup = fooddata.NewLookup(s.FDC, s.NutrientCache)

	// 知識庫
	s.Store = knowledge.NewFileStore(cfg.Knowledge.DataDir, cfg.Knowledge.StaticFile)
	s.Catalog = knowledge.NewCatalog(s.Store)
	s.Metrics.RegisterCatalogSize(func() int { return s.Catalog.Current().Len() })

	queries := cfg.Ingestion.Queries
	if len(queries) == 0 {
		queries = knowledge.DefaultQueries()
	}
	s.Reloader = knowledge.NewReloader(
		knowledge.NewBuilder(s.FDC, cfg.Ingestion.Workers),
		s.Store,
		s.Catalog,
		knowledge.ReloaderOptions{
			Timeout:     cfg.Ingestion.Timeout,
			MaxPerQuery: cfg.Ingestion.MaxPerQuery,
			Queries:     queries,
			Observer:    s.Metrics,
		},
	)

	// 感測器資料
	switch cfg.Sensor.Backend {
	case "redis":
		rs, err := sensor.NewRedisStore(ctx, cfg.Sensor)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("failed to initialize sensor store: %w", err)
		}
		s.Sensors = rs
		s.pingers["redis"] = rs
		s.closers = append(s.closers, rs.Close)
	default:
		s.Sensors = sensor.NewMemoryStore()
	}

	// 推薦
	m := matcher.New(matcher.Thresholds{
		Quick:  0,
		Medium: cfg.Matching.MediumMinutes,
		Long:   cfg.Matching.LongMinutes,
	})
	s.Recommender = recommend.NewRecommender(s.Catalog, s.Sensors, m, recommend.NewComposer(s.Catalog, s.Lookup), recommend.RecommenderOptions{
		Thresholds: sensor.Thresholds{
			LowOxygenBelow: cfg.Sensor.LowOxygenBelow,
			ColdBelow:      cfg.Sensor.ColdBelow,
			WarmBelow:      cfg.Sensor.WarmBelow,
		},
		DefaultMaxTime: cfg.Matching.DefaultMaxTime,
		Limit:          cfg.Matching.Limit,
	})

	// 意圖分類：OpenRouter 優先，關鍵字保底
	var strategies []intent.Strategy
	if cfg.OpenRouter.Enabled {
		strategies = append(strategies, intent.NewOpenRouterClassifier(cfg.OpenRouter, cfg.App.Name, s.Metrics))
	}
	s.Dispatcher = recommend.NewDispatcher(intent.NewChain(strategies...), s.Recommender, s.Metrics)

	common.LogInfo("服務初始化完成",
		zap.String("sensor_backend", cfg.Sensor.Backend),
		zap.Bool("cache_enabled", s.NutrientCache != nil),
		zap.Bool("openrouter_enabled", cfg.OpenRouter.Enabled),
		zap.String("catalog_source", string(s.Catalog.Current().Source)),
		zap.Int("catalog_foods", s.Catalog.Current().Len()),
	)
	return s, nil
}

// Close 釋放背景資源
func (s *Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
