package api

import (
	"context"
	"net/http"
	"time"

	"nutribot/internal/api/handlers/admin"
	"nutribot/internal/api/handlers/chat"
	"nutribot/internal/api/handlers/food"
	"nutribot/internal/api/handlers/health"
	"nutribot/internal/api/handlers/sensors"
	"nutribot/internal/api/middleware"
	"nutribot/internal/infrastructure/config"
	"nutribot/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// 超時設置，需大於知識庫重建的上限
	timeoutDuration = 90 * time.Second
	// 預設請求體大小限制 (1MB)
	defaultMaxBodySize = 1 << 20
)

// SetupRouter 設置路由；回傳的 cleanup 需在關閉時呼叫
func SetupRouter(cfg *config.Config, svc *Services) (*gin.Engine, func()) {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(requestid.New()) // 自動生成請求 ID
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	if cfg.Metrics.Enabled {
		router.Use(svc.Metrics.Middleware())
	}

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))

	// 請求體大小限制
	maxBody := cfg.Server.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodySize
	}
	router.Use(middleware.BodySizeLimit(maxBody))

	// 限流與去重
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	dedup := middleware.NewDeduplicator(cfg.DedupWindow)
	router.Use(dedup.Middleware())

	// 全局中間件：設置超時和配置
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Set("config", cfg)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestid.Get(c)),
				zap.Duration("timeout", timeoutDuration),
			)
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, common.ErrGatewayTimeout.Response(false))
		}
	})

	// 健康檢查路由
	healthHandler := health.NewHandler(cfg.App.Version, svc.Catalog, svc.pingers)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, svc.Metrics.Handler())
	}

	// 感測器與推薦
	chatHandler := chat.NewHandler(svc.Recommender, svc.Dispatcher)
	router.POST("/sensors", sensors.NewHandler(svc.Sensors).HandleIngest)
	router.GET("/recommend_food/:user_id", chatHandler.HandleRecommendFood)

	api := router.Group("/api")
	{
		api.POST("/chat", chatHandler.HandleChat)
		api.GET("/food/:fdc_id", food.NewHandler(svc.Lookup).HandleFoodDetails)
	}

	// 管理端
	adminHandler := admin.NewHandler(svc.Reloader, svc.Catalog)
	adminGroup := router.Group("/admin")
	{
		adminGroup.POST("/reload-foods", adminHandler.HandleReload)
		adminGroup.GET("/food-stats", adminHandler.HandleStats)
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("metrics_enabled", cfg.Metrics.Enabled),
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
		zap.Duration("dedup_window", cfg.DedupWindow),
		zap.Int64("max_body_size", maxBody),
	)

	return router, dedup.Close
}
