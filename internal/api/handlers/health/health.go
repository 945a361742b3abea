package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"nutribot/internal/core/knowledge"
	"nutribot/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger 可檢查連線的依賴（例如 Redis）
type Pinger interface {
	Ping(ctx context.Context) error
}

// FactSource 提供目前載入的知識庫
type FactSource interface {
	Current() knowledge.FactStore
}

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Catalog   CatalogStatus          `json:"catalog"`
}

// CatalogStatus 知識庫狀態
type CatalogStatus struct {
	Source     knowledge.Source `json:"source"`
	TotalFoods int              `json:"total_foods"`
}

// Handler 健康檢查處理器
type Handler struct {
	version string
	catalog FactSource
	pingers map[string]Pinger
}

// NewHandler 創建健康檢查處理器；pingers 為就緒檢查需確認的依賴
func NewHandler(version string, catalog FactSource, pingers map[string]Pinger) *Handler {
	return &Handler{version: version, catalog: catalog, pingers: pingers}
}

func (h *Handler) catalogStatus() CatalogStatus {
	store := h.catalog.Current()
	return CatalogStatus{Source: store.Source, TotalFoods: store.Len()}
}

// HealthCheck 健康檢查處理器
func (h *Handler) HealthCheck(c *gin.Context) {
	// 獲取運行時信息
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
		Catalog: h.catalogStatus(),
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查：所有依賴可連線才回報 ready。空知識庫仍可服務
func (h *Handler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.pingers))
	status, code := "ready", http.StatusOK
	for name, p := range h.pingers {
		if err := p.Ping(ctx); err != nil {
			common.LogWarn("依賴檢查失敗", zap.String("dependency", name), zap.Error(err))
			checks[name] = "unavailable"
			status, code = "not_ready", http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	c.JSON(code, gin.H{
		"status":  status,
		"checks":  checks,
		"catalog": h.catalogStatus(),
	})
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
