package sensors

import (
	"math"
	"net/http"
	"strings"
	"time"

	"nutribot/internal/api/handlers"
	"nutribot/internal/core/sensor"
	"nutribot/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SensorRequest 感測器上傳資料；數值接受小數，儲存時四捨五入
type SensorRequest struct {
	UserID      string  `json:"user_id" binding:"required"`
	OxygenLevel float64 `json:"oxygen_level"`
	Temperature float64 `json:"temperature"`
	HeartRate   float64 `json:"heart_rate"`
}

// Handler 感測器資料處理器
type Handler struct {
	store sensor.Store
	now   func() time.Time
}

// NewHandler 創建感測器資料處理器
func NewHandler(store sensor.Store) *Handler {
	return &Handler{store: store, now: time.Now}
}

// HandleIngest 保存使用者最新的感測器讀值，覆蓋先前的值
func (h *Handler) HandleIngest(c *gin.Context) {
	var req SensorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondError(c, common.ErrInvalidRequest.Wrap(err))
		return
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		handlers.RespondError(c, common.ErrInvalidRequest.Wrap(sensor.ErrInvalidSnapshot))
		return
	}

	snapshot := sensor.Snapshot{
		UserID:      userID,
		OxygenLevel: int(math.Round(req.OxygenLevel)),
		Temperature: int(math.Round(req.Temperature)),
		HeartRate:   int(math.Round(req.HeartRate)),
		ReceivedAt:  h.now().UTC(),
	}
	if err := h.store.Put(c.Request.Context(), snapshot); err != nil {
		handlers.RespondError(c, common.ErrServiceUnavailable.Wrap(err))
		return
	}

	common.LogInfo("感測器資料已更新",
		zap.String("user_id", userID),
		zap.Int("oxygen_level", snapshot.OxygenLevel),
		zap.Int("temperature", snapshot.Temperature),
		zap.Int("heart_rate", snapshot.HeartRate),
	)

	c.JSON(http.StatusOK, gin.H{
		"status": "Sensor data received",
		"user":   userID,
	})
}
