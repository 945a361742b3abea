package chat

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"nutribot/internal/api/handlers"
	"nutribot/internal/core/recommend"
	"nutribot/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 聊天與直接推薦處理器
type Handler struct {
	recommender *recommend.Recommender
	dispatcher  *recommend.Dispatcher
}

// NewHandler 創建處理器
func NewHandler(recommender *recommend.Recommender, dispatcher *recommend.Dispatcher) *Handler {
	return &Handler{recommender: recommender, dispatcher: dispatcher}
}

// HandleChat 分類訊息並回覆；分類或推薦失敗時仍回傳可顯示的訊息
func (h *Handler) HandleChat(c *gin.Context) {
	var req recommend.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondError(c, common.ErrInvalidRequest.Wrap(err))
		return
	}

	resp := h.dispatcher.Handle(c.Request.Context(), req)
	c.JSON(http.StatusOK, resp)
}

// HandleRecommendFood 依使用者最新的感測資料直接推薦
func (h *Handler) HandleRecommendFood(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("user_id"))
	maxTime := parseMaxTime(c.Query("max_time"))

	result, err := h.recommender.ForUser(c.Request.Context(), userID, maxTime)
	switch {
	case errors.Is(err, recommend.ErrSensorDataMissing):
		handlers.RespondError(c, common.ErrSensorDataMissing.Wrap(err))
		return
	case err != nil:
		handlers.RespondError(c, common.ErrServiceUnavailable.Wrap(err))
		return
	}

	common.LogInfo("推薦完成",
		zap.String("user_id", userID),
		zap.String("weather", string(result.Weather)),
		zap.String("state", string(result.State)),
		zap.Int("max_time", result.MaxTime),
		zap.Int("count", len(result.Recommendations)),
	)
	c.JSON(http.StatusOK, result)
}

// parseMaxTime 無法解析或非正數時回傳 0，由推薦器套用預設值
func parseMaxTime(raw string) int {
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v <= 0 {
		common.LogDebug("max_time 無效，使用預設值", zap.String("max_time", raw))
		return 0
	}
	return v
}
