package food

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"nutribot/internal/api/handlers"
	"nutribot/internal/core/fooddata"
	"nutribot/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

// DetailFetcher 依 FDC 編號取得詳細資料
type DetailFetcher interface {
	Details(ctx context.Context, fdcID int64) (*fooddata.FoodDetails, error)
}

// Handler 食物詳細資料處理器
type Handler struct {
	details DetailFetcher
}

// NewHandler 創建處理器
func NewHandler(details DetailFetcher) *Handler {
	return &Handler{details: details}
}

// HandleFoodDetails 轉發 FDC 詳細資料；外部服務失敗回 502
func (h *Handler) HandleFoodDetails(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("fdc_id"), 10, 64)
	if err != nil || id <= 0 {
		handlers.RespondError(c, common.ErrInvalidRequest.Wrap(errors.New("fdc_id must be a positive integer")))
		return
	}

	details, err := h.details.Details(c.Request.Context(), id)
	switch {
	case errors.Is(err, fooddata.ErrNotFound):
		handlers.RespondError(c, common.ErrNotFound.Wrap(err))
		return
	case err != nil:
		handlers.RespondError(c, common.ErrUpstreamUnavailable.Wrap(err))
		return
	}

	c.JSON(http.StatusOK, details)
}
