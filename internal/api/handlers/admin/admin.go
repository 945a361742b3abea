package admin

import (
	"context"
	"errors"
	"io"
	"net/http"

	"nutribot/internal/api/handlers"
	"nutribot/internal/core/knowledge"
	"nutribot/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Reloader 知識庫重建
type Reloader interface {
	Run(ctx context.Context, req knowledge.ReloadRequest) (*knowledge.ReloadResult, error)
	Status() knowledge.ReloadStatus
}

// FactSource 提供目前載入的知識庫
type FactSource interface {
	Current() knowledge.FactStore
}

// Handler 管理端處理器
type Handler struct {
	reloader Reloader
	catalog  FactSource
}

// NewHandler 創建管理端處理器
func NewHandler(reloader Reloader, catalog FactSource) *Handler {
	return &Handler{reloader: reloader, catalog: catalog}
}

// HandleReload 重建知識庫；進行中 409，逾時 504，其餘失敗 500，失敗時保留先前的世代
func (h *Handler) HandleReload(c *gin.Context) {
	var req knowledge.ReloadRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		handlers.RespondError(c, common.ErrInvalidRequest.Wrap(err))
		return
	}

	common.LogInfo("開始重建知識庫",
		zap.Int("queries", len(req.Queries)),
		zap.Int("max_per_query", req.MaxPerQuery),
	)

	// 用戶端斷線不應中斷重建
	result, err := h.reloader.Run(context.WithoutCancel(c.Request.Context()), req)
	switch {
	case errors.Is(err, knowledge.ErrReloadInProgress):
		handlers.RespondError(c, common.ErrReloadInProgress.Wrap(err))
		return
	case errors.Is(err, knowledge.ErrIngestionTimeout):
		handlers.RespondError(c, common.ErrIngestionTimeout.Wrap(err))
		return
	case err != nil:
		handlers.RespondError(c, common.ErrIngestionFailed.Wrap(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "reloaded",
		"result": result,
	})
}

// HandleStats 知識庫統計與最近一次重建狀態
func (h *Handler) HandleStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"stats":  knowledge.ComputeStats(h.catalog.Current()),
		"reload": h.reloader.Status(),
	})
}
