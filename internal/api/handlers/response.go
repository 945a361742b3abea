// Package handlers 提供各路由處理器共用的回應工具。
package handlers

import (
	"nutribot/internal/infrastructure/config"
	"nutribot/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// debugMode 從 context 中的設定判斷是否輸出錯誤細節
func debugMode(c *gin.Context) bool {
	v, ok := c.Get("config")
	if !ok {
		return false
	}
	cfg, ok := v.(*config.Config)
	return ok && cfg.App.Debug
}

// RespondError 以 CustomError 的狀態碼與代碼回應；非 CustomError 視為內部錯誤
func RespondError(c *gin.Context, err error) {
	ce := common.AsCustomError(err)
	fields := []zap.Field{
		zap.String("code", ce.Code),
		zap.Int("status", ce.Status),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", requestid.Get(c)),
		zap.Error(err),
	}
	if ce.Status >= 500 {
		common.LogError("請求處理失敗", fields...)
	} else {
		common.LogDebug("請求被拒絕", fields...)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(ce.Status, ce.Response(debugMode(c)))
}
