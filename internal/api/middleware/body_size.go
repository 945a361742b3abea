package middleware

import (
	"fmt"
	"net/http"

	"nutribot/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BodySizeLimit 限制感測器、聊天與管理端請求體的大小；無請求體的方法直接放行
func BodySizeLimit(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		if c.Request.ContentLength > maxSize {
			common.LogWarn("Request body too large",
				zap.Int64("content_length", c.Request.ContentLength),
				zap.Int64("max_size", maxSize),
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestid.Get(c)),
			)
			err := common.ErrPayloadTooLarge.Wrap(fmt.Errorf("content length %d exceeds %d bytes", c.Request.ContentLength, maxSize))
			c.AbortWithStatusJSON(err.Status, err.Response(false))
			return
		}

		// Content-Length 未知（chunked）時於讀取時截斷，綁定會失敗並回 400
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		}

		c.Next()
	}
}
