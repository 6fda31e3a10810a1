package middleware

import (
	"github.com/gin-gonic/gin"

	"memchat/internal/pkg/ctxutil"
	"memchat/internal/pkg/id"
)

// RequestID 请求 ID 中间件
// 透传上游的 X-Request-ID，没有则生成新的，并注入到 request context
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = id.New()
		}

		c.Set("request_id", requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Request = c.Request.WithContext(ctxutil.WithRequestID(c.Request.Context(), requestID))

		c.Next()
	}
}
