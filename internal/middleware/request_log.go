package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/logger"
)

// RequestLog logs one line per request with method, path, status and
// latency.
func RequestLog(log *logger.Logger) gin.HandlerFunc {
	requestLog := log.With("middleware", "RequestLog")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}
		if c.Writer.Status() >= 500 {
			requestLog.Error("Request failed", fields...)
			return
		}
		requestLog.Info("Request handled", fields...)
	}
}
