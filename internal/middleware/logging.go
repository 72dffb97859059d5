package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/llm-drift/internal/logger"
)

// LoggingMiddleware 日志中间件
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", path,
			"query", query,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			args = append(args, "errors", c.Errors.String())
		}

		switch {
		case c.Writer.Status() >= 500:
			logger.Error("http request", args...)
		case c.Writer.Status() >= 400:
			logger.Warn("http request", args...)
		default:
			logger.Info("http request", args...)
		}
	}
}
