package web

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDKey = "request_id"

// requestIDMiddleware 为每个请求分配短请求ID，贯穿日志和访问记录
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()[:8]
		}
		c.Set(requestIDKey, requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// requestID 取当前请求的请求ID
func requestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// ginLoggerMiddleware 把gin访问日志桥接到slog
func ginLoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		// 静态资源不落访问日志
		if len(path) >= 8 && path[:8] == "/static/" {
			return
		}

		duration := time.Since(start)
		status := c.Writer.Status()

		msg := fmt.Sprintf("🌐 [Web请求] [%s] %s %s - %d", requestID(c), c.Request.Method, path, status)
		attrs := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration", duration.String(),
			"client_ip", c.ClientIP(),
		}

		if status >= 500 {
			logger.Error(msg, attrs...)
		} else if status >= 400 {
			logger.Warn(msg, attrs...)
		} else {
			logger.Debug(msg, attrs...)
		}
	}
}
