package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fleetdesk/contracts/pkg/logger"
)

// RequestLogger writes one access line per request once the handler chain has run.
// Request id and actor come from the request context, which RequestID and
// AuthMiddleware populate further down the chain.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		rawQuery := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"status", status,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"latency_ms", time.Since(start).Milliseconds(),
			"bytes", c.Writer.Size(),
			"client_ip", c.ClientIP(),
		}
		if route := c.FullPath(); route != "" {
			attrs = append(attrs, "route", route)
		}
		if rawQuery != "" {
			attrs = append(attrs, "query", rawQuery)
		}

		ctx := c.Request.Context()
		if _, ok := ctx.Value(logger.TenantKey).(string); !ok {
			if tenant := GetTenant(c); tenant != "" {
				attrs = append(attrs, "tenant", tenant, "user_id", c.GetString("user_id"))
			}
		}

		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		} else if status >= 400 {
			level = slog.LevelWarn
		}
		logger.WithContext(ctx).Log(ctx, level, "request completed", attrs...)
	}
}
