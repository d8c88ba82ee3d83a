package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/motorlane/motorlane/internal/actorcontext"
)

// GinMiddleware emits one structured access log line per request.
func GinMiddleware(log *zap.Logger) gin.HandlerFunc {
	access := log.Named("http.access")

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if query != "" {
			fields = append(fields, zap.String("query", query))
		}
		if requestID := actorcontext.RequestID(c.Request.Context()); requestID != "" {
			fields = append(fields, zap.String("request_id", requestID))
		}
		if actorID, ok := actorcontext.ActorID(c.Request.Context()); ok {
			fields = append(fields, zap.Int64("actor_id", actorID.Int64()))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case c.Writer.Status() >= 500:
			access.Error("request", fields...)
		case c.Writer.Status() >= 400:
			access.Warn("request", fields...)
		default:
			access.Info("request", fields...)
		}
	}
}
