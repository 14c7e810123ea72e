package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GinMiddleware returns a gin middleware that attaches a trace ID to each
// request's context and logs the request once it completes.
//
// An incoming X-Trace-ID header is honored so traces can span callers;
// otherwise a new UUID is generated. The trace ID is echoed back in the
// response header.
func GinMiddleware(l *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		traceID := c.GetHeader("X-Trace-ID")
		if traceID == "" {
			traceID = NewTraceID()
		}
		c.Request = c.Request.WithContext(WithTraceID(c.Request.Context(), traceID))
		c.Header("X-Trace-ID", traceID)

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
			l.ErrorContext(c.Request.Context(), "request failed", fields...)
			return
		}
		l.InfoContext(c.Request.Context(), "request completed", fields...)
	}
}
