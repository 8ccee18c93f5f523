package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/viimsigame/terrain-server/internal/logging"
)

// RequestLogger присваивает каждому HTTP-запросу trace-ID и пишет
// одну итоговую строку по завершении обработки.
type RequestLogger struct {
	log *logging.Logger
}

func NewRequestLogger() *RequestLogger {
	return &RequestLogger{log: logging.GetAPILogger()}
}

func (rl *RequestLogger) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// trace-id берём из OpenTelemetry, если span уже создан
		span := trace.SpanFromContext(c.Request.Context())
		var traceID string
		if span.SpanContext().IsValid() {
			traceID = span.SpanContext().TraceID().String()
		} else {
			traceID = uuid.NewString()
		}
		c.Set("trace_id", traceID)

		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		status := c.Writer.Status()
		latency := time.Since(start)

		if status >= 500 {
			rl.log.Error("HTTP %s %s -> %d за %s ip=%s trace=%s",
				c.Request.Method, path, status, latency, c.ClientIP(), traceID)
			return
		}
		rl.log.Info("HTTP %s %s -> %d за %s trace=%s",
			c.Request.Method, path, status, latency, traceID)
	}
}
