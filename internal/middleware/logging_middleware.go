package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/annel0/prefab-loader/internal/logging"
)

// TraceIDKey - ключ gin.Context и заголовок ответа с идентификатором запроса
const (
	TraceIDKey    = "trace_id"
	TraceIDHeader = "X-Trace-ID"
)

// RequestLogger снабжает каждый HTTP-запрос trace-ID и пишет краткие логи.
// Запросы к служебным путям пишутся на уровне Debug.
type RequestLogger struct {
	log   *logging.Logger
	quiet map[string]bool
}

func NewRequestLogger(quietPaths ...string) *RequestLogger {
	quiet := make(map[string]bool, len(quietPaths))
	for _, p := range quietPaths {
		quiet[p] = true
	}
	return &RequestLogger{log: logging.GetComponentLogger("http"), quiet: quiet}
}

func (rl *RequestLogger) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Пытаемся извлечь trace-id из OpenTelemetry, если уже создан.
		span := trace.SpanFromContext(c.Request.Context())
		var traceID string
		if span.SpanContext().IsValid() {
			traceID = span.SpanContext().TraceID().String()
		} else {
			traceID = uuid.NewString()
		}
		c.Set(TraceIDKey, traceID)
		c.Header(TraceIDHeader, traceID)

		start := time.Now()
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)

		logf := rl.log.Info
		if rl.quiet[path] {
			logf = rl.log.Debug
		}
		if status >= 500 {
			logf = rl.log.Error
		}
		logf("[HTTP] %s %s %d %s ip=%s size=%d trace=%s", method, path, status, latency, c.ClientIP(), c.Writer.Size(), traceID)
		for _, e := range c.Errors {
			rl.log.Warn("[HTTP] %s %s: %v trace=%s", method, path, e.Err, traceID)
		}
	}
}
