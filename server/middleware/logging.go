package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/streamcall/logger"
)

// RequestLogger logs every request with method, path, status and duration
// once the handler returns, which for streamed replies is after the last
// value. Health-check paths are skipped.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isHealthEndpoint(c.Request.URL.Path) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := logger.DurationFields(c.FullPath(), time.Since(start))
		fields[logger.FieldMethod] = c.Request.Method
		fields[logger.FieldPath] = c.Request.URL.Path
		fields[logger.FieldStatus] = status
		fields[logger.FieldBytes] = max(c.Writer.Size(), 0)
		if id := c.GetString(logger.FieldRequestID); id != "" {
			fields[logger.FieldRequestID] = id
		}
		if len(c.Errors) > 0 {
			fields[logger.FieldError] = c.Errors.String()
		}
		logByStatus(log, fields, status)
	}
}

func isHealthEndpoint(path string) bool {
	for _, hp := range []string{"/health", "/alive", "/metrics"} {
		if path == hp || strings.HasSuffix(path, "/api"+hp) {
			return true
		}
	}
	return false
}

// logByStatus logs request fields at a level matching the status code.
func logByStatus(log *logger.Logger, fields map[string]any, status int) {
	switch {
	case status >= 500:
		log.Error("request completed", fields)
	case status >= 400:
		log.Warn("request completed", fields)
	default:
		log.Debug("request completed", fields)
	}
}
