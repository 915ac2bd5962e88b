package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/streamcall/logger"
)

// HeaderRequestID carries the request id.
const HeaderRequestID = "X-Request-Id"

// RequestID injects a unique X-Request-Id into every request and response
// and attaches it to the request context for logging.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
			c.Request.Header.Set(HeaderRequestID, id)
		}
		c.Set(logger.FieldRequestID, id)
		c.Header(HeaderRequestID, id)
		ctx := logger.IntoContext(c.Request.Context(), logger.Fields(logger.FieldRequestID, id))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
