package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/streamcall/errors"
	"github.com/kbukum/streamcall/logger"
)

// Recovery recovers from panics, logs the stack and replies with an
// internal error. http.ErrAbortHandler is re-raised so a handler can still
// abort a response that is already streaming.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}
			log.Error("panic recovered", map[string]interface{}{
				logger.FieldError:  fmt.Sprintf("%v", rec),
				"stack":            string(debug.Stack()),
				"path":             c.Request.URL.Path,
				logger.FieldMethod: c.Request.Method,
				"client_ip":        c.ClientIP(),
			})
			if c.Writer.Written() {
				c.Abort()
				return
			}
			appErr := apperrors.Internal(fmt.Errorf("panic: %v", rec))
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
		}()
		c.Next()
	}
}
