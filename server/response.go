package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/streamcall/errors"
	"github.com/kbukum/streamcall/stream"
)

// RespondWithError replies with the status and body of err's AppError, or
// a generic 500.
func RespondWithError(c *gin.Context, err error) {
	appErr := apperrors.Wrap(err)
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}

// RespondValue replies with v formatted the way a streamed route formats
// one value. A nil value replies 204.
func RespondValue(c *gin.Context, v any) {
	s, ok, err := stream.Format(v)
	if err != nil {
		RespondWithError(c, apperrors.Internal(err))
		return
	}
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.Data(http.StatusOK, contentType(v), []byte(s))
}

func notFound(c *gin.Context) error {
	return apperrors.NotFound("route " + c.Request.URL.Path)
}

func methodNotAllowed(c *gin.Context) error {
	return apperrors.MethodNotAllowed(c.Request.Method, c.Request.URL.Path)
}
