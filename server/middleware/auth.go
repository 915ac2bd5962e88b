package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/streamcall/errors"
)

// AuthConfig configures bearer token authentication.
type AuthConfig struct {
	// Tokens are the accepted bearer tokens.
	Tokens []string
	// SkipPaths are URL path prefixes that bypass authentication.
	SkipPaths []string
}

// BearerAuth rejects requests without one of the configured bearer tokens.
func BearerAuth(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if strings.HasPrefix(path, skip) {
				c.Next()
				return
			}
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c, "authorization header required")
			return
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}
		for _, want := range cfg.Tokens {
			if subtle.ConstantTimeCompare([]byte(token), []byte(want)) == 1 {
				c.Next()
				return
			}
		}
		abortUnauthorized(c, "invalid token")
	}
}

func abortUnauthorized(c *gin.Context, reason string) {
	appErr := apperrors.Unauthorized(reason)
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}
