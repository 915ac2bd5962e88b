package middleware

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/streamcall/errors"
	"github.com/kbukum/streamcall/resilience"
)

// RateLimit rejects calls with 429 once rl has no tokens left. Each call
// costs one token however long its stream runs.
func RateLimit(rl *resilience.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.Allow() {
			c.Next()
			return
		}
		if wait := rl.Delay(); wait > 0 {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		}
		appErr := apperrors.RateLimited()
		c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
	}
}
