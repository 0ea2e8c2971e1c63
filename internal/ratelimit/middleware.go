package ratelimit

import (
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/ZanzyTHEbar/insurance-cost-estimator/internal/errors"
)

// IPRateLimitMiddleware rejects clients that exceed the per-IP limit
// with 429 and standard rate limit headers
func (rl *RateLimiter) IPRateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		result, err := rl.AllowIP(c.Request.Context(), ip)
		if err != nil {
			// fail open
			slog.Error("Rate limit check failed", "ip", ip, "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			if rl.metrics != nil {
				rl.metrics.IncrementRateLimitIPBlock(result.Backend)
			}

			retryAfter := int(result.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			apperrors.Abort(c, apperrors.NewRateLimitError(strconv.Itoa(retryAfter)+"s"))
			return
		}

		c.Next()
	}
}
