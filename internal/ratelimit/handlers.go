package ratelimit

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HandleRateLimitStatus reports the limits that apply to the caller
func (rl *RateLimiter) HandleRateLimitStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		backend := BackendMemory
		if rl.redisClient.IsEnabled() {
			backend = BackendRedis
		}

		c.JSON(http.StatusOK, gin.H{
			"ip":      c.ClientIP(),
			"backend": backend,
			"limits": gin.H{
				"ip_per_minute": gin.H{
					"limit":  rl.config.IPLimit,
					"burst":  rl.config.Burst,
					"period": "1 minute",
				},
			},
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}
