package middleware

import (
	"net/http"
	"time"

	"chessroom/internal/limiter"

	"github.com/gin-gonic/gin"
)

// LocalRateLimit allows at most maxRequests per client IP in any sliding
// window. Used when Redis is not configured.
func LocalRateLimit(sw *limiter.SlidingWindow, name string, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !sw.Allow(name+":"+c.ClientIP(), maxRequests, window) {
			RLBlocked.WithLabelValues(name, "local").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		RLRequests.WithLabelValues(name, "local").Inc()
		c.Next()
	}
}
