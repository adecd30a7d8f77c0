package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"haven.io/server/internal/metrics"
	"haven.io/server/internal/ratelimit"
)

// RateLimitByIP creates a middleware limiting requests per client IP.
//
// Parameters:
//   - perSecond: Sustained requests per second per IP
//   - burst: Burst size per IP
//
// Returns:
//   - Gin middleware handler function
func RateLimitByIP(perSecond float64, burst int) gin.HandlerFunc {
	limiter := ratelimit.NewLimiter(perSecond, burst)

	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			metrics.HTTPRateLimited.WithLabelValues(c.Request.URL.Path).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
