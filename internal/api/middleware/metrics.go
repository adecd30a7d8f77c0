package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"haven.io/server/internal/metrics"
)

// MetricsMiddleware creates a middleware that collects Prometheus
// metrics for HTTP requests: request count by method, path and status,
// and request duration.
//
// The middleware should be added early in the middleware chain so all
// requests are counted.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path // Fallback for unmatched routes
		}
		status := strconv.Itoa(c.Writer.Status())

		metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
