// Package api provides the observability REST API for the Haven server.
//
// The API is read-only: it exposes cluster state, health probes and
// Prometheus metrics. Mutations go through the HA manager's local
// message service only.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"haven.io/server/internal/api/handlers"
	"haven.io/server/internal/api/middleware"
	"haven.io/server/internal/ha"
	"haven.io/server/internal/metrics"
)

// RouterConfig holds configuration for setting up the HTTP router.
type RouterConfig struct {
	// Logger is the Zap logger for request logging.
	Logger *zap.Logger

	// HAClient provides the cluster state the API exposes.
	HAClient *ha.Client
}

// SetupRouter creates and configures the Gin HTTP router.
//
// This function sets up:
// - Global middleware (recovery, metrics, logging, rate limiting)
// - Health check endpoints
// - HA state endpoints
// - The Prometheus metrics endpoint
//
// Parameters:
//   - config: Router configuration
//
// Returns:
//   - Configured Gin engine ready to serve requests
func SetupRouter(config *RouterConfig) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(config.Logger))
	router.Use(middleware.RateLimitByIP(50.0, 100))

	healthHandler := handlers.NewHealthHandler(config.HAClient)
	router.GET("/healthz", healthHandler.Liveness)
	router.GET("/readyz", healthHandler.Readiness)

	haHandler := handlers.NewHAHandler(config.HAClient)
	v1 := router.Group("/api/v1")
	{
		v1.GET("/ha/status", haHandler.Status)
		v1.GET("/ha/nodes", haHandler.Nodes)
	}

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	return router
}
