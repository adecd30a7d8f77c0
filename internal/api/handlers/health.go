// Package handlers implements the HTTP handlers for the Haven
// observability API.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"haven.io/server/internal/ha"
	"haven.io/server/internal/registry"
)

// HealthHandler provides liveness and readiness probes for load
// balancers and orchestrators.
type HealthHandler struct {
	client *ha.Client
}

// NewHealthHandler creates a new health check handler.
func NewHealthHandler(client *ha.Client) *HealthHandler {
	return &HealthHandler{client: client}
}

// Liveness reports that the process is running.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness reports whether this node currently holds the active role.
// Standby nodes answer 503 so traffic is directed at the active node.
func (h *HealthHandler) Readiness(c *gin.Context) {
	status := h.client.Status()

	code := http.StatusServiceUnavailable
	if status == registry.StatusActive {
		code = http.StatusOK
	}

	c.JSON(code, gin.H{"ha_status": status.String()})
}
