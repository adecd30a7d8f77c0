package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"haven.io/server/internal/ha"
)

// HAHandler exposes the HA cluster state.
type HAHandler struct {
	client *ha.Client
}

// NewHAHandler creates a new HA state handler.
func NewHAHandler(client *ha.Client) *HAHandler {
	return &HAHandler{client: client}
}

// Status returns this node's current role and the failover delay.
func (h *HAHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ha_status":      h.client.Status().String(),
		"failover_delay": h.client.FailoverDelay(),
		"cluster":        h.client.IsCluster(),
	})
}

// Nodes returns the full node registry as reported by the HA manager.
func (h *HAHandler) Nodes(c *gin.Context) {
	raw, err := h.client.GetNodes()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	c.Data(http.StatusOK, "application/json", []byte(raw))
}
