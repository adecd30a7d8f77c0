package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// HAStatus reports the current HA role of this node using the
	// registry status codes (0=standby, 1=stopped, 2=unavailable, 3=active).
	HAStatus = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "haven_ha_status",
			Help: "Current HA status of this node (0=standby, 1=stopped, 2=unavailable, 3=active)",
		},
	)

	// HAStatusTransitions counts HA status transitions by from/to status.
	HAStatusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "haven_ha_status_transitions_total",
			Help: "Total number of HA status transitions",
		},
		[]string{"from_status", "to_status"},
	)

	// HATicksTotal counts HA manager liveness ticks by outcome.
	HATicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "haven_ha_ticks_total",
			Help: "Total number of HA manager liveness ticks",
		},
		[]string{"outcome"},
	)

	// HATakeovers counts ownership claims over a stalled active peer.
	HATakeovers = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "haven_ha_takeovers_total",
			Help: "Total number of times this node claimed active from a stalled peer",
		},
	)

	// HADBConnected indicates whether the registry database is reachable.
	HADBConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "haven_ha_db_connected",
			Help: "Whether the registry database is currently reachable (1=connected)",
		},
	)

	// HANodesTotal tracks the number of rows in the node registry.
	HANodesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "haven_ha_nodes_total",
			Help: "Total number of nodes in the HA registry",
		},
	)

	// HALastHeartbeat tracks the timestamp of the last heartbeat sent to the parent.
	HALastHeartbeat = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "haven_ha_last_heartbeat_timestamp_seconds",
			Help: "Unix timestamp of the last heartbeat sent to the parent process",
		},
	)
)

// registerHAMetrics registers all HA-related metrics.
func registerHAMetrics() error {
	metrics := []prometheus.Collector{
		HAStatus,
		HAStatusTransitions,
		HATicksTotal,
		HATakeovers,
		HADBConnected,
		HANodesTotal,
		HALastHeartbeat,
	}

	for _, metric := range metrics {
		if err := Registry.Register(metric); err != nil {
			return err
		}
	}

	return nil
}
