package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// DBQueryDuration measures registry query duration by operation.
	DBQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "haven_db_query_duration_seconds",
			Help: "Registry database query duration in seconds",
			// Buckets optimized for database queries: 100µs to 10s
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5, 10},
		},
		[]string{"operation"},
	)

	// DBQueriesTotal counts total registry queries by operation and status.
	DBQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "haven_db_queries_total",
			Help: "Total number of registry database queries",
		},
		[]string{"operation", "status"},
	)

	// DBReconnectsTotal counts registry reconnection attempts.
	DBReconnectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "haven_db_reconnects_total",
			Help: "Total number of registry database reconnection attempts",
		},
		[]string{"status"},
	)
)

// registerDatabaseMetrics registers all database-related metrics.
func registerDatabaseMetrics() error {
	metrics := []prometheus.Collector{
		DBQueryDuration,
		DBQueriesTotal,
		DBReconnectsTotal,
	}

	for _, metric := range metrics {
		if err := Registry.Register(metric); err != nil {
			return err
		}
	}

	return nil
}
