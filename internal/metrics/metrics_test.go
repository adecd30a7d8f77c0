package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInitRegistersCollectors(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	// Init must be idempotent.
	if err := Init(); err != nil {
		t.Fatalf("second Init failed: %v", err)
	}

	HAStatus.Set(3)
	if got := testutil.ToFloat64(HAStatus); got != 3 {
		t.Fatalf("HAStatus = %v, want 3", got)
	}

	HATicksTotal.WithLabelValues("ok").Inc()
	if got := testutil.ToFloat64(HATicksTotal.WithLabelValues("ok")); got != 1 {
		t.Fatalf("HATicksTotal{ok} = %v, want 1", got)
	}

	count, err := testutil.GatherAndCount(Registry,
		"haven_ha_status", "haven_ha_ticks_total", "haven_db_queries_total")
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if count == 0 {
		t.Fatal("expected registered HA metrics to be gatherable")
	}
}
