package ha

import (
	"errors"
	"strings"
	"testing"

	"haven.io/server/internal/registry"
)

func node(id, name string, status registry.NodeStatus, lastAccess int64) registry.Node {
	return registry.Node{ID: id, Name: name, Status: status, LastAccess: lastAccess}
}

func TestIsLive(t *testing.T) {
	const dbTime, delay = 1000, 60

	tests := []struct {
		name string
		n    registry.Node
		want bool
	}{
		{name: "fresh active", n: node("a", "a", registry.StatusActive, 990), want: true},
		{name: "fresh standby", n: node("a", "a", registry.StatusStandby, 990), want: true},
		{name: "stale active", n: node("a", "a", registry.StatusActive, 940), want: false},
		{name: "boundary is stale", n: node("a", "a", registry.StatusActive, dbTime-delay), want: false},
		{name: "just inside", n: node("a", "a", registry.StatusActive, dbTime-delay+1), want: true},
		{name: "stopped never live", n: node("a", "a", registry.StatusStopped, dbTime), want: false},
		{name: "unavailable never live", n: node("a", "a", registry.StatusUnavailable, dbTime), want: false},
	}

	for _, tt := range tests {
		if got := isLive(tt.n, dbTime, delay); got != tt.want {
			t.Errorf("%s: isLive = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCheckStandaloneConfig(t *testing.T) {
	const dbTime, delay = 1000, 60

	// Empty registry: fine.
	if err := checkStandaloneConfig(nil, dbTime, delay); err != nil {
		t.Fatalf("empty registry: %v", err)
	}

	// Stale cluster rows do not block.
	nodes := []registry.Node{
		node("a", "a", registry.StatusActive, 900),
		node("b", "b", registry.StatusStopped, dbTime),
	}
	if err := checkStandaloneConfig(nodes, dbTime, delay); err != nil {
		t.Fatalf("stale cluster rows: %v", err)
	}

	// A live cluster node is fatal.
	nodes = append(nodes, node("c", "c", registry.StatusStandby, dbTime))
	err := checkStandaloneConfig(nodes, dbTime, delay)
	if err == nil {
		t.Fatal("expected error for live cluster node")
	}
	var fatal *FatalError
	if !errors.As(err, &fatal) {
		t.Fatalf("expected FatalError, got %T", err)
	}
	if !strings.Contains(err.Error(), `cannot change mode to standalone while HA node "c" is standby`) {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestCheckClusterConfig(t *testing.T) {
	const dbTime, delay = 1000, 60

	// Empty registry: activate.
	activate, err := checkClusterConfig("a", nil, dbTime, delay)
	if err != nil || !activate {
		t.Fatalf("empty registry: activate=%v err=%v", activate, err)
	}

	// Live peer: start standby.
	nodes := []registry.Node{node("b", "b", registry.StatusActive, dbTime)}
	activate, err = checkClusterConfig("a", nodes, dbTime, delay)
	if err != nil || activate {
		t.Fatalf("live peer: activate=%v err=%v", activate, err)
	}

	// Stale peer: activate.
	nodes = []registry.Node{node("b", "b", registry.StatusActive, 900)}
	activate, err = checkClusterConfig("a", nodes, dbTime, delay)
	if err != nil || !activate {
		t.Fatalf("stale peer: activate=%v err=%v", activate, err)
	}

	// Live standalone survivor is fatal.
	nodes = []registry.Node{node("s", "", registry.StatusActive, dbTime)}
	if _, err = checkClusterConfig("a", nodes, dbTime, delay); err == nil {
		t.Fatal("expected error for live standalone node")
	} else if !strings.Contains(err.Error(), "cannot change mode to HA while standalone node is active") {
		t.Fatalf("unexpected message: %v", err)
	}

	// Live duplicate name is fatal.
	nodes = []registry.Node{node("x", "a", registry.StatusStandby, dbTime)}
	if _, err = checkClusterConfig("a", nodes, dbTime, delay); err == nil {
		t.Fatal("expected error for duplicate node name")
	} else if !strings.Contains(err.Error(), `found standby duplicate "a" node`) {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestCheckActiveNodePromotesWhenNoActive(t *testing.T) {
	nodes := []registry.Node{
		node("self", "a", registry.StatusStandby, 1000),
		node("peer", "b", registry.StatusUnavailable, 900),
	}

	res, err := checkActiveNode("self", registry.StatusStandby, nodes, 0, 0, 60, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != registry.StatusActive {
		t.Fatalf("status = %v, want active", res.Status)
	}
	if res.UnavailableID != "" {
		t.Fatalf("no node should be marked unavailable, got %q", res.UnavailableID)
	}
}

func TestCheckActiveNodeReclaimsOwnRow(t *testing.T) {
	// Our own row still says active after a prolonged database outage.
	nodes := []registry.Node{node("self", "a", registry.StatusActive, 900)}

	res, err := checkActiveNode("self", registry.StatusStandby, nodes, 0, 0, 60, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != registry.StatusActive {
		t.Fatalf("status = %v, want active", res.Status)
	}
}

func TestCheckActiveNodeCountsStalledTicks(t *testing.T) {
	const delay, tick = 10, 5
	active := node("peer", "b", registry.StatusActive, 500)
	nodes := []registry.Node{active, node("self", "a", registry.StatusStandby, 1000)}

	// First observation records the peer's lastaccess.
	res, err := checkActiveNode("self", registry.StatusStandby, nodes, 0, 0, delay, tick)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != registry.StatusStandby || res.LastAccessActive != 500 || res.OfflineTicks != 0 {
		t.Fatalf("first observation: %+v", res)
	}

	// The peer stalls: delay/tick+1 = 3 stalled ticks are tolerated.
	ticks := 0
	last := res.LastAccessActive
	for i := 0; i < 3; i++ {
		res, err = checkActiveNode("self", registry.StatusStandby, nodes, last, ticks, delay, tick)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ticks = res.OfflineTicks
		if res.Status != registry.StatusStandby {
			t.Fatalf("premature takeover after %d stalled ticks", ticks)
		}
	}

	// The next stalled tick exceeds the threshold: take over and mark
	// the peer unavailable in the same transaction.
	res, err = checkActiveNode("self", registry.StatusStandby, nodes, last, ticks, delay, tick)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != registry.StatusActive || res.UnavailableID != "peer" {
		t.Fatalf("expected takeover, got %+v", res)
	}
}

func TestCheckActiveNodeResetsOnProgress(t *testing.T) {
	active := node("peer", "b", registry.StatusActive, 600)
	nodes := []registry.Node{active}

	res, err := checkActiveNode("self", registry.StatusStandby, nodes, 500, 2, 10, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.OfflineTicks != 0 || res.LastAccessActive != 600 {
		t.Fatalf("expected counter reset on progress, got %+v", res)
	}
	if res.Status != registry.StatusStandby {
		t.Fatalf("status = %v, want standby", res.Status)
	}
}

func TestCheckActiveNodeRejectsStandaloneActive(t *testing.T) {
	nodes := []registry.Node{node("s", "", registry.StatusActive, 1000)}

	_, err := checkActiveNode("self", registry.StatusStandby, nodes, 0, 0, 60, 5)
	if err == nil {
		t.Fatal("expected error for active standalone node in HA mode")
	}
	if !strings.Contains(err.Error(), "found active standalone node in HA mode") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestStaleStandbys(t *testing.T) {
	const dbTime, delay = 1000, 60

	nodes := []registry.Node{
		node("fresh", "a", registry.StatusStandby, dbTime-10),
		node("stale", "b", registry.StatusStandby, dbTime-delay),
		node("active", "c", registry.StatusActive, dbTime-delay),
		node("stopped", "d", registry.StatusStopped, 0),
	}

	stale := staleStandbys(nodes, dbTime, delay)
	if len(stale) != 1 || stale[0].ID != "stale" {
		t.Fatalf("unexpected stale set: %+v", stale)
	}
}

func TestFindNodeByName(t *testing.T) {
	nodes := []registry.Node{
		node("1", "", registry.StatusStopped, 0),
		node("2", "a", registry.StatusStopped, 0),
	}

	if i := findNodeByName(nodes, ""); i != 0 {
		t.Fatalf("standalone lookup = %d, want 0", i)
	}
	if i := findNodeByName(nodes, "a"); i != 1 {
		t.Fatalf("named lookup = %d, want 1", i)
	}
	if i := findNodeByName(nodes, "missing"); i != -1 {
		t.Fatalf("missing lookup = %d, want -1", i)
	}
}
