package ha

import (
	"haven.io/server/internal/registry"
)

// The lease engine: pure decisions over a snapshot of the node table
// and the database clock. No I/O happens here; the manager applies
// the results inside the same locked transaction the snapshot came
// from.

// isLive reports whether a node still holds its lease: it claims a
// live role and its lastaccess has not aged past the failover delay.
func isLive(n registry.Node, dbTime int64, failoverDelay int) bool {
	return n.Status.Live() && n.LastAccess+int64(failoverDelay) > dbTime
}

// findNodeByName returns the index of the node with the given name,
// or -1. The empty name finds the standalone node.
func findNodeByName(nodes []registry.Node, name string) int {
	for i := range nodes {
		if nodes[i].Name == name {
			return i
		}
	}
	return -1
}

// checkStandaloneConfig decides whether a standalone node may start:
// no cluster node may hold a live lease.
func checkStandaloneConfig(nodes []registry.Node, dbTime int64, failoverDelay int) error {
	for _, n := range nodes {
		if n.Name == "" {
			continue
		}
		if isLive(n, dbTime, failoverDelay) {
			return fatalf("cannot change mode to standalone while HA node \"%s\" is %s", n.Name, n.Status)
		}
	}
	return nil
}

// checkClusterConfig decides whether a cluster node may start and in
// which role. A live standalone survivor or a live node with the same
// name is fatal; otherwise the node activates iff no live peer exists.
func checkClusterConfig(name string, nodes []registry.Node, dbTime int64, failoverDelay int) (bool, error) {
	activate := true

	for _, n := range nodes {
		if !isLive(n, dbTime, failoverDelay) {
			continue
		}

		if n.Name == "" {
			return false, fatalf("cannot change mode to HA while standalone node is %s", n.Status)
		}
		if n.Name == name {
			return false, fatalf("found %s duplicate \"%s\" node", n.Status, name)
		}

		activate = false
	}

	return activate, nil
}

// activeCheck is the outcome of a standby node's look at the active peer.
type activeCheck struct {
	// Status is the role this node should hold after the tick.
	Status registry.NodeStatus

	// LastAccessActive and OfflineTicks carry the observation state
	// forward to the next tick.
	LastAccessActive int64
	OfflineTicks     int

	// UnavailableID names the stalled active peer to mark unavailable
	// in the same transaction that claims the active role.
	UnavailableID string
}

// checkActiveNode runs a standby node's failure detection: promote
// when no active peer exists, count ticks while the active peer's
// lastaccess stands still, and take over once the stall outlasts the
// failover delay.
func checkActiveNode(selfID string, current registry.NodeStatus, nodes []registry.Node,
	lastAccessActive int64, offlineTicks, failoverDelay, tickSeconds int) (activeCheck, error) {

	res := activeCheck{
		Status:           current,
		LastAccessActive: lastAccessActive,
		OfflineTicks:     offlineTicks,
	}

	active := -1
	for i := range nodes {
		if nodes[i].Status == registry.StatusActive {
			if nodes[i].Name == "" {
				return res, fatalf("found active standalone node in HA mode")
			}
			active = i
			break
		}
	}

	// No active node, or the active row is our own after a prolonged
	// database outage: (re)claim the role.
	if active < 0 || nodes[active].ID == selfID {
		res.Status = registry.StatusActive
		return res, nil
	}

	if nodes[active].LastAccess != lastAccessActive {
		res.LastAccessActive = nodes[active].LastAccess
		res.OfflineTicks = 0
		return res, nil
	}

	res.OfflineTicks++
	if res.OfflineTicks > failoverDelay/tickSeconds+1 {
		res.UnavailableID = nodes[active].ID
		res.Status = registry.StatusActive
	}

	return res, nil
}

// staleStandbys returns the standby rows whose lease expired,
// as enforced by the active node each tick.
func staleStandbys(nodes []registry.Node, dbTime int64, failoverDelay int) []registry.Node {
	var stale []registry.Node
	for _, n := range nodes {
		if n.Status != registry.StatusStandby {
			continue
		}
		if dbTime >= n.LastAccess+int64(failoverDelay) {
			stale = append(stale, n)
		}
	}
	return stale
}
