// Package ha implements high availability for the Haven server.
//
// One node in a cluster holds the active role and performs exclusive
// work; its peers stand by, watching the shared registry, and take
// over when the active node's liveness signal expires. The manager
// runs its own control loop and talks to the embedding server process
// over a local message service; the Client type is the parent-side
// facade.
package ha

import (
	"fmt"
	"time"

	"haven.io/server/internal/registry"
)

const (
	// DefaultTickPeriod is the manager's control loop period.
	DefaultTickPeriod = 5 * time.Second

	// OfflineTickPeriod is the accelerated period used while the
	// registry database is unreachable, so a reconnect is noticed
	// before a short failover delay expires.
	OfflineTickPeriod = time.Second
)

// FatalError is a non-recoverable HA condition: an admission
// violation, a registry takeover or a hard database error. The manager
// reports the reason to the parent and stops participating.
type FatalError struct {
	Reason string
}

// Error returns the reason.
func (e *FatalError) Error() string {
	return e.Reason
}

func fatalf(format string, args ...interface{}) error {
	return &FatalError{Reason: fmt.Sprintf(format, args...)}
}

// Info is the manager's in-memory view of its own node.
type Info struct {
	// NodeID is the registry identifier, empty until registration.
	NodeID string

	// SessionID is this process's session identifier, written into
	// the node row on registration.
	SessionID string

	// Name is the configured node name, empty in standalone mode.
	Name string

	// Status is the current HA role.
	Status registry.NodeStatus

	// FailoverDelay is the grace period in seconds, refreshed from
	// the config table each tick.
	FailoverDelay int

	// AuditEnabled mirrors the auditlog_enabled setting.
	AuditEnabled bool

	// Error is the sticky reason for the terminal error status.
	Error string

	// lastAccessActive is the active peer's lastaccess as of the
	// previous tick, and offlineTicksActive counts consecutive ticks
	// it has not advanced.
	lastAccessActive   int64
	offlineTicksActive int
}

// IsCluster reports whether this node is configured as a cluster member.
func (i *Info) IsCluster() bool {
	return i.Name != ""
}

// setFatal records a terminal failure. The first reason sticks;
// later errors do not overwrite it.
func (i *Info) setFatal(reason string) {
	if i.Status == registry.StatusError {
		return
	}
	i.Error = reason
	i.Status = registry.StatusError
}
