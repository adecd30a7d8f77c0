package registry

import (
	"database/sql/driver"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/lib/pq"
	"modernc.org/sqlite"
)

// ErrOffline is returned when the registry database connection is lost.
// The operation may succeed on a later tick once the connection is
// re-established; any open transaction has been discarded.
var ErrOffline = errors.New("registry database is offline")

// ErrFailed is returned once the store has seen a non-recoverable
// database error. The store stays unusable until the process restarts.
var ErrFailed = errors.New("registry database failure")

// isConnectionError classifies an error as a lost connection rather
// than a query or constraint failure. Connection errors map to
// ErrOffline and are retried on the next tick; everything else is
// treated as fatal.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "08": // connection exception
			return true
		case "57": // operator intervention (server shutdown)
			return true
		}
		return false
	}

	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) {
		switch sqErr.Code() {
		case 5, 6: // SQLITE_BUSY, SQLITE_LOCKED
			return true
		case 10, 14: // SQLITE_IOERR, SQLITE_CANTOPEN
			return true
		}
		return false
	}

	// Driver errors that reach us as plain strings.
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "bad connection") ||
		strings.Contains(msg, "database is locked")
}
