package registry

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect captures the SQL differences between the supported database
// drivers: the server-side clock expression, row locking support and
// placeholder style.
type Dialect struct {
	// Driver is the database/sql driver name.
	Driver string

	// TimestampExpr is a SQL expression evaluating to the database
	// server's current time as unix epoch seconds. All liveness math
	// uses this clock so that node clock skew is irrelevant.
	TimestampExpr string

	// forUpdate is the row locking clause, empty when the driver
	// serializes writers on its own.
	forUpdate string

	// numbered selects $1-style placeholders instead of ?.
	numbered bool
}

// SQLite returns the dialect for modernc.org/sqlite. SQLite has no
// FOR UPDATE; a write transaction locks the database file, which gives
// the same serialization of state transitions.
func SQLite() Dialect {
	return Dialect{
		Driver:        "sqlite",
		TimestampExpr: "cast(strftime('%s','now') as integer)",
	}
}

// Postgres returns the dialect for github.com/lib/pq.
func Postgres() Dialect {
	return Dialect{
		Driver:        "postgres",
		TimestampExpr: "cast(extract(epoch from now()) as integer)",
		forUpdate:     " for update",
		numbered:      true,
	}
}

// ForDriver resolves a dialect by driver name.
func ForDriver(driver string) (Dialect, error) {
	switch driver {
	case "sqlite":
		return SQLite(), nil
	case "postgres":
		return Postgres(), nil
	default:
		return Dialect{}, fmt.Errorf("unsupported registry driver %q", driver)
	}
}

// ForUpdate returns the locking suffix for SELECT statements that must
// serialize concurrent state transitions.
func (d Dialect) ForUpdate() string {
	return d.forUpdate
}

// Rebind rewrites ?-style placeholders into the dialect's native form.
// Queries are written with ? throughout and rebound at the call site.
func (d Dialect) Rebind(query string) string {
	if !d.numbered {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] != '?' {
			b.WriteByte(query[i])
			continue
		}
		n++
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
	}

	return b.String()
}
