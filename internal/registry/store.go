package registry

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"haven.io/server/internal/logging"
	"haven.io/server/internal/metrics"
)

// DBState is the registry connection state as tracked by the store.
type DBState int

const (
	// StateDown means the connection is lost; operations return
	// ErrOffline until a reconnect succeeds.
	StateDown DBState = iota

	// StateOK means the connection is established.
	StateOK

	// StateFailed means a non-recoverable error occurred.
	StateFailed
)

// String returns the state name: "ok", "down" or "fail".
func (s DBState) String() string {
	switch s {
	case StateOK:
		return "ok"
	case StateFailed:
		return "fail"
	default:
		return "down"
	}
}

// Store provides transactional access to the shared HA registry.
//
// A Store is owned by a single goroutine (the HA manager loop) and is
// not safe for concurrent use. All mutating operations must happen
// between Begin and Commit; a lost connection silently discards the
// open transaction and subsequent operations return ErrOffline until
// the next Begin reconnects.
type Store struct {
	db      *sql.DB
	dialect Dialect
	logger  *zap.Logger

	tx    *sql.Tx
	state DBState
}

// Open creates a store for an already opened database handle.
//
// Parameters:
//   - db: Database handle shared by all cluster nodes
//   - dialect: SQL dialect matching the handle's driver
//   - logger: Zap logger for structured logging
//
// Returns:
//   - Configured Store in the down state; the first Begin connects
func Open(db *sql.DB, dialect Dialect, logger *zap.Logger) *Store {
	return &Store{
		db:      db,
		dialect: dialect,
		logger:  logger,
		state:   StateDown,
	}
}

// Connect opens the registry database by driver name and DSN.
func Connect(driver, dsn string, logger *zap.Logger) (*Store, error) {
	dialect, err := ForDriver(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry database: %w", err)
	}

	// The manager is single-threaded; one connection keeps the
	// transaction and its row locks on the same session.
	db.SetMaxOpenConns(1)

	return Open(db, dialect, logger), nil
}

// State returns the current connection state.
func (s *Store) State() DBState {
	return s.state
}

// Connected reports whether the registry is currently reachable.
func (s *Store) Connected() bool {
	return s.state == StateOK
}

// Dialect returns the store's SQL dialect.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s.tx != nil {
		_ = s.tx.Rollback()
		s.tx = nil
	}
	return s.db.Close()
}

// Begin starts a registry transaction, lazily reconnecting when the
// connection was lost. Returns ErrOffline when the database stays
// unreachable and ErrFailed after a non-recoverable error.
func (s *Store) Begin() error {
	if s.state == StateFailed {
		return ErrFailed
	}

	if s.state == StateDown {
		if err := s.db.Ping(); err != nil {
			metrics.DBReconnectsTotal.WithLabelValues("error").Inc()
			s.logger.Debug("registry reconnect failed", zap.Error(err))
			return ErrOffline
		}
		metrics.DBReconnectsTotal.WithLabelValues("ok").Inc()
		s.state = StateOK
		s.logger.Info("connected to registry database")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return s.fault("begin", err)
	}

	s.tx = tx
	return nil
}

// Commit commits the open transaction. On a lost connection the
// transaction is discarded and ErrOffline returned; the caller's
// changes did not take effect.
func (s *Store) Commit() error {
	if s.tx == nil {
		return ErrOffline
	}

	err := s.tx.Commit()
	s.tx = nil
	if err != nil {
		return s.fault("commit", err)
	}
	return nil
}

// Rollback discards the open transaction, if any.
func (s *Store) Rollback() {
	if s.tx == nil {
		return
	}
	if err := s.tx.Rollback(); err != nil && isConnectionError(err) {
		s.state = StateDown
	}
	s.tx = nil
}

// InTx reports whether a transaction is currently open.
func (s *Store) InTx() bool {
	return s.tx != nil
}

// fault records a database error, translating lost connections into
// the offline state. The open transaction is dropped either way.
func (s *Store) fault(op string, err error) error {
	if s.tx != nil {
		_ = s.tx.Rollback()
		s.tx = nil
	}

	if isConnectionError(err) {
		s.state = StateDown
		s.logger.Warn("registry database connection lost",
			zap.String(logging.FieldComponent, "registry"),
			zap.String("operation", op),
			zap.Error(err),
		)
		return ErrOffline
	}

	s.state = StateFailed
	s.logger.Error("registry database failure",
		zap.String(logging.FieldComponent, "registry"),
		zap.String("operation", op),
		zap.Error(err),
	)
	return fmt.Errorf("registry %s: %w", op, err)
}

// observe times a query for the database metrics.
func observe(op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	metrics.DBQueriesTotal.WithLabelValues(op, status).Inc()
}

// Nodes reads all registry rows ordered by node ID.
//
// With lock set, row locks are taken on the whole table (where the
// dialect supports it) to serialize state transitions across nodes;
// the locks are held until Commit or Rollback.
func (s *Store) Nodes(lock bool) ([]Node, error) {
	if s.tx == nil {
		return nil, ErrOffline
	}

	query := "select ha_nodeid,name,status,lastaccess,address,port,ha_sessionid" +
		" from ha_node order by ha_nodeid"
	if lock {
		query += s.dialect.ForUpdate()
	}

	start := time.Now()
	rows, err := s.tx.Query(query)
	observe("nodes", start, err)
	if err != nil {
		return nil, s.fault("nodes", err)
	}
	defer rows.Close()

	var nodes []Node
	for rows.Next() {
		var (
			n    Node
			stat int
			port int
		)
		if err := rows.Scan(&n.ID, &n.Name, &stat, &n.LastAccess, &n.Address, &port, &n.SessionID); err != nil {
			return nil, s.fault("nodes", err)
		}
		n.Status = NodeStatus(stat)
		if port < 0 || port > 65535 {
			s.logger.Warn("node has invalid port value",
				zap.String(logging.FieldNodeName, n.Name),
				zap.Int("port", port),
			)
			port = 0
		}
		n.Port = uint16(port)
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fault("nodes", err)
	}

	return nodes, nil
}

// LockNodes takes the table-wide row locks without reading the rows.
func (s *Store) LockNodes() error {
	if s.tx == nil {
		return ErrOffline
	}

	query := "select null from ha_node order by ha_nodeid" + s.dialect.ForUpdate()

	start := time.Now()
	rows, err := s.tx.Query(query)
	observe("lock_nodes", start, err)
	if err != nil {
		return s.fault("lock_nodes", err)
	}
	defer rows.Close()

	for rows.Next() {
	}
	if err := rows.Err(); err != nil {
		return s.fault("lock_nodes", err)
	}
	return nil
}

// DBTime reads the database server's clock as unix epoch seconds.
// This is the sole time reference for liveness math.
func (s *Store) DBTime() (int64, error) {
	if s.tx == nil {
		return 0, ErrOffline
	}

	start := time.Now()
	var t int64
	err := s.tx.QueryRow("select " + s.dialect.TimestampExpr).Scan(&t)
	observe("db_time", start, err)
	if err != nil {
		return 0, s.fault("db_time", err)
	}
	return t, nil
}

// Config reads the global HA settings from the config table.
func (s *Store) Config() (Settings, error) {
	if s.tx == nil {
		return Settings{}, ErrOffline
	}

	start := time.Now()
	var (
		delayStr string
		audit    int
	)
	err := s.tx.QueryRow("select ha_failover_delay,auditlog_enabled from config").Scan(&delayStr, &audit)
	observe("config", start, err)
	if err != nil {
		return Settings{}, s.fault("config", err)
	}

	delay, err := parseTimeSuffix(delayStr)
	if err != nil {
		return Settings{}, s.fault("config", fmt.Errorf("invalid ha_failover_delay %q: %w", delayStr, err))
	}

	return Settings{FailoverDelay: delay, AuditEnabled: audit != 0}, nil
}

// InsertNode creates a new node row in status stopped with the
// database clock as its initial lastaccess.
func (s *Store) InsertNode(id, name string) error {
	if s.tx == nil {
		return ErrOffline
	}

	query := s.dialect.Rebind("insert into ha_node" +
		" (ha_nodeid,name,status,lastaccess,address,port,ha_sessionid)" +
		" values (?,?,?," + s.dialect.TimestampExpr + ",'',0,'')")

	start := time.Now()
	_, err := s.tx.Exec(query, id, name, int(StatusStopped))
	observe("insert_node", start, err)
	if err != nil {
		return s.fault("insert_node", err)
	}
	return nil
}

// NodeUpdate describes a partial update of a node row. Nil fields are
// left untouched.
type NodeUpdate struct {
	// Status sets a new HA status.
	Status *NodeStatus

	// RefreshLastAccess sets lastaccess to the database clock.
	RefreshLastAccess bool

	// Address and Port update the published endpoint.
	Address *string
	Port    *uint16

	// SessionID claims the row for the calling process.
	SessionID *string
}

// UpdateNode applies a partial update to one node row.
func (s *Store) UpdateNode(id string, u NodeUpdate) error {
	if s.tx == nil {
		return ErrOffline
	}

	var (
		set  []string
		args []interface{}
	)
	if u.RefreshLastAccess {
		set = append(set, "lastaccess="+s.dialect.TimestampExpr)
	}
	if u.Status != nil {
		set = append(set, "status=?")
		args = append(args, int(*u.Status))
	}
	if u.Address != nil {
		set = append(set, "address=?")
		args = append(args, *u.Address)
	}
	if u.Port != nil {
		set = append(set, "port=?")
		args = append(args, int(*u.Port))
	}
	if u.SessionID != nil {
		set = append(set, "ha_sessionid=?")
		args = append(args, *u.SessionID)
	}
	if len(set) == 0 {
		return nil
	}

	query := s.dialect.Rebind("update ha_node set " + strings.Join(set, ",") + " where ha_nodeid=?")
	args = append(args, id)

	start := time.Now()
	_, err := s.tx.Exec(query, args...)
	observe("update_node", start, err)
	if err != nil {
		return s.fault("update_node", err)
	}
	return nil
}

// SetNodesStatus updates the status of a set of node rows in one
// statement, as used when marking stale peers unavailable.
func (s *Store) SetNodesStatus(ids []string, status NodeStatus) error {
	if len(ids) == 0 {
		return nil
	}
	if s.tx == nil {
		return ErrOffline
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := s.dialect.Rebind("update ha_node set status=? where ha_nodeid in (" + placeholders + ")")

	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, int(status))
	for _, id := range ids {
		args = append(args, id)
	}

	start := time.Now()
	_, err := s.tx.Exec(query, args...)
	observe("set_nodes_status", start, err)
	if err != nil {
		return s.fault("set_nodes_status", err)
	}
	return nil
}

// DeleteNode removes a node row. The caller is responsible for
// rejecting deletion of live nodes.
func (s *Store) DeleteNode(id string) error {
	if s.tx == nil {
		return ErrOffline
	}

	start := time.Now()
	_, err := s.tx.Exec(s.dialect.Rebind("delete from ha_node where ha_nodeid=?"), id)
	observe("delete_node", start, err)
	if err != nil {
		return s.fault("delete_node", err)
	}
	return nil
}

// UpdateFailoverDelay sets the global failover delay, reading the old
// value under the same row lock as the update.
//
// Returns:
//   - string: The config row identifier, for audit entries
//   - int: The previous failover delay in seconds
//   - error: ErrOffline or a fatal query error
func (s *Store) UpdateFailoverDelay(delay int) (string, int, error) {
	if s.tx == nil {
		return "", 0, ErrOffline
	}

	start := time.Now()
	var (
		configID string
		oldStr   string
	)
	err := s.tx.QueryRow("select configid,ha_failover_delay from config" + s.dialect.ForUpdate()).
		Scan(&configID, &oldStr)
	observe("update_failover_delay", start, err)
	if err != nil {
		return "", 0, s.fault("update_failover_delay", err)
	}

	old, err := parseTimeSuffix(oldStr)
	if err != nil {
		return "", 0, s.fault("update_failover_delay", fmt.Errorf("invalid ha_failover_delay %q: %w", oldStr, err))
	}

	_, err = s.tx.Exec(s.dialect.Rebind("update config set ha_failover_delay=?"), strconv.Itoa(delay))
	if err != nil {
		return "", 0, s.fault("update_failover_delay", err)
	}

	return configID, old, nil
}

// parseTimeSuffix converts a duration value with an optional s/m/h/d
// suffix into seconds. Plain numbers are seconds.
func parseTimeSuffix(value string) (int, error) {
	if value == "" {
		return 0, fmt.Errorf("empty value")
	}

	mult := 1
	switch value[len(value)-1] {
	case 's':
		value = value[:len(value)-1]
	case 'm':
		mult = 60
		value = value[:len(value)-1]
	case 'h':
		mult = 3600
		value = value[:len(value)-1]
	case 'd':
		mult = 86400
		value = value[:len(value)-1]
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return n * mult, nil
}
