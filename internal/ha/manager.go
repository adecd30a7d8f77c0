package ha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"haven.io/server/internal/ipc"
	"haven.io/server/internal/logging"
	"haven.io/server/internal/metrics"
	"haven.io/server/internal/registry"
	"haven.io/server/internal/util"
)

// ManagerConfig holds the HA manager configuration.
type ManagerConfig struct {
	// NodeName is the operator-chosen cluster node name; empty means
	// standalone mode.
	NodeName string

	// NodeAddress is the externally reachable endpoint published in
	// the registry, as "host[:port]".
	NodeAddress string

	// SocketPath is the unix-domain socket of the message service.
	SocketPath string

	// SessionID identifies the owning process. Generated by the
	// client facade once per process; a fresh one is generated here
	// when empty.
	SessionID string

	// TickPeriod overrides the control loop period, for tests.
	TickPeriod time.Duration

	// OfflineTickPeriod overrides the accelerated offline period.
	OfflineTickPeriod time.Duration
}

// Manager is the HA manager: a single control loop interleaving
// registry transactions with message reception. It decides this
// node's role, keeps the shared registry consistent and notifies the
// parent process of every committed status change.
type Manager struct {
	cfg    ManagerConfig
	store  *registry.Store
	logger *logging.Logger

	info Info

	svc    *ipc.Service
	parent *ipc.Client

	ready chan struct{}
}

// errParentLost is returned when a notification to the parent cannot
// be delivered. The parent cannot operate without its notifications,
// so the manager terminates to force a restart.
var errParentLost = errors.New("cannot send HA notification to main process")

// NewManager creates an HA manager.
//
// Parameters:
//   - cfg: Manager configuration
//   - store: Registry store shared with no one else
//   - logger: Logger whose verbosity the manager may adjust at runtime
//
// Returns:
//   - Configured Manager, not yet running
func NewManager(cfg ManagerConfig, store *registry.Store, logger *logging.Logger) *Manager {
	if cfg.TickPeriod <= 0 {
		cfg.TickPeriod = DefaultTickPeriod
	}
	if cfg.OfflineTickPeriod <= 0 {
		cfg.OfflineTickPeriod = OfflineTickPeriod
	}
	if cfg.SessionID == "" {
		cfg.SessionID = util.NewID()
	}

	return &Manager{
		cfg:    cfg,
		store:  store,
		logger: logger,
		info: Info{
			SessionID:     cfg.SessionID,
			Name:          cfg.NodeName,
			Status:        registry.StatusUnknown,
			FailoverDelay: registry.DefaultFailoverDelay,
		},
		ready: make(chan struct{}),
	}
}

// Ready is closed once the message service is listening.
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// Run executes the manager loop until a Stop message arrives or the
// context is cancelled. It returns a non-nil error on conditions that
// require a process restart: service start failure or a lost parent.
func (m *Manager) Run(ctx context.Context, initialStatus registry.NodeStatus) error {
	m.logger.Info("starting HA manager")

	svc, err := ipc.Listen(m.cfg.SocketPath, m.logger.Logger)
	if err != nil {
		m.logger.Error("cannot start HA manager service", zap.Error(err))
		return err
	}
	m.svc = svc
	defer svc.Close()
	close(m.ready)

	m.info.Status = initialStatus

	if m.info.Status == registry.StatusUnknown {
		m.registerNode()
	}

	interval := m.cfg.TickPeriod
	// Double the initial database check delay in standby mode to avoid
	// the same node becoming active immediately after switching to
	// standby mode or crashing and being restarted.
	if m.info.Status == registry.StatusStandby {
		interval *= 2
	}

	m.logger.Info("HA manager started",
		zap.String(logging.FieldHAStatus, m.info.Status.String()),
		zap.String(logging.FieldNodeName, m.info.Name),
	)

	pause := m.info.Status == registry.StatusError
	stop := false

	next := time.Now().Add(interval)

	for !pause {
		if timeout := time.Until(next); timeout <= 0 {
			old := m.info.Status

			if m.info.Status == registry.StatusUnknown {
				m.registerNode()
			} else {
				m.checkNodes()
			}
			m.observeTick(old)

			if m.parent != nil && old != m.info.Status && m.info.Status != registry.StatusUnknown {
				if err := m.notifyParent(); err != nil {
					return err
				}
			}

			if m.info.Status == registry.StatusError {
				break
			}

			if m.parent != nil && m.store.Connected() {
				if err := m.sendHeartbeat(); err != nil {
					return err
				}
			}

			interval = m.cfg.TickPeriod
			if !m.store.Connected() {
				interval = m.cfg.OfflineTickPeriod
			}
			next = time.Now().Add(interval)
			continue
		}

		client, msg, err := svc.Recv(time.Until(next))
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if msg == nil {
			continue
		}
		if err := m.handleMessage(client, msg, &pause, &stop); err != nil {
			return err
		}
	}

	m.logger.Info("HA manager has been paused")

	// Slow loop: only refresh our own lease and wait for Stop.
	for !stop {
		client, msg, err := svc.Recv(m.cfg.TickPeriod)
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if m.info.Status.Live() {
			m.updateLastAccess()
		}

		if msg == nil {
			continue
		}
		switch msg.Code {
		case ipc.CodeRegister:
			m.parent = client
		case ipc.CodeStatusUpdate:
			if err := m.notifyParent(); err != nil {
				return err
			}
		case ipc.CodeStop:
			stop = true
		}
	}

	m.updateExitStatus()

	if err := m.store.Close(); err != nil {
		m.logger.Warn("failed to close registry database", zap.Error(err))
	}

	m.logger.Info("HA manager has been stopped")
	return nil
}

// handleMessage services one parent or administrative message.
func (m *Manager) handleMessage(client *ipc.Client, msg *ipc.Message, pause, stop *bool) error {
	switch msg.Code {
	case ipc.CodeRegister:
		m.parent = client

	case ipc.CodeStatusUpdate:
		return m.notifyParent()

	case ipc.CodeStop:
		*stop = true
		*pause = true

	case ipc.CodePause:
		*pause = true

	case ipc.CodeGetNodes:
		m.sendNodeList(client)

	case ipc.CodeRemoveNode:
		m.removeNode(client, msg)

	case ipc.CodeSetFailoverDelay:
		m.setFailoverDelay(client, msg)
		return m.notifyParent()

	case ipc.CodeLogLevelIncrease:
		if m.logger.IncreaseVerbosity() {
			m.logger.Info("log level has been increased", zap.Stringer("level", m.logger.Level()))
		} else {
			m.logger.Info("cannot increase log level: maximum level has been already set")
		}

	case ipc.CodeLogLevelDecrease:
		if m.logger.DecreaseVerbosity() {
			m.logger.Info("log level has been decreased", zap.Stringer("level", m.logger.Level()))
		} else {
			m.logger.Info("cannot decrease log level: minimum level has been already set")
		}

	default:
		m.logger.Warn("ignoring unknown ipc message", zap.Uint32("code", msg.Code))
	}

	return nil
}

// notifyParent sends a StatusUpdate frame carrying the current status,
// failover delay and sticky error. Failure is fatal to the manager.
func (m *Manager) notifyParent() error {
	if m.parent == nil {
		return nil
	}

	data := ipc.PutInt32(nil, int32(m.info.Status))
	data = ipc.PutInt32(data, int32(m.info.FailoverDelay))
	data = ipc.PutString(data, m.info.Error)

	if err := m.parent.Send(ipc.CodeStatusUpdate, data); err != nil {
		m.logger.Error("cannot send HA notification to main process", zap.Error(err))
		return errParentLost
	}
	return nil
}

// sendHeartbeat emits the per-tick liveness frame to the parent.
// Failure is fatal to the manager.
func (m *Manager) sendHeartbeat() error {
	if err := m.parent.Send(ipc.CodeHeartbeat, nil); err != nil {
		m.logger.Error("cannot send HA heartbeat to main process", zap.Error(err))
		return errParentLost
	}
	metrics.HALastHeartbeat.Set(float64(time.Now().Unix()))
	return nil
}

// abortTx finishes a transaction after a store error, discarding any
// audit entries recorded for it. A lost connection keeps the current
// status for a retry on the next tick; anything else is a hard
// database failure.
func (m *Manager) abortTx(rec *registry.AuditRecorder, err error) {
	if rec != nil {
		rec.Clean()
	}
	m.store.Rollback()
	if !errors.Is(err, registry.ErrOffline) {
		m.logger.Error("registry transaction failed", zap.Error(err))
		m.info.setFatal("database error")
	}
}

// registerNode is the unknown-to-role path: find or create our row,
// then claim the initial role under the table lock.
func (m *Manager) registerNode() {
	m.createNode()

	if m.info.NodeID == "" || m.info.Status == registry.StatusError {
		return
	}

	if err := m.store.Begin(); err != nil {
		m.abortTx(nil, err)
		return
	}

	nodes, err := m.store.Nodes(true)
	if err != nil {
		m.abortTx(nil, err)
		return
	}
	dbTime, err := m.store.DBTime()
	if err != nil {
		m.abortTx(nil, err)
		return
	}

	activate := true
	if m.info.IsCluster() {
		activate, err = checkClusterConfig(m.info.Name, nodes, dbTime, m.info.FailoverDelay)
	} else {
		err = checkStandaloneConfig(nodes, dbTime, m.info.FailoverDelay)
	}
	if err != nil {
		m.store.Rollback()
		m.info.setFatal(err.Error())
		return
	}

	i := findNodeByName(nodes, m.info.Name)
	if i < 0 {
		m.store.Rollback()
		m.info.setFatal(fmt.Sprintf("cannot find server node \"%s\" in registry", m.info.Name))
		return
	}
	node := nodes[i]

	status := registry.StatusStandby
	if activate {
		status = registry.StatusActive
	}

	host, port, err := util.ParseNodeAddress(m.cfg.NodeAddress)
	if err != nil {
		m.store.Rollback()
		m.info.setFatal(err.Error())
		return
	}

	rec := registry.NewAuditRecorder(m.info.AuditEnabled)
	entry := rec.Append(registry.AuditUpdate, registry.AuditEntityNode, node.ID, node.Name)

	update := registry.NodeUpdate{
		RefreshLastAccess: true,
		SessionID:         &m.info.SessionID,
	}
	if status != node.Status {
		update.Status = &status
		entry.Change("status", node.Status.String(), status.String())
	}
	if host != node.Address {
		update.Address = &host
		entry.Change("address", node.Address, host)
	}
	if port != node.Port {
		update.Port = &port
		entry.Change("port", strconv.Itoa(int(node.Port)), strconv.Itoa(int(port)))
	}

	if err := m.store.UpdateNode(node.ID, update); err != nil {
		m.abortTx(rec, err)
		return
	}
	if err := rec.Flush(m.store); err != nil {
		m.abortTx(rec, err)
		return
	}

	if err := m.store.Commit(); err != nil {
		m.abortTx(rec, err)
		return
	}

	m.info.Status = status
}

// createNode finds our row by name, reusing its identifier, or runs
// admission and inserts a fresh row in status stopped.
func (m *Manager) createNode() {
	if err := m.store.Begin(); err != nil {
		m.abortTx(nil, err)
		return
	}

	nodes, err := m.store.Nodes(false)
	if err != nil {
		m.abortTx(nil, err)
		return
	}

	settings, err := m.store.Config()
	if err != nil {
		m.abortTx(nil, err)
		return
	}
	m.info.FailoverDelay = settings.FailoverDelay
	m.info.AuditEnabled = settings.AuditEnabled

	if i := findNodeByName(nodes, m.info.Name); i >= 0 {
		m.info.NodeID = nodes[i].ID
		if err := m.store.Commit(); err != nil {
			m.abortTx(nil, err)
		}
		return
	}

	dbTime, err := m.store.DBTime()
	if err != nil {
		m.abortTx(nil, err)
		return
	}

	if m.info.IsCluster() {
		_, err = checkClusterConfig(m.info.Name, nodes, dbTime, m.info.FailoverDelay)
	} else {
		err = checkStandaloneConfig(nodes, dbTime, m.info.FailoverDelay)
	}
	if err != nil {
		m.store.Rollback()
		m.info.setFatal(err.Error())
		return
	}

	id := util.NewID()
	if err := m.store.InsertNode(id, m.info.Name); err != nil {
		m.abortTx(nil, err)
		return
	}

	rec := registry.NewAuditRecorder(m.info.AuditEnabled)
	entry := rec.Append(registry.AuditAdd, registry.AuditEntityNode, id, m.info.Name)
	entry.Change("status", "", registry.StatusStopped.String())
	if err := rec.Flush(m.store); err != nil {
		m.abortTx(rec, err)
		return
	}

	if err := m.store.Commit(); err != nil {
		m.abortTx(rec, err)
		return
	}

	m.info.NodeID = id
	m.logger.Info("registered new HA node",
		zap.String(logging.FieldNodeID, id),
		zap.String(logging.FieldNodeName, m.info.Name),
	)
}

// checkNodes is the per-tick liveness transaction: verify ownership,
// refresh configuration, run the role-specific lease checks and
// update our own row, all under the table lock.
func (m *Manager) checkNodes() {
	if err := m.store.Begin(); err != nil {
		m.abortTx(nil, err)
		return
	}

	nodes, err := m.store.Nodes(true)
	if err != nil {
		m.abortTx(nil, err)
		return
	}

	i := findNodeByName(nodes, m.info.Name)
	if i < 0 {
		m.store.Rollback()
		m.info.setFatal(fmt.Sprintf("cannot find server node \"%s\" in registry", m.info.Name))
		return
	}
	node := nodes[i]

	if node.SessionID != m.info.SessionID {
		m.store.Rollback()
		m.info.setFatal("the server HA registry record has changed ownership")
		return
	}

	// Re-learn our identifier after a manager restart with a
	// persisted status.
	if m.info.NodeID == "" {
		m.info.NodeID = node.ID
	}

	settings, err := m.store.Config()
	if err != nil {
		m.abortTx(nil, err)
		return
	}
	m.info.FailoverDelay = settings.FailoverDelay
	m.info.AuditEnabled = settings.AuditEnabled

	dbTime, err := m.store.DBTime()
	if err != nil {
		m.abortTx(nil, err)
		return
	}

	status := m.info.Status
	rec := registry.NewAuditRecorder(m.info.AuditEnabled)
	var unavailable []registry.Node

	if m.info.IsCluster() {
		if m.info.Status == registry.StatusActive {
			unavailable = staleStandbys(nodes, dbTime, m.info.FailoverDelay)
		} else {
			tickSeconds := int(m.cfg.TickPeriod / time.Second)
			if tickSeconds < 1 {
				tickSeconds = 1
			}
			res, err := checkActiveNode(m.info.NodeID, m.info.Status, nodes,
				m.info.lastAccessActive, m.info.offlineTicksActive,
				m.info.FailoverDelay, tickSeconds)
			if err != nil {
				m.store.Rollback()
				m.info.setFatal(err.Error())
				return
			}

			m.info.lastAccessActive = res.LastAccessActive
			m.info.offlineTicksActive = res.OfflineTicks
			status = res.Status

			if res.UnavailableID != "" {
				for _, n := range nodes {
					if n.ID == res.UnavailableID {
						unavailable = append(unavailable, n)
					}
				}
			}
		}
	}

	update := registry.NodeUpdate{RefreshLastAccess: true}
	if status != node.Status {
		update.Status = &status
		entry := rec.Append(registry.AuditUpdate, registry.AuditEntityNode, node.ID, node.Name)
		entry.Change("status", node.Status.String(), status.String())
	}
	if err := m.store.UpdateNode(node.ID, update); err != nil {
		m.abortTx(rec, err)
		return
	}

	if len(unavailable) > 0 {
		ids := make([]string, 0, len(unavailable))
		for _, n := range unavailable {
			ids = append(ids, n.ID)
			entry := rec.Append(registry.AuditUpdate, registry.AuditEntityNode, n.ID, n.Name)
			entry.Change("status", n.Status.String(), registry.StatusUnavailable.String())

			if n.Status == registry.StatusActive {
				m.logger.Warn("marking stalled active node unavailable and taking over",
					zap.String(logging.FieldNodeID, n.ID),
					zap.String(logging.FieldNodeName, n.Name),
				)
				metrics.HATakeovers.Inc()
			}
		}
		if err := m.store.SetNodesStatus(ids, registry.StatusUnavailable); err != nil {
			m.abortTx(rec, err)
			return
		}
	}

	if err := rec.Flush(m.store); err != nil {
		m.abortTx(rec, err)
		return
	}

	if err := m.store.Commit(); err != nil {
		m.abortTx(rec, err)
		return
	}

	m.info.Status = status
	metrics.HANodesTotal.Set(float64(len(nodes)))
}

// updateLastAccess refreshes our lease while the manager is paused, so
// peers do not mark a paused node unavailable.
func (m *Manager) updateLastAccess() {
	if err := m.store.Begin(); err != nil {
		m.abortTx(nil, err)
		return
	}
	if err := m.store.LockNodes(); err != nil {
		m.abortTx(nil, err)
		return
	}
	if err := m.store.UpdateNode(m.info.NodeID, registry.NodeUpdate{RefreshLastAccess: true}); err != nil {
		m.abortTx(nil, err)
		return
	}
	if err := m.store.Commit(); err != nil {
		m.abortTx(nil, err)
	}
}

// updateExitStatus records a clean shutdown in the registry, but only
// while we still hold a live role.
func (m *Manager) updateExitStatus() {
	if !m.info.Status.Live() {
		return
	}

	if err := m.store.Begin(); err != nil {
		m.abortTx(nil, err)
		return
	}
	if err := m.store.LockNodes(); err != nil {
		m.abortTx(nil, err)
		return
	}

	stopped := registry.StatusStopped
	if err := m.store.UpdateNode(m.info.NodeID, registry.NodeUpdate{Status: &stopped}); err != nil {
		m.abortTx(nil, err)
		return
	}

	rec := registry.NewAuditRecorder(m.info.AuditEnabled)
	entry := rec.Append(registry.AuditUpdate, registry.AuditEntityNode, m.info.NodeID, m.info.Name)
	entry.Change("status", m.info.Status.String(), stopped.String())
	if err := rec.Flush(m.store); err != nil {
		m.abortTx(rec, err)
		return
	}

	if err := m.store.Commit(); err != nil {
		m.abortTx(rec, err)
	}
}

// nodeView is the JSON shape of one registry row in GetNodes replies.
type nodeView struct {
	NodeID        string `json:"nodeid"`
	Name          string `json:"name"`
	Status        int    `json:"status"`
	LastAccess    int64  `json:"lastaccess"`
	Address       string `json:"address"`
	DBTimestamp   int64  `json:"db_timestamp"`
	LastAccessAge int64  `json:"lastaccess_age"`
}

// nodesJSON serializes the node table for GetNodes.
func (m *Manager) nodesJSON() (string, error) {
	if err := m.store.Begin(); err != nil {
		m.abortTx(nil, err)
		return "", errors.New("database connection problem")
	}

	dbTime, err := m.store.DBTime()
	if err != nil {
		m.abortTx(nil, err)
		return "", errors.New("database connection problem")
	}
	nodes, err := m.store.Nodes(false)
	if err != nil {
		m.abortTx(nil, err)
		return "", errors.New("database connection problem")
	}
	m.store.Rollback()

	views := make([]nodeView, 0, len(nodes))
	for _, n := range nodes {
		views = append(views, nodeView{
			NodeID:        n.ID,
			Name:          n.Name,
			Status:        int(n.Status),
			LastAccess:    n.LastAccess,
			Address:       fmt.Sprintf("%s:%d", n.Address, n.Port),
			DBTimestamp:   dbTime,
			LastAccessAge: dbTime - n.LastAccess,
		})
	}

	raw, err := json.Marshal(views)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// sendNodeList replies to a GetNodes request on the requesting client.
func (m *Manager) sendNodeList(client *ipc.Client) {
	ok := int32(1)
	body, err := m.nodesJSON()
	if err != nil {
		ok = 0
		body = err.Error()
	}

	data := ipc.PutInt32(nil, ok)
	data = ipc.PutString(data, body)

	if err := client.Send(ipc.CodeGetNodes, data); err != nil {
		m.logger.Warn("cannot reply to get nodes request", zap.Error(err))
	}
}

// removeNodeByIndex deletes a node by its 1-based position in the
// node-ID-ordered list, refusing to remove live nodes.
func (m *Manager) removeNodeByIndex(index int) error {
	if err := m.store.Begin(); err != nil {
		m.abortTx(nil, err)
		return errors.New("database connection problem")
	}

	nodes, err := m.store.Nodes(true)
	if err != nil {
		m.abortTx(nil, err)
		return errors.New("database connection problem")
	}

	index--
	if index < 0 || index >= len(nodes) {
		m.store.Rollback()
		return errors.New("node index out of range")
	}
	node := nodes[index]

	if node.Status.Live() {
		m.store.Rollback()
		return fmt.Errorf("node is %s", node.Status)
	}

	if err := m.store.DeleteNode(node.ID); err != nil {
		m.abortTx(nil, err)
		return errors.New("database connection problem")
	}

	rec := registry.NewAuditRecorder(m.info.AuditEnabled)
	rec.Append(registry.AuditDelete, registry.AuditEntityNode, node.ID, node.Name)
	if err := rec.Flush(m.store); err != nil {
		m.abortTx(rec, err)
		return errors.New("database connection problem")
	}

	if err := m.store.Commit(); err != nil {
		m.abortTx(rec, err)
		return errors.New("database connection problem")
	}

	m.logger.Warn("removed HA node",
		zap.String(logging.FieldNodeID, node.ID),
		zap.String(logging.FieldNodeName, node.Name),
	)
	return nil
}

// removeNode services a RemoveNode request and replies with the error
// string, empty on success.
func (m *Manager) removeNode(client *ipc.Client, msg *ipc.Message) {
	errStr := ""

	index, _, err := ipc.Int32(msg.Data)
	if err != nil {
		errStr = err.Error()
	} else if err := m.removeNodeByIndex(int(index)); err != nil {
		errStr = err.Error()
	}

	if err := client.Send(ipc.CodeRemoveNode, ipc.PutString(nil, errStr)); err != nil {
		m.logger.Warn("cannot reply to remove node request", zap.Error(err))
	}
}

// setFailoverDelay services a SetFailoverDelay request: the config row
// is read and updated under one lock, audited, and the in-memory delay
// refreshed. The reply carries the error string, empty on success.
func (m *Manager) setFailoverDelay(client *ipc.Client, msg *ipc.Message) {
	errStr := ""

	delay, _, err := ipc.Int32(msg.Data)
	if err != nil {
		errStr = err.Error()
	} else if err := m.applyFailoverDelay(int(delay)); err != nil {
		errStr = err.Error()
	}

	if err := client.Send(ipc.CodeSetFailoverDelay, ipc.PutString(nil, errStr)); err != nil {
		m.logger.Warn("cannot reply to set failover delay request", zap.Error(err))
	}
}

func (m *Manager) applyFailoverDelay(delay int) error {
	if err := m.store.Begin(); err != nil {
		m.abortTx(nil, err)
		return errors.New("database error")
	}

	configID, old, err := m.store.UpdateFailoverDelay(delay)
	if err != nil {
		m.abortTx(nil, err)
		return errors.New("database error")
	}

	rec := registry.NewAuditRecorder(m.info.AuditEnabled)
	entry := rec.Append(registry.AuditUpdate, registry.AuditEntitySettings, configID, "")
	entry.Change("ha_failover_delay", strconv.Itoa(old), strconv.Itoa(delay))
	if err := rec.Flush(m.store); err != nil {
		m.abortTx(rec, err)
		return errors.New("database error")
	}

	if err := m.store.Commit(); err != nil {
		m.abortTx(rec, err)
		return errors.New("database error")
	}

	m.info.FailoverDelay = delay
	m.logger.Warn("HA failover delay changed", zap.Int(logging.FieldFailoverDelay, delay))
	return nil
}

// observeTick updates the HA metrics after a tick.
func (m *Manager) observeTick(old registry.NodeStatus) {
	outcome := "ok"
	if !m.store.Connected() {
		outcome = "offline"
	}
	metrics.HATicksTotal.WithLabelValues(outcome).Inc()
	metrics.HAStatus.Set(float64(m.info.Status))

	connected := 0.0
	if m.store.Connected() {
		connected = 1.0
	}
	metrics.HADBConnected.Set(connected)

	if old != m.info.Status {
		metrics.HAStatusTransitions.WithLabelValues(old.String(), m.info.Status.String()).Inc()
		m.logger.Info("HA status changed",
			zap.String("from", old.String()),
			zap.String(logging.FieldHAStatus, m.info.Status.String()),
		)
	}
}
