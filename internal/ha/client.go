package ha

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"haven.io/server/internal/ipc"
	"haven.io/server/internal/logging"
	"haven.io/server/internal/registry"
	"haven.io/server/internal/util"
)

// Failover delay bounds accepted from operators.
const (
	MinFailoverDelay = 10
	MaxFailoverDelay = 15 * 60
)

// ClientConfig holds the parent-side facade configuration.
type ClientConfig struct {
	// NodeName is the cluster node name, empty for standalone mode.
	NodeName string

	// NodeAddress is the endpoint published in the registry.
	NodeAddress string

	// SocketPath is the manager's message service socket.
	SocketPath string

	// TickPeriod overrides the manager tick period, for tests.
	TickPeriod time.Duration
}

// Client is the API the embedding server uses to run and talk to the
// HA manager. It owns the notification connection and performs the
// standby auto-demotion safety net when manager heartbeats stop.
//
// ReceiveStatus must be called serially; the administrative calls open
// ephemeral connections and may be used from any goroutine.
type Client struct {
	cfg    ClientConfig
	logger *logging.Logger

	manager *Manager
	cancel  context.CancelFunc
	runErr  chan error

	conn *ipc.Conn

	// mu guards status and failoverDelay: ReceiveStatus runs on the
	// main goroutine while HTTP handlers read the values.
	mu            sync.RWMutex
	status        registry.NodeStatus
	failoverDelay int
	lastHeartbeat time.Time

	// For testing - allow overriding time functions.
	now func() time.Time
}

// NewClient creates the facade and its manager. The session identifier
// is generated here, once per process, and never changes while the
// process lives.
func NewClient(cfg ClientConfig, store *registry.Store, logger *logging.Logger) *Client {
	if cfg.TickPeriod <= 0 {
		cfg.TickPeriod = DefaultTickPeriod
	}

	manager := NewManager(ManagerConfig{
		NodeName:    cfg.NodeName,
		NodeAddress: cfg.NodeAddress,
		SocketPath:  cfg.SocketPath,
		SessionID:   util.NewID(),
		TickPeriod:  cfg.TickPeriod,
	}, store, logger)

	return &Client{
		cfg:           cfg,
		logger:        logger,
		manager:       manager,
		runErr:        make(chan error, 1),
		status:        registry.StatusUnknown,
		failoverDelay: registry.DefaultFailoverDelay,
		now:           time.Now,
	}
}

// NewAdminClient creates a facade for administrative exchanges with an
// already running manager, without starting one. Only the ephemeral
// operations (GetNodes, RemoveNode, SetFailoverDelay) may be used.
func NewAdminClient(socketPath string) *Client {
	return &Client{
		cfg: ClientConfig{
			SocketPath: socketPath,
			TickPeriod: DefaultTickPeriod,
		},
		logger:        logging.NewNop(),
		status:        registry.StatusUnknown,
		failoverDelay: registry.DefaultFailoverDelay,
		now:           time.Now,
	}
}

// IsCluster reports whether this node is configured as a cluster member.
func (c *Client) IsCluster() bool {
	return c.cfg.NodeName != ""
}

// Status returns the last status delivered by ReceiveStatus.
func (c *Client) Status() registry.NodeStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// FailoverDelay returns the last failover delay the manager reported.
func (c *Client) FailoverDelay() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.failoverDelay
}

func (c *Client) setStatus(status registry.NodeStatus) {
	c.mu.Lock()
	c.status = status
	c.mu.Unlock()
}

func (c *Client) setFailoverDelay(seconds int) {
	c.mu.Lock()
	c.failoverDelay = seconds
	c.mu.Unlock()
}

// Start launches the HA manager, connects the notification stream and
// registers this process as the manager's parent.
//
// Parameters:
//   - ctx: Cancellation for the manager loop (Kill)
//   - initialStatus: StatusUnknown to register, or a prior persisted status
//
// Returns:
//   - error: Any error starting the manager or its connection
func (c *Client) Start(ctx context.Context, initialStatus registry.NodeStatus) error {
	ctx, c.cancel = context.WithCancel(ctx)

	go func() {
		c.runErr <- c.manager.Run(ctx, initialStatus)
	}()

	select {
	case <-c.manager.Ready():
	case err := <-c.runErr:
		if err == nil {
			err = errors.New("HA manager exited before serving")
		}
		return fmt.Errorf("cannot start HA manager: %w", err)
	case <-time.After(ipc.ServiceTimeout):
		c.cancel()
		return errors.New("timeout waiting for HA manager service")
	}

	conn, err := ipc.Dial(c.cfg.SocketPath, ipc.ServiceTimeout)
	if err != nil {
		c.cancel()
		return fmt.Errorf("cannot connect to HA manager service: %w", err)
	}
	c.conn = conn

	if err := conn.Send(ipc.CodeRegister, nil); err != nil {
		c.cancel()
		conn.Close()
		return fmt.Errorf("cannot send message to HA manager service: %w", err)
	}

	return nil
}

// RequestStatus asks the manager for an immediate status update, to be
// collected by a following ReceiveStatus.
func (c *Client) RequestStatus() error {
	if err := c.conn.Send(ipc.CodeStatusUpdate, nil); err != nil {
		return fmt.Errorf("cannot send message to HA manager service: %w", err)
	}
	return nil
}

// ReceiveStatus waits up to timeout for manager notifications, drains
// everything pending and returns the most recent status.
//
// While draining it tracks heartbeats. If this node is a cluster
// member that believes itself active and no heartbeat arrived for
// failover delay minus one tick period, the returned status is forced
// to standby: the safety net against a manager hung inside the
// database driver.
func (c *Client) ReceiveStatus(timeout time.Duration) (registry.NodeStatus, error) {
	wait := timeout

	for {
		msg, err := c.conn.Recv(wait)
		if err != nil {
			return registry.StatusError, fmt.Errorf("cannot receive message from HA manager service: %w", err)
		}
		if msg == nil {
			break
		}

		now := c.now()

		switch msg.Code {
		case ipc.CodeStatusUpdate:
			status, rest, err := ipc.Int32(msg.Data)
			if err != nil {
				return registry.StatusError, err
			}
			delay, rest, err := ipc.Int32(rest)
			if err != nil {
				return registry.StatusError, err
			}
			reason, _, err := ipc.String(rest)
			if err != nil {
				return registry.StatusError, err
			}

			if registry.NodeStatus(status) == registry.StatusError {
				return registry.StatusError, errors.New(reason)
			}

			c.setFailoverDelay(int(delay))

			// A status change counts as liveness.
			if c.Status() != registry.NodeStatus(status) {
				c.lastHeartbeat = now
			}
			c.setStatus(registry.NodeStatus(status))

		case ipc.CodeHeartbeat:
			c.lastHeartbeat = now
		}

		// Drain whatever else is already queued.
		wait = 0
	}

	now := c.now()
	if c.IsCluster() && c.Status() == registry.StatusActive && !c.lastHeartbeat.IsZero() {
		deadline := c.lastHeartbeat.Add(time.Duration(c.FailoverDelay())*time.Second - c.cfg.TickPeriod)
		if !now.Before(deadline) || now.Before(c.lastHeartbeat) {
			c.logger.Warn("no HA heartbeats received, switching to standby mode")
			c.setStatus(registry.StatusStandby)
		}
	}

	return c.Status(), nil
}

// Pause stops the manager's tick loop ahead of a normal shutdown. The
// manager keeps refreshing its lease until Stop arrives.
func (c *Client) Pause() error {
	if err := c.conn.Send(ipc.CodePause, nil); err != nil {
		return fmt.Errorf("cannot send message to HA manager service: %w", err)
	}
	return nil
}

// Stop shuts the manager down and waits for it to finish. The manager
// records the stopped status in the registry on its way out.
func (c *Client) Stop() error {
	if err := c.conn.Send(ipc.CodeStop, nil); err != nil {
		return fmt.Errorf("cannot send message to HA manager service: %w", err)
	}

	err := <-c.runErr
	c.close()
	return err
}

// Kill terminates the manager without a clean registry update and
// releases the connection.
func (c *Client) Kill() {
	c.cancel()
	<-c.runErr
	c.close()
}

func (c *Client) close() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// GetNodes returns the registry contents as a JSON array. It uses an
// ephemeral connection so the notification stream stays untouched.
func (c *Client) GetNodes() (string, error) {
	data, err := ipc.Exchange(c.cfg.SocketPath, ipc.CodeGetNodes, nil, ipc.ServiceTimeout)
	if err != nil {
		return "", err
	}

	ok, rest, err := ipc.Int32(data)
	if err != nil {
		return "", err
	}
	body, _, err := ipc.String(rest)
	if err != nil {
		return "", err
	}

	if ok != 1 {
		return "", errors.New(body)
	}
	return body, nil
}

// RemoveNode deletes a node by its 1-based index in the node list.
// Live nodes are refused by the manager.
func (c *Client) RemoveNode(index int) error {
	data, err := ipc.Exchange(c.cfg.SocketPath, ipc.CodeRemoveNode,
		ipc.PutInt32(nil, int32(index)), ipc.ServiceTimeout)
	if err != nil {
		return err
	}

	errStr, _, err := ipc.String(data)
	if err != nil {
		return err
	}
	if errStr != "" {
		return errors.New(errStr)
	}
	return nil
}

// SetFailoverDelay updates the cluster-wide failover delay.
func (c *Client) SetFailoverDelay(seconds int) error {
	if seconds < MinFailoverDelay || seconds > MaxFailoverDelay {
		return fmt.Errorf("failover delay must be between %d and %d seconds", MinFailoverDelay, MaxFailoverDelay)
	}

	data, err := ipc.Exchange(c.cfg.SocketPath, ipc.CodeSetFailoverDelay,
		ipc.PutInt32(nil, int32(seconds)), ipc.ServiceTimeout)
	if err != nil {
		return err
	}

	errStr, _, err := ipc.String(data)
	if err != nil {
		return err
	}
	if errStr != "" {
		return errors.New(errStr)
	}
	return nil
}

// ChangeLogLevel adjusts the manager's log verbosity: positive
// direction increases it, negative decreases.
func (c *Client) ChangeLogLevel(direction int) error {
	code := ipc.CodeLogLevelDecrease
	if direction > 0 {
		code = ipc.CodeLogLevelIncrease
	}

	if err := c.conn.Send(code, nil); err != nil {
		return fmt.Errorf("cannot send message to HA manager service: %w", err)
	}
	return nil
}
