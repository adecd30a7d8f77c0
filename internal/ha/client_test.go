package ha

import (
	"path/filepath"
	"testing"
	"time"

	"haven.io/server/internal/ipc"
	"haven.io/server/internal/logging"
	"haven.io/server/internal/registry"
)

// fakeManager is a bare message service standing in for the manager,
// so heartbeat bookkeeping can be driven with a fake clock.
type fakeManager struct {
	svc    *ipc.Service
	client *ipc.Client
}

func newFakeManager(t *testing.T) (*fakeManager, *Client, *time.Time) {
	t.Helper()

	sock := filepath.Join(t.TempDir(), "ha.sock")
	svc, err := ipc.Listen(sock, logging.NewNop().Logger)
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	t.Cleanup(svc.Close)

	conn, err := ipc.Dial(sock, time.Second)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := conn.Send(ipc.CodeRegister, nil); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	client, msg, err := svc.Recv(time.Second)
	if err != nil || msg == nil || msg.Code != ipc.CodeRegister {
		t.Fatalf("service recv failed: msg=%v err=%v", msg, err)
	}

	now := time.Unix(1000000, 0)
	c := &Client{
		cfg: ClientConfig{
			NodeName:   "a",
			SocketPath: sock,
			TickPeriod: DefaultTickPeriod,
		},
		logger:        logging.NewNop(),
		status:        registry.StatusUnknown,
		failoverDelay: registry.DefaultFailoverDelay,
		conn:          conn,
		now:           func() time.Time { return now },
	}

	return &fakeManager{svc: svc, client: client}, c, &now
}

func (f *fakeManager) sendStatus(t *testing.T, status registry.NodeStatus, delay int, reason string) {
	t.Helper()

	data := ipc.PutInt32(nil, int32(status))
	data = ipc.PutInt32(data, int32(delay))
	data = ipc.PutString(data, reason)
	if err := f.client.Send(ipc.CodeStatusUpdate, data); err != nil {
		t.Fatalf("send status failed: %v", err)
	}
}

func (f *fakeManager) sendHeartbeat(t *testing.T) {
	t.Helper()
	if err := f.client.Send(ipc.CodeHeartbeat, nil); err != nil {
		t.Fatalf("send heartbeat failed: %v", err)
	}
}

func TestReceiveStatusDrainsToLatest(t *testing.T) {
	m, c, _ := newFakeManager(t)

	m.sendStatus(t, registry.StatusStandby, 60, "")
	m.sendStatus(t, registry.StatusActive, 60, "")

	status, err := c.ReceiveStatus(time.Second)
	if err != nil {
		t.Fatalf("receive failed: %v", err)
	}
	if status != registry.StatusActive {
		t.Fatalf("status = %v, want active (latest frame wins)", status)
	}
}

func TestReceiveStatusErrorFrame(t *testing.T) {
	m, c, _ := newFakeManager(t)

	m.sendStatus(t, registry.StatusError, 60, "found active duplicate \"a\" node")

	_, err := c.ReceiveStatus(time.Second)
	if err == nil {
		t.Fatal("expected error status to surface as error")
	}
	if err.Error() != "found active duplicate \"a\" node" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHeartbeatLossDemotesActive(t *testing.T) {
	m, c, now := newFakeManager(t)

	m.sendStatus(t, registry.StatusActive, 60, "")
	status, err := c.ReceiveStatus(time.Second)
	if err != nil || status != registry.StatusActive {
		t.Fatalf("initial status: %v, %v", status, err)
	}

	// Heartbeats keep arriving: stay active.
	*now = now.Add(30 * time.Second)
	m.sendHeartbeat(t)
	status, err = c.ReceiveStatus(time.Second)
	if err != nil || status != registry.StatusActive {
		t.Fatalf("status with heartbeats: %v, %v", status, err)
	}

	// Silence for failover delay minus one tick period: demote.
	*now = now.Add(60*time.Second - DefaultTickPeriod)
	status, err = c.ReceiveStatus(10 * time.Millisecond)
	if err != nil {
		t.Fatalf("receive failed: %v", err)
	}
	if status != registry.StatusStandby {
		t.Fatalf("expected auto-demotion to standby, got %v", status)
	}
}

func TestHeartbeatLossIgnoredInStandaloneMode(t *testing.T) {
	m, c, now := newFakeManager(t)
	c.cfg.NodeName = ""

	m.sendStatus(t, registry.StatusActive, 60, "")
	if _, err := c.ReceiveStatus(time.Second); err != nil {
		t.Fatalf("receive failed: %v", err)
	}

	*now = now.Add(10 * time.Minute)
	status, err := c.ReceiveStatus(10 * time.Millisecond)
	if err != nil {
		t.Fatalf("receive failed: %v", err)
	}
	if status != registry.StatusActive {
		t.Fatalf("standalone node must not auto-demote, got %v", status)
	}
}

func TestHeartbeatLossIgnoredWhileStandby(t *testing.T) {
	m, c, now := newFakeManager(t)

	m.sendStatus(t, registry.StatusStandby, 60, "")
	if _, err := c.ReceiveStatus(time.Second); err != nil {
		t.Fatalf("receive failed: %v", err)
	}

	*now = now.Add(10 * time.Minute)
	status, err := c.ReceiveStatus(10 * time.Millisecond)
	if err != nil {
		t.Fatalf("receive failed: %v", err)
	}
	if status != registry.StatusStandby {
		t.Fatalf("standby node must stay standby, got %v", status)
	}
}

func TestFailoverDelayUpdateTracked(t *testing.T) {
	m, c, _ := newFakeManager(t)

	m.sendStatus(t, registry.StatusActive, 30, "")
	if _, err := c.ReceiveStatus(time.Second); err != nil {
		t.Fatalf("receive failed: %v", err)
	}
	if c.FailoverDelay() != 30 {
		t.Fatalf("failover delay = %d, want 30", c.FailoverDelay())
	}
}

func TestSetFailoverDelayBounds(t *testing.T) {
	_, c, _ := newFakeManager(t)

	if err := c.SetFailoverDelay(MinFailoverDelay - 1); err == nil {
		t.Fatal("expected too-small delay to be rejected")
	}
	if err := c.SetFailoverDelay(MaxFailoverDelay + 1); err == nil {
		t.Fatal("expected too-large delay to be rejected")
	}
}
