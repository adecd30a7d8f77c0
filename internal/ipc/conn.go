package ipc

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"
)

// Conn is a client connection to the message service, used by the
// parent process for its notification stream and for ephemeral
// administrative exchanges.
type Conn struct {
	conn net.Conn
}

// Dial connects to the service socket, retrying until the service is
// listening or the timeout elapses. The retry covers the window where
// the manager has been started but has not created its socket yet.
func Dial(path string, timeout time.Duration) (*Conn, error) {
	deadline := time.Now().Add(timeout)

	for {
		conn, err := net.DialTimeout("unix", path, timeout)
		if err == nil {
			return &Conn{conn: conn}, nil
		}

		if !errors.Is(err, os.ErrNotExist) && !isRefused(err) {
			return nil, fmt.Errorf("cannot connect to %s: %w", path, err)
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("cannot connect to %s: %w", path, err)
		}

		time.Sleep(50 * time.Millisecond)
	}
}

func isRefused(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// Send writes a frame within the service timeout.
func (c *Conn) Send(code uint32, data []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(ServiceTimeout)); err != nil {
		return err
	}
	return writeMessage(c.conn, code, data)
}

// Recv waits up to timeout for the next frame. On timeout it returns
// (nil, nil) so the caller can distinguish an idle channel from a
// broken one.
func (c *Conn) Recv(timeout time.Duration) (*Message, error) {
	if timeout <= 0 {
		// Immediate poll: a tiny deadline drains already buffered frames.
		timeout = time.Millisecond
	}
	if err := c.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}

	msg, err := readMessage(c.conn)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, nil
		}
		return nil, err
	}
	return msg, nil
}

// Close closes the connection.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// Exchange performs a request/response round trip on a fresh
// connection, leaving the caller's notification stream untouched.
func Exchange(path string, code uint32, data []byte, timeout time.Duration) ([]byte, error) {
	conn, err := Dial(path, timeout)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := conn.Send(code, data); err != nil {
		return nil, err
	}

	msg, err := conn.Recv(timeout)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, fmt.Errorf("timeout waiting for reply to message %d", code)
	}
	if msg.Code != code {
		return nil, fmt.Errorf("unexpected reply code %d to message %d", msg.Code, code)
	}

	return msg.Data, nil
}
