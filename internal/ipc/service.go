package ipc

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Service is the manager-side message service. It accepts any number
// of client connections and delivers their messages to a single
// receiver through Recv, preserving per-client ordering.
type Service struct {
	listener net.Listener
	logger   *zap.Logger

	events chan event
	closed chan struct{}

	mu      sync.Mutex
	clients map[*Client]struct{}
}

type event struct {
	client *Client
	msg    *Message
}

// Client is one accepted connection. Replies are sent on the same
// client the request arrived on.
type Client struct {
	conn net.Conn

	mu sync.Mutex
}

// Listen starts the message service on a unix-domain socket path.
// A stale socket file from a previous run is removed first.
func Listen(path string, logger *zap.Logger) (*Service, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("cannot remove stale socket %s: %w", path, err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("cannot listen on %s: %w", path, err)
	}

	s := &Service{
		listener: listener,
		logger:   logger,
		events:   make(chan event, 64),
		closed:   make(chan struct{}),
		clients:  make(map[*Client]struct{}),
	}

	go s.acceptLoop()

	return s, nil
}

func (s *Service) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.closed:
				return
			default:
			}
			s.logger.Warn("ipc accept failed", zap.Error(err))
			continue
		}

		client := &Client{conn: conn}
		s.mu.Lock()
		s.clients[client] = struct{}{}
		s.mu.Unlock()

		go s.readLoop(client)
	}
}

func (s *Service) readLoop(client *Client) {
	defer func() {
		s.mu.Lock()
		delete(s.clients, client)
		s.mu.Unlock()
		client.conn.Close()
	}()

	for {
		msg, err := readMessage(client.conn)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.logger.Debug("ipc client read failed", zap.Error(err))
			}
			return
		}

		select {
		case s.events <- event{client: client, msg: msg}:
		case <-s.closed:
			return
		}
	}
}

// Recv waits up to timeout for the next client message. On timeout it
// returns all nil values; the caller proceeds with its tick.
func (s *Service) Recv(timeout time.Duration) (*Client, *Message, error) {
	if timeout <= 0 {
		select {
		case ev := <-s.events:
			return ev.client, ev.msg, nil
		case <-s.closed:
			return nil, nil, net.ErrClosed
		default:
			return nil, nil, nil
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ev := <-s.events:
		return ev.client, ev.msg, nil
	case <-timer.C:
		return nil, nil, nil
	case <-s.closed:
		return nil, nil, net.ErrClosed
	}
}

// Close shuts the service down and disconnects all clients.
func (s *Service) Close() {
	select {
	case <-s.closed:
		return
	default:
	}
	close(s.closed)
	s.listener.Close()

	s.mu.Lock()
	for client := range s.clients {
		client.conn.Close()
	}
	s.mu.Unlock()
}

// Send writes a frame to the client within the service timeout.
func (c *Client) Send(code uint32, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(ServiceTimeout)); err != nil {
		return err
	}
	return writeMessage(c.conn, code, data)
}
