// Package ipc implements the local message service connecting the HA
// manager with its parent process.
//
// Messages are length-prefixed frames over a unix-domain socket:
// a 4-byte message code, a 4-byte payload length and the payload,
// all little-endian. Delivery is reliable and ordered per connection.
package ipc

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// Message codes exchanged between the parent process and the HA manager.
const (
	// CodeRegister announces the parent's notification connection.
	CodeRegister uint32 = 1

	// CodeStatusUpdate requests an immediate status frame (parent to
	// manager, empty payload) or carries one (manager to parent).
	CodeStatusUpdate uint32 = 2

	// CodePause stops the manager's tick loop, keeping a slow
	// lastaccess refresh until CodeStop arrives.
	CodePause uint32 = 3

	// CodeStop shuts the manager down.
	CodeStop uint32 = 4

	// CodeGetNodes requests the node list as JSON.
	CodeGetNodes uint32 = 5

	// CodeRemoveNode requests deletion of a node by 1-based index.
	CodeRemoveNode uint32 = 6

	// CodeSetFailoverDelay updates the global failover delay.
	CodeSetFailoverDelay uint32 = 7

	// CodeLogLevelIncrease raises manager log verbosity one step.
	CodeLogLevelIncrease uint32 = 8

	// CodeLogLevelDecrease lowers manager log verbosity one step.
	CodeLogLevelDecrease uint32 = 9

	// CodeHeartbeat is the manager's per-tick liveness signal.
	CodeHeartbeat uint32 = 10
)

// ServiceTimeout bounds every send, flush and receive on the service.
const ServiceTimeout = 5 * time.Second

// MaxPayload bounds a single frame; the node list JSON is the largest
// payload and stays far below this.
const MaxPayload = 16 << 20

// Message is one decoded frame.
type Message struct {
	Code uint32
	Data []byte
}

// header is the fixed frame prefix: code and payload length.
const headerSize = 8

func writeMessage(w io.Writer, code uint32, data []byte) error {
	if len(data) > MaxPayload {
		return fmt.Errorf("ipc payload of %d bytes exceeds limit", len(data))
	}

	// One buffer, one write: a receiver draining with a short poll
	// deadline must never observe a split frame.
	frame := make([]byte, headerSize+len(data))
	binary.LittleEndian.PutUint32(frame[0:], code)
	binary.LittleEndian.PutUint32(frame[4:], uint32(len(data)))
	copy(frame[headerSize:], data)

	_, err := w.Write(frame)
	return err
}

func readMessage(r io.Reader) (*Message, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}

	code := binary.LittleEndian.Uint32(hdr[0:])
	size := binary.LittleEndian.Uint32(hdr[4:])
	if size > MaxPayload {
		return nil, fmt.Errorf("ipc frame of %d bytes exceeds limit", size)
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}

	return &Message{Code: code, Data: data}, nil
}

// PutInt32 appends a little-endian int32 to a payload buffer.
func PutInt32(buf []byte, v int32) []byte {
	return binary.LittleEndian.AppendUint32(buf, uint32(v))
}

// Int32 decodes a little-endian int32, returning the remaining bytes.
func Int32(buf []byte) (int32, []byte, error) {
	if len(buf) < 4 {
		return 0, nil, fmt.Errorf("ipc payload truncated: need 4 bytes, have %d", len(buf))
	}
	return int32(binary.LittleEndian.Uint32(buf)), buf[4:], nil
}

// PutString appends a length-prefixed string to a payload buffer.
func PutString(buf []byte, s string) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}

// String decodes a length-prefixed string, returning the remaining bytes.
func String(buf []byte) (string, []byte, error) {
	if len(buf) < 4 {
		return "", nil, fmt.Errorf("ipc payload truncated: need 4 bytes, have %d", len(buf))
	}
	size := binary.LittleEndian.Uint32(buf)
	buf = buf[4:]
	if uint32(len(buf)) < size {
		return "", nil, fmt.Errorf("ipc payload truncated: need %d bytes, have %d", size, len(buf))
	}
	return string(buf[:size]), buf[size:], nil
}
