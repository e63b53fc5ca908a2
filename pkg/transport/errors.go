package transport

import (
	"errors"
	"fmt"
)

// ErrClosed is returned for operations on a client after Disconnect.
// A disconnected client is terminal; construct a new one to reconnect.
var ErrClosed = errors.New("transport closed")

// NotConnectedError is returned when an operation requires an open socket
// and there is none. Callers retry at their own discretion; the transport
// never queues outbound frames.
type NotConnectedError struct {
	Op string
}

func (e *NotConnectedError) Error() string {
	return fmt.Sprintf("%s: not connected", e.Op)
}

// AuthenticationError carries the server-supplied reason from an auth_error
// frame.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Message)
}

// TransportError wraps a connection-level failure (dial, write). These are
// transient; a close on an established connection schedules a reconnect.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
