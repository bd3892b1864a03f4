package m1xep

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrConnConfigNil is returned when an option is applied to a nil configuration.
	ErrConnConfigNil = errors.New("m1xep: connection config is nil")
	// ErrTimeout indicates that no matching response arrived in time, see TimeoutError.
	ErrTimeout = errors.New("m1xep: request timeout")
	// ErrConnClosed is returned to requests outstanding when the connection is closed.
	ErrConnClosed = errors.New("m1xep: connection closed")
	// ErrNotConnected is returned when a frame is sent while the connection is not established.
	ErrNotConnected = errors.New("m1xep: not connected")
	// ErrTransport wraps socket level failures such as refused or reset connections.
	ErrTransport = errors.New("m1xep: transport error")
	// ErrAuthFailed is returned when the login handshake does not complete.
	ErrAuthFailed = errors.New("m1xep: authentication failed")
	// ErrReconnectExhausted is reported when the reconnect policy gives up.
	ErrReconnectExhausted = errors.New("m1xep: reconnect attempts exhausted")
	// ErrUnexpectedMessage is returned when a response cannot be converted to the expected report.
	ErrUnexpectedMessage = errors.New("m1xep: unexpected response message")
)

// TimeoutError is returned by Correlator.Request when the response did not arrive in time.
// It matches ErrTimeout with errors.Is.
type TimeoutError struct {
	// Command is the command code of the request frame.
	Command string
	// ResponseType is the type code the request was waiting for.
	ResponseType string
	Timeout      time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("m1xep: command %q timed out after %s waiting for %q", e.Command, e.Timeout, e.ResponseType)
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }

func transportErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrTransport, op, err)
}
