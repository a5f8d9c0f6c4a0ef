package errors

import (
	stderr "errors"
	"fmt"
	"time"
)

// ProcessSpawnError indicates that a backend process could not be started,
// either because the interpreter is missing or the spawn was rejected by the
// OS. It is fatal to that start attempt and never retried automatically.
type ProcessSpawnError struct {
	Interpreter string
	Err         error
}

// Error is an implementation of the error interface.
func (e *ProcessSpawnError) Error() string {
	return fmt.Sprintf("spawning backend with interpreter %q: %v", e.Interpreter, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProcessSpawnError) Unwrap() error {
	return e.Err
}

// ConnectionError indicates a failure to dial, write to, or read from a
// backend socket. A port claimed by another process between allocation and
// the backend's own bind also surfaces here.
type ConnectionError struct {
	Addr string
	Err  error
}

// Error is an implementation of the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("backend connection %s: %v", e.Addr, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// RequestTimeout indicates that a backend request exceeded its response
// budget. The connection it was issued on is discarded, never reused.
type RequestTimeout struct {
	Addr    string
	Elapsed time.Duration
}

// Error is an implementation of the error interface.
func (e *RequestTimeout) Error() string {
	return fmt.Sprintf("backend request to %s timed out after %s", e.Addr, e.Elapsed)
}

// ProtocolError indicates a malformed, truncated, or oversized backend frame.
type ProtocolError struct {
	Reason string
}

// Error is an implementation of the error interface.
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("backend protocol violation: %s", e.Reason)
}

// IsRequestTimeout reports whether RequestTimeout is part of the error chain.
func IsRequestTimeout(e error) bool {
	var t *RequestTimeout
	return stderr.As(e, &t)
}

// IsSpawnFailure reports whether ProcessSpawnError is part of the error chain.
func IsSpawnFailure(e error) bool {
	var s *ProcessSpawnError
	return stderr.As(e, &s)
}
