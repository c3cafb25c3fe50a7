// Package airerrors holds the typed sentinel errors the RTSP handlers
// return, and the HTTP status each maps to (spec.md §7's error taxonomy).
package airerrors

import (
	"fmt"
	"net/http"
)

// httpStatus is implemented by errors that carry an explicit HTTP status;
// StatusCode falls back to 500 for anything that doesn't.
type httpStatus interface {
	Status() int
}

// StatusCode returns the HTTP status a handler should reply with for err.
func StatusCode(err error) int {
	if s, ok := err.(httpStatus); ok {
		return s.Status()
	}
	return http.StatusInternalServerError
}

// ErrMalformedRequest is returned when a request body is too short or
// otherwise structurally invalid for the handler that received it.
type ErrMalformedRequest struct {
	Reason string
}

// Error implements the error interface.
func (e ErrMalformedRequest) Error() string {
	return fmt.Sprintf("malformed request: %s", e.Reason)
}

// Status implements httpStatus.
func (e ErrMalformedRequest) Status() int { return http.StatusBadRequest }

// ErrAuthenticationFailed is returned by the legacy pair-verify path on a
// signature or proof mismatch; HomeKit pair-setup surfaces its own
// TLV8-encoded error code instead of an HTTP status for the equivalent
// failure.
type ErrAuthenticationFailed struct {
	Reason string
}

// Error implements the error interface.
func (e ErrAuthenticationFailed) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

// Status implements httpStatus.
func (e ErrAuthenticationFailed) Status() int { return http.StatusInternalServerError }

// ErrWrongState is returned when a request arrives for a pairing or setup
// state machine that isn't in the state the request requires.
type ErrWrongState struct {
	Reason string
}

// Error implements the error interface.
func (e ErrWrongState) Error() string {
	return fmt.Sprintf("wrong state: %s", e.Reason)
}

// Status implements httpStatus.
func (e ErrWrongState) Status() int { return http.StatusForbidden }

// ErrUnknownCodec is returned when a SETUP request's audio format does not
// resolve to a table entry.
type ErrUnknownCodec struct {
	AudioFormat uint64
}

// Error implements the error interface.
func (e ErrUnknownCodec) Error() string {
	return fmt.Sprintf("unknown codec for audioFormat %#x", e.AudioFormat)
}

// Status implements httpStatus.
func (e ErrUnknownCodec) Status() int { return http.StatusBadRequest }

// ErrNetworkSetup is returned when a stream's ephemeral listener or socket
// cannot be created.
type ErrNetworkSetup struct {
	Err error
}

// Error implements the error interface.
func (e ErrNetworkSetup) Error() string {
	return fmt.Sprintf("network setup failed: %v", e.Err)
}

// Unwrap allows errors.Is/As to reach the underlying cause.
func (e ErrNetworkSetup) Unwrap() error { return e.Err }

// Status implements httpStatus.
func (e ErrNetworkSetup) Status() int { return http.StatusInternalServerError }

// ErrSessionNotFound is returned when a request references a session id
// the server has no record of.
type ErrSessionNotFound struct {
	SessionID string
}

// Error implements the error interface.
func (e ErrSessionNotFound) Error() string {
	return fmt.Sprintf("session %q not found", e.SessionID)
}

// Status implements httpStatus.
func (e ErrSessionNotFound) Status() int { return http.StatusNotFound }
