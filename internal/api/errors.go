package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrAuthRequired indicates there is no usable credential. Fatal to the
// session; surfaced immediately rather than retried.
type ErrAuthRequired struct {
	Err error
}

func (e *ErrAuthRequired) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication required: %v", e.Err)
	}
	return "authentication required"
}

func (e *ErrAuthRequired) Unwrap() error { return e.Err }

// ErrValidation indicates a malformed answer rejected before or by the
// server. Recoverable by re-prompting; never worth a retry as-is.
type ErrValidation struct {
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Message)
}

// ErrNetwork indicates a connectivity failure. Timeout distinguishes a
// bounded-interval expiry from a connection error so the UI can say which.
type ErrNetwork struct {
	Timeout bool
	Err     error
}

func (e *ErrNetwork) Error() string {
	if e.Timeout {
		return fmt.Sprintf("request timed out: %v", e.Err)
	}
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *ErrNetwork) Unwrap() error { return e.Err }

// ErrServer indicates a 5xx-equivalent response. Retriable by manual
// user action.
type ErrServer struct {
	Status int
	Err    error
}

func (e *ErrServer) Error() string {
	return fmt.Sprintf("server error (HTTP %d): %v", e.Status, e.Err)
}

func (e *ErrServer) Unwrap() error { return e.Err }

// ErrDataInconsistency indicates a response that parsed but does not
// conform to the endpoint's schema, or local state that cannot be
// reconciled. Fatal; the session is discarded rather than silently
// patched.
type ErrDataInconsistency struct {
	Payload json.RawMessage
	Err     error
}

func (e *ErrDataInconsistency) Error() string {
	return fmt.Sprintf("inconsistent data: %v", e.Err)
}

func (e *ErrDataInconsistency) Unwrap() error { return e.Err }

// IsAuthRequired reports whether err is (or wraps) a missing-credential
// failure.
func IsAuthRequired(err error) bool {
	var authErr *ErrAuthRequired
	return errors.As(err, &authErr)
}

// IsTimeout reports whether err is a network failure caused by the
// bounded request interval expiring.
func IsTimeout(err error) bool {
	var netErr *ErrNetwork
	return errors.As(err, &netErr) && netErr.Timeout
}

// Retriable reports whether re-invoking the failed operation with the
// same inputs can succeed. Validation, auth and inconsistency errors
// cannot; network and server errors can.
func Retriable(err error) bool {
	var netErr *ErrNetwork
	if errors.As(err, &netErr) {
		return true
	}
	var srvErr *ErrServer
	return errors.As(err, &srvErr)
}
