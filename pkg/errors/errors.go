// Package errors defines the normalized error taxonomy for the console.
//
// Every failure that crosses the ledger boundary is normalized to one of the
// kinds below before it reaches transport or surfacing code. System kinds
// (ledger-unavailable, network-timeout, network-error, unknown) are treated
// as transient and offered a retry; the remaining kinds are terminal for the
// attempt and require user correction or escalation.
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a normalized failure.
type Kind string

const (
	KindValidation             Kind = "validation"
	KindNotFound               Kind = "not-found"
	KindInsufficientPrivileges Kind = "insufficient-privileges"
	KindVersionConflict        Kind = "version-conflict"
	KindLedgerUnavailable      Kind = "ledger-unavailable"
	KindNetworkTimeout         Kind = "network-timeout"
	KindNetworkError           Kind = "network-error"
	KindUnknown                Kind = "unknown"
)

// Retryable reports whether the kind is a system fault worth retrying.
func (k Kind) Retryable() bool {
	switch k {
	case KindLedgerUnavailable, KindNetworkTimeout, KindNetworkError, KindUnknown:
		return true
	default:
		return false
	}
}

// Error is a normalized failure with a support-quotable id.
type Error struct {
	ID        string         `json:"id"`
	Kind      Kind           `json:"kind"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	Context   map[string]any `json:"context,omitempty"`

	cause error
}

// New constructs a normalized error with a fresh error id.
func New(kind Kind, message string) *Error {
	return &Error{
		ID:        "err_" + uuid.NewString()[:8],
		Kind:      kind,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Wrap normalizes an underlying error while preserving it for errors.Is/As.
func Wrap(err error, kind Kind, message string) *Error {
	e := New(kind, message)
	e.cause = err
	return e
}

// WithContext attaches key/value context used by the copy-details blob.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Details renders the structured blob placed on the clipboard by the
// "copy details" affordance: id, kind, message, timestamp, context.
func (e *Error) Details() json.RawMessage {
	b, err := json.Marshal(e)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return b
}

// AsError extracts a normalized *Error, or nil if err carries none.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// KindOf returns the normalized kind of err, defaulting to unknown.
func KindOf(err error) Kind {
	if e := AsError(err); e != nil {
		return e.Kind
	}
	return KindUnknown
}

// Normalize converts an arbitrary failure into a normalized Error. Raw
// transport exceptions must never reach surfacing code, so callers funnel
// every ledger/network error through here.
func Normalize(err error) *Error {
	if err == nil {
		return nil
	}
	if e := AsError(err); e != nil {
		return e
	}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(err, KindNetworkTimeout, "request timed out")
	case errors.As(err, &netErr) && netErr.Timeout():
		return Wrap(err, KindNetworkTimeout, "request timed out")
	case strings.Contains(strings.ToLower(err.Error()), "unavailable"):
		return Wrap(err, KindLedgerUnavailable, "ledger service is unavailable")
	case isTransport(err):
		return Wrap(err, KindNetworkError, "network request failed")
	default:
		return Wrap(err, KindUnknown, err.Error())
	}
}

func isTransport(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "eof")
}

// FromStatus maps a ledger HTTP status and error envelope to a kind.
func FromStatus(status int, code, message string) *Error {
	if message == "" {
		message = code
	}
	kind := KindUnknown
	switch status {
	case http.StatusBadRequest:
		kind = KindValidation
	case http.StatusNotFound:
		kind = KindNotFound
	case http.StatusForbidden, http.StatusUnauthorized:
		kind = KindInsufficientPrivileges
	case http.StatusConflict:
		kind = KindVersionConflict
	case http.StatusServiceUnavailable:
		kind = KindLedgerUnavailable
	}
	return New(kind, message).WithContext("ledger_error", code)
}

// ToHTTPStatus maps a kind back onto the status the console API returns.
func ToHTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindInsufficientPrivileges:
		return http.StatusForbidden
	case KindVersionConflict:
		return http.StatusConflict
	case KindLedgerUnavailable:
		return http.StatusServiceUnavailable
	case KindNetworkTimeout:
		return http.StatusGatewayTimeout
	case KindNetworkError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
