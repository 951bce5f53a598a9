package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors covering the workflow error taxonomy.
var (
	ErrNotFound     = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden    = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrInternal     = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")

	// ErrValidation rejects malformed input before any mutation happens.
	ErrValidation = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	// ErrStateConflict reports a transition attempted from an incompatible
	// state; the caller should refresh and retry the correct action.
	ErrStateConflict = New("STATE_CONFLICT", http.StatusConflict, "operation not allowed in current state")
	// ErrConcurrency is transient: the identifier-scope lock could not be
	// acquired in time and the whole transaction should be retried.
	ErrConcurrency = New("CONCURRENCY_ERROR", http.StatusConflict, "concurrent allocation conflict, retry the operation")
	// ErrIntegrity rejects destructive actions on entities still referenced
	// by protected relationships.
	ErrIntegrity = New("INTEGRITY_ERROR", http.StatusConflict, "entity is referenced and cannot be removed")
	// ErrAdvisory marks classification oracle failures; callers downgrade it
	// to a warning and fall back to manual input.
	ErrAdvisory = New("ADVISORY_ERROR", http.StatusBadGateway, "classification advisory unavailable")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// IsRetryable reports whether the error is transient and the whole
// transaction may be retried by the caller.
func IsRetryable(err error) bool {
	e := FromError(err)
	return e != nil && e.Code == ErrConcurrency.Code
}
