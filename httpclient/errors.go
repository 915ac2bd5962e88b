package httpclient

import (
	"errors"
	"fmt"

	"github.com/kbukum/streamcall/resilience"
)

// ErrNotStreamed is returned by Send and CloseSend on an exchange whose
// request body was fixed at open.
var ErrNotStreamed = errors.New("httpclient: request body is not streamed")

// ErrorCode classifies failures to open an exchange. Non-success statuses
// are not errors here; they are reported as updates.
type ErrorCode int

const (
	// ErrCodeTimeout indicates response headers did not arrive in time.
	ErrCodeTimeout ErrorCode = iota
	// ErrCodeConnection indicates a connection failure (refused, DNS, reset).
	ErrCodeConnection
	// ErrCodeValidation indicates a request that could not be built.
	ErrCodeValidation
	// ErrCodeCircuitOpen indicates the circuit breaker rejected the open.
	ErrCodeCircuitOpen
	// ErrCodeServer marks a 5xx response for the circuit breaker.
	ErrCodeServer
)

// String returns the error code name.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeTimeout:
		return "timeout"
	case ErrCodeConnection:
		return "connection"
	case ErrCodeValidation:
		return "validation"
	case ErrCodeCircuitOpen:
		return "circuit_open"
	case ErrCodeServer:
		return "server"
	default:
		return "unknown"
	}
}

// Error is a classified transport error.
type Error struct {
	// StatusCode is set for ErrCodeServer only.
	StatusCode int
	Code       ErrorCode
	Message    string
	Retryable  bool
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("httpclient: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("httpclient: %s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewTimeoutError creates a timeout error.
func NewTimeoutError(err error) *Error {
	return &Error{Code: ErrCodeTimeout, Message: err.Error(), Retryable: true, Err: err}
}

// NewConnectionError creates a connection error.
func NewConnectionError(err error) *Error {
	return &Error{Code: ErrCodeConnection, Message: err.Error(), Retryable: true, Err: err}
}

// NewValidationError creates a request construction error.
func NewValidationError(msg string) *Error {
	return &Error{Code: ErrCodeValidation, Message: msg}
}

// NewCircuitOpenError wraps a breaker rejection.
func NewCircuitOpenError(name string) *Error {
	return &Error{
		Code:    ErrCodeCircuitOpen,
		Message: fmt.Sprintf("breaker %q is open", name),
		Err:     resilience.ErrCircuitOpen,
	}
}

// ClassifyStatusCode returns an error for 5xx statuses, which count as
// failures for the circuit breaker, and nil otherwise.
func ClassifyStatusCode(statusCode int) *Error {
	if statusCode < 500 {
		return nil
	}
	return &Error{
		StatusCode: statusCode,
		Code:       ErrCodeServer,
		Message:    fmt.Sprintf("HTTP %d", statusCode),
		Retryable:  statusCode != 501,
	}
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeTimeout
}

// IsConnection checks if an error is a connection error.
func IsConnection(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeConnection
}

// IsCircuitOpen checks if the breaker rejected the open.
func IsCircuitOpen(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeCircuitOpen
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}
