package errors

import (
	"fmt"
	"net/http"
)

// AppError is the service-facing error type.
type AppError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	Retryable  bool           `json:"retryable"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Cause      error          `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates an AppError; retryability follows the code.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// ServiceUnavailable reports a temporarily unavailable dependency.
func ServiceUnavailable(service string) *AppError {
	return New(ErrCodeServiceUnavailable, fmt.Sprintf("%s is temporarily unavailable", service), http.StatusServiceUnavailable).
		WithDetail("service", service)
}

// ConnectionFailed reports a connection that could not be established or broke.
func ConnectionFailed(target string, cause error) *AppError {
	return New(ErrCodeConnectionFailed, fmt.Sprintf("connection to %s failed", target), http.StatusBadGateway).
		WithDetail("target", target).WithCause(cause)
}

// Timeout reports an operation that ran out of time.
func Timeout(operation string) *AppError {
	return New(ErrCodeTimeout, fmt.Sprintf("%s timed out", operation), http.StatusGatewayTimeout).
		WithDetail("operation", operation)
}

// RateLimited reports a request rejected by a rate limiter.
func RateLimited() *AppError {
	return New(ErrCodeRateLimited, "too many requests", http.StatusTooManyRequests)
}

// CircuitOpen reports a request rejected by an open circuit breaker.
func CircuitOpen(name string) *AppError {
	return New(ErrCodeCircuitOpen, fmt.Sprintf("circuit %s is open", name), http.StatusServiceUnavailable).
		WithDetail("circuit", name)
}

// Busy reports a request rejected because too many calls are in flight.
func Busy(name string) *AppError {
	return New(ErrCodeBusy, fmt.Sprintf("%s is at capacity", name), http.StatusServiceUnavailable).
		WithDetail("bulkhead", name)
}

// NotFound reports an unknown route or resource.
func NotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound).
		WithDetail("resource", resource)
}

// MethodNotAllowed reports a route called with the wrong HTTP method.
func MethodNotAllowed(method, path string) *AppError {
	return New(ErrCodeMethodNotAllowed, fmt.Sprintf("%s not allowed on %s", method, path), http.StatusMethodNotAllowed)
}

// InvalidInput reports a bad argument.
func InvalidInput(field, reason string) *AppError {
	e := New(ErrCodeInvalidInput, fmt.Sprintf("invalid input: %s", reason), http.StatusBadRequest)
	if field != "" {
		e.WithDetail("field", field)
	}
	return e
}

// Unauthorized reports missing or rejected credentials.
func Unauthorized(reason string) *AppError {
	if reason == "" {
		reason = "authentication required"
	}
	return New(ErrCodeUnauthorized, reason, http.StatusUnauthorized)
}

// Forbidden reports a caller without permission.
func Forbidden(reason string) *AppError {
	if reason == "" {
		reason = "permission denied"
	}
	return New(ErrCodeForbidden, reason, http.StatusForbidden)
}

// UpstreamStatus reports a non-success status from the remote endpoint,
// keeping its code and reason.
func UpstreamStatus(status int, reason string) *AppError {
	e := New(ErrCodeUpstreamStatus, reason, http.StatusBadGateway).WithDetail("status", status)
	switch {
	case status == http.StatusTooManyRequests, status == http.StatusServiceUnavailable,
		status == http.StatusBadGateway, status == http.StatusGatewayTimeout:
		e.Retryable = true
	}
	return e
}

// DecodeFailed reports a response token that could not be decoded.
func DecodeFailed(literal string, cause error) *AppError {
	return New(ErrCodeDecodeFailed, fmt.Sprintf("cannot decode %q", literal), http.StatusBadGateway).
		WithDetail("literal", literal).WithCause(cause)
}

// ProtocolViolation reports a transport that broke its contract.
func ProtocolViolation(reason string) *AppError {
	return New(ErrCodeProtocol, reason, http.StatusBadGateway)
}

// Cancelled reports an operation the caller gave up on.
func Cancelled(operation string) *AppError {
	return New(ErrCodeCancelled, fmt.Sprintf("%s cancelled", operation), 499)
}

// Internal reports an unexpected failure.
func Internal(cause error) *AppError {
	return New(ErrCodeInternal, "an unexpected error occurred", http.StatusInternalServerError).WithCause(cause)
}

// FromHTTPStatus maps a response status to the closest AppError.
func FromHTTPStatus(status int, message string) *AppError {
	var code ErrorCode
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		code = ErrCodeInvalidInput
	case http.StatusUnauthorized:
		code = ErrCodeUnauthorized
	case http.StatusForbidden:
		code = ErrCodeForbidden
	case http.StatusNotFound:
		code = ErrCodeNotFound
	case http.StatusMethodNotAllowed:
		code = ErrCodeMethodNotAllowed
	case http.StatusTooManyRequests:
		code = ErrCodeRateLimited
	case http.StatusServiceUnavailable:
		code = ErrCodeServiceUnavailable
	case http.StatusGatewayTimeout:
		code = ErrCodeTimeout
	default:
		code = ErrCodeInternal
	}
	return New(code, message, status)
}
