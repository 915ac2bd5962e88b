package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Availability errors. Retryable.
const (
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeConnectionFailed   ErrorCode = "CONNECTION_FAILED"
	ErrCodeTimeout            ErrorCode = "TIMEOUT"
	ErrCodeRateLimited        ErrorCode = "RATE_LIMITED"
	ErrCodeCircuitOpen        ErrorCode = "CIRCUIT_OPEN"
	ErrCodeBusy               ErrorCode = "BUSY"
)

// Request errors.
const (
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeMethodNotAllowed ErrorCode = "METHOD_NOT_ALLOWED"
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrCodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden        ErrorCode = "FORBIDDEN"
)

// Exchange errors.
const (
	// ErrCodeUpstreamStatus wraps a non-success status returned by the remote endpoint.
	ErrCodeUpstreamStatus ErrorCode = "UPSTREAM_STATUS"
	// ErrCodeDecodeFailed reports a response token that could not be decoded.
	ErrCodeDecodeFailed ErrorCode = "DECODE_FAILED"
	// ErrCodeProtocol reports a transport that broke the append-only contract.
	ErrCodeProtocol  ErrorCode = "PROTOCOL_VIOLATION"
	ErrCodeCancelled ErrorCode = "CANCELLED"
	ErrCodeInternal  ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeConnectionFailed:   true,
	ErrCodeTimeout:            true,
	ErrCodeRateLimited:        true,
	ErrCodeCircuitOpen:        true,
	ErrCodeBusy:               true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
