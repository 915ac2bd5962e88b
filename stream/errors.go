package stream

import (
	"errors"
	"fmt"
)

// Kind classifies stream errors.
type Kind int

const (
	// KindTransport indicates a network or connection failure unrelated to status.
	KindTransport Kind = iota
	// KindStatus indicates a status code outside the success range.
	KindStatus
	// KindConversion indicates a token that could not be decoded.
	KindConversion
	// KindProtocol indicates the transport reported fewer bytes than already consumed.
	KindProtocol
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindConversion:
		return "conversion"
	case KindProtocol:
		return "protocol_violation"
	default:
		return "unknown"
	}
}

// Error is a classified stream error. None of the kinds are retried by
// this package.
type Error struct {
	// Kind classifies the error.
	Kind Kind
	// StatusCode is the transport status code (0 unless Kind is KindStatus).
	StatusCode int
	// Reason is the status text and body for status errors, or a description.
	Reason string
	// Literal is the offending token for conversion failures.
	Literal string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("stream: %s (HTTP %d): %s", e.Kind, e.StatusCode, e.Reason)
	case KindConversion:
		return fmt.Sprintf("stream: %s: cannot decode %q: %s", e.Kind, e.Literal, e.Reason)
	default:
		return fmt.Sprintf("stream: %s: %s", e.Kind, e.Reason)
	}
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewTransportError wraps a connection-level failure.
func NewTransportError(err error) *Error {
	return &Error{
		Kind:   KindTransport,
		Reason: err.Error(),
		Err:    err,
	}
}

// NewStatusError creates a status error. The reason joins statusText and
// body with ": " when both are present.
func NewStatusError(statusCode int, statusText, body string) *Error {
	return &Error{
		Kind:       KindStatus,
		StatusCode: statusCode,
		Reason:     joinReason(statusText, body),
	}
}

// NewConversionError creates a conversion failure for the given literal.
func NewConversionError(literal string, err error) *Error {
	reason := "conversion failed"
	if err != nil {
		reason = err.Error()
	}
	return &Error{
		Kind:    KindConversion,
		Reason:  reason,
		Literal: literal,
		Err:     err,
	}
}

// NewProtocolError reports a snapshot that shrank below the consumed offset.
func NewProtocolError(consumed, total int) *Error {
	return &Error{
		Kind:   KindProtocol,
		Reason: fmt.Sprintf("snapshot length %d is below consumed offset %d", total, consumed),
	}
}

func joinReason(statusText, body string) string {
	switch {
	case statusText == "":
		return body
	case body == "":
		return statusText
	default:
		return statusText + ": " + body
	}
}

// AsError extracts a *Error from err. Errors that are not classified are
// reported as transport errors.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return NewTransportError(err)
}

// IsTransport checks if err is a transport error.
func IsTransport(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindTransport
}

// IsStatus checks if err is a status error.
func IsStatus(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindStatus
}

// IsConversion checks if err is a conversion failure.
func IsConversion(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindConversion
}

// IsProtocol checks if err is a protocol violation.
func IsProtocol(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindProtocol
}
