// Package errors provides the service-facing error type: a machine-readable
// code, an HTTP status, a retryable flag and a JSON response envelope.
package errors
