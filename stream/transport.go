package stream

import (
	"context"
)

// Update is one transport event. Snapshot is the whole payload received so
// far, not a delta; its length never decreases within an exchange.
type Update struct {
	// StatusCode is the transport status code (HTTP semantics).
	StatusCode int
	// StatusText is the status line text, e.g. "Not Found".
	StatusText string
	// Snapshot is the accumulated response payload.
	Snapshot []byte
	// Final is true for the last update of the exchange.
	Final bool
}

// Total returns the number of bytes received so far.
func (u Update) Total() int {
	return len(u.Snapshot)
}

// Success reports whether the status code is in [200,299].
func (u Update) Success() bool {
	return u.StatusCode >= 200 && u.StatusCode < 300
}

// Request describes the exchange to open. Building URLs and bodies from
// call arguments belongs to the caller.
type Request struct {
	// Method is the HTTP method.
	Method string
	// URL is the fully built target URL.
	URL string
	// Headers are request headers.
	Headers map[string]string
	// Body is a fixed request body. Ignored when Streamed is true.
	Body []byte
	// Streamed marks a request whose body is produced incrementally via
	// Exchange.Send.
	Streamed bool
}

// Transport opens exchanges. Implementations live outside this package
// (httpclient, wsclient).
type Transport interface {
	Open(ctx context.Context, req Request) (Exchange, error)
}

// Exchange is one open request/response pair.
type Exchange interface {
	// Recv blocks for the next update. After an update with Final set, or
	// an error, Recv must not be called again.
	Recv(ctx context.Context) (Update, error)
	// Send transmits one outbound chunk and returns once the transport has
	// accepted it.
	Send(ctx context.Context, chunk []byte) error
	// CloseSend finalizes the outbound direction.
	CloseSend() error
	// Close releases the exchange.
	Close() error
}
