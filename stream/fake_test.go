package stream

import (
	"context"
	"errors"
	"io"
	"sync"
)

// fakeTransport hands out a single scripted exchange.
type fakeTransport struct {
	ex      *fakeExchange
	openErr error

	mu  sync.Mutex
	req Request
}

func (t *fakeTransport) Open(_ context.Context, req Request) (Exchange, error) {
	t.mu.Lock()
	t.req = req
	t.mu.Unlock()
	if t.openErr != nil {
		return nil, t.openErr
	}
	return t.ex, nil
}

func (t *fakeTransport) request() Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.req
}

// fakeExchange delivers updates pushed on its channel. A closed channel
// surfaces as an unexpected EOF.
type fakeExchange struct {
	updates chan Update
	// ack, when set, must receive one value per Send before Send returns.
	ack     chan struct{}
	sendErr error

	mu         sync.Mutex
	sent       [][]byte
	sendClosed bool
	closed     bool
}

func newFakeExchange(buffer int) *fakeExchange {
	return &fakeExchange{updates: make(chan Update, buffer)}
}

// scripted returns an exchange that replays updates in order.
func scripted(updates ...Update) *fakeExchange {
	ex := newFakeExchange(len(updates))
	for _, u := range updates {
		ex.updates <- u
	}
	return ex
}

func (e *fakeExchange) Recv(ctx context.Context) (Update, error) {
	select {
	case u, ok := <-e.updates:
		if !ok {
			return Update{}, io.ErrUnexpectedEOF
		}
		return u, nil
	case <-ctx.Done():
		return Update{}, ctx.Err()
	}
}

func (e *fakeExchange) Send(ctx context.Context, chunk []byte) error {
	if e.sendErr != nil {
		return e.sendErr
	}
	if e.ack != nil {
		select {
		case <-e.ack:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sendClosed {
		return errors.New("send after close")
	}
	e.sent = append(e.sent, append([]byte(nil), chunk...))
	return nil
}

func (e *fakeExchange) CloseSend() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sendClosed = true
	return nil
}

func (e *fakeExchange) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

func (e *fakeExchange) sentChunks() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.sent))
	for i, c := range e.sent {
		out[i] = string(c)
	}
	return out
}

func (e *fakeExchange) isClosed() (sendClosed, closed bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sendClosed, e.closed
}

// growing builds 200 OK updates whose snapshots accumulate parts; the last
// update is final.
func growing(parts ...string) []Update {
	var snap []byte
	updates := make([]Update, len(parts))
	for i, p := range parts {
		snap = append(snap, p...)
		updates[i] = Update{
			StatusCode: 200,
			StatusText: "OK",
			Snapshot:   append([]byte(nil), snap...),
			Final:      i == len(parts)-1,
		}
	}
	return updates
}

// recorder is a Sink that records everything it receives.
type recorder[T any] struct {
	mu     sync.Mutex
	values []T
	finals []bool
	errs   []*Error
	done   int

	onValue func(v T, final bool)
}

func (r *recorder[T]) Value(v T, final bool) {
	r.mu.Lock()
	r.values = append(r.values, v)
	r.finals = append(r.finals, final)
	r.mu.Unlock()
	if r.onValue != nil {
		r.onValue(v, final)
	}
}

func (r *recorder[T]) Fail(err *Error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recorder[T]) Done() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done++
}

func (r *recorder[T]) snapshot() ([]T, []bool, []*Error, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.values...), append([]bool(nil), r.finals...), append([]*Error(nil), r.errs...), r.done
}

func equalSlices[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
