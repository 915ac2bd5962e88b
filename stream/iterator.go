package stream

import (
	"context"
	"iter"
	"sync"
	"sync/atomic"
)

// Iterator is the pull-shaped consumer of an exchange. Values are handed
// over one at a time; the exchange does not read ahead of the consumer by
// more than one transport update.
type Iterator[T any] struct {
	parent context.Context
	sub    *Subscription[T]
	values chan result[T]
	quit   chan struct{}

	err       error
	used      atomic.Bool
	closeOnce sync.Once
}

type result[T any] struct {
	v   T
	err *Error
}

// Open starts an exchange and returns an iterator over its values.
func Open[T any](ctx context.Context, tr Transport, req Request, dec Decoder[T], opts ...Option) *Iterator[T] {
	it := &Iterator[T]{
		parent: ctx,
		values: make(chan result[T]),
		quit:   make(chan struct{}),
	}
	sink := &pullSink[T]{values: it.values, quit: it.quit, ctxDone: ctx.Done()}
	it.sub = Start(ctx, tr, req, dec, Sink[T](sink), opts...)
	go func() {
		<-it.sub.done
		close(it.values)
	}()
	return it
}

// ID returns the session identifier.
func (it *Iterator[T]) ID() string { return it.sub.ID() }

// Done is closed when the exchange ends.
func (it *Iterator[T]) Done() <-chan struct{} { return it.sub.Done() }

// Next returns the next value. It returns (zero, false, nil) when the
// exchange completed, and the session error at the point it occurred.
func (it *Iterator[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if it.err != nil {
		return zero, false, it.err
	}
	select {
	case r, ok := <-it.values:
		if !ok {
			// Cancelled by the caller's context rather than completed.
			if err := it.parent.Err(); err != nil && it.sub.session.State() == StateAbandoned {
				it.err = err
				return zero, false, err
			}
			return zero, false, nil
		}
		if r.err != nil {
			it.err = r.err
			return zero, false, r.err
		}
		return r.v, true, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

// All returns the values as a sequence. The sequence can be ranged over
// once; later ranges yield nothing. Breaking out of the loop closes the
// iterator.
func (it *Iterator[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		if !it.used.CompareAndSwap(false, true) {
			return
		}
		for {
			v, ok, err := it.Next(context.Background())
			if err != nil {
				yield(v, err)
				return
			}
			if !ok {
				return
			}
			if !yield(v, nil) {
				_ = it.Close()
				return
			}
		}
	}
}

// Close abandons the exchange and waits for it to stop.
func (it *Iterator[T]) Close() error {
	it.closeOnce.Do(func() {
		close(it.quit)
		it.sub.Abandon()
	})
	<-it.sub.done
	return nil
}

type pullSink[T any] struct {
	values  chan<- result[T]
	quit    <-chan struct{}
	ctxDone <-chan struct{}
}

func (p *pullSink[T]) Value(v T, _ bool) {
	p.send(result[T]{v: v})
}

func (p *pullSink[T]) Fail(err *Error) {
	p.send(result[T]{err: err})
}

func (p *pullSink[T]) send(r result[T]) {
	select {
	case p.values <- r:
	case <-p.quit:
	case <-p.ctxDone:
	}
}

func (p *pullSink[T]) Done() {}
