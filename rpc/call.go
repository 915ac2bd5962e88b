package rpc

import (
	"context"

	"github.com/kbukum/streamcall/logger"
	"github.com/kbukum/streamcall/stream"
)

// Call invokes a unary endpoint and decodes the whole reply as one value.
func Call[T any](ctx context.Context, c *Client, ep Endpoint, args Args, dec stream.Decoder[T], opts ...CallOption) (T, error) {
	var zero T
	o := newCallOptions(opts)
	req, err := buildRequest(ep, args, false, o)
	if err != nil {
		return zero, err
	}

	release, err := c.acquire(ctx)
	if err != nil {
		return zero, err
	}
	defer release()

	var (
		value T
		got   bool
	)
	sink := stream.Callbacks[T]{OnValue: func(v T, _ bool) { value, got = v, true }}
	if err := stream.Call(ctx, c.transport, req, dec, sink, c.options(stream.ModeWhole, o)...); err != nil {
		c.log.Debug("call failed", logger.ErrorFields(ep.String(), err))
		return zero, err
	}
	if !got {
		return zero, nil
	}
	return value, nil
}

// Stream invokes a streaming endpoint and returns an iterator over its
// line-framed values. The caller must Close the iterator.
func Stream[T any](ctx context.Context, c *Client, ep Endpoint, args Args, dec stream.Decoder[T], opts ...CallOption) (*stream.Iterator[T], error) {
	o := newCallOptions(opts)
	req, err := buildRequest(ep, args, false, o)
	if err != nil {
		return nil, err
	}
	release, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}

	it := stream.Open(ctx, c.transport, req, dec, c.options(stream.ModeFramed, o)...)
	go func() {
		<-it.Done()
		release()
	}()
	return it, nil
}

// Subscribe invokes a streaming endpoint and delivers its values into
// sink from a background goroutine.
func Subscribe[T any](ctx context.Context, c *Client, ep Endpoint, args Args, dec stream.Decoder[T], sink stream.Sink[T], opts ...CallOption) (*stream.Subscription[T], error) {
	o := newCallOptions(opts)
	req, err := buildRequest(ep, args, false, o)
	if err != nil {
		return nil, err
	}
	release, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}

	sub := stream.Start(ctx, c.transport, req, dec, sink, c.options(stream.ModeFramed, o)...)
	go func() {
		<-sub.Done()
		release()
	}()
	return sub, nil
}

// Duplex invokes an endpoint with a streamed request body produced by
// producer while its values are delivered into sink.
func Duplex[T any](ctx context.Context, c *Client, ep Endpoint, args Args, dec stream.Decoder[T], sink stream.Sink[T], producer stream.Producer, opts ...CallOption) (*stream.Duplex[T], error) {
	o := newCallOptions(opts)
	req, err := buildRequest(ep, args, true, o)
	if err != nil {
		return nil, err
	}
	release, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}

	d := stream.StartDuplex(ctx, c.transport, req, dec, sink, producer, c.options(stream.ModeFramed, o)...)
	go func() {
		_ = d.Wait()
		release()
	}()
	return d, nil
}
