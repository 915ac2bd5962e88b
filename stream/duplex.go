package stream

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"github.com/kbukum/streamcall/logger"
)

// Duplex is an exchange whose request body is produced incrementally while
// response values are delivered. The two directions run independently.
type Duplex[T any] struct {
	*Subscription[T]

	producer Producer
	sent     atomic.Int64
	sendDone chan struct{}
	sendErr  error
}

// StartDuplex opens req as a streamed request on tr. Chunks from producer
// are sent strictly in order, each only after the previous one was accepted
// by the transport. A producer error closes the outbound side; inbound
// delivery still runs to its own end.
func StartDuplex[T any](ctx context.Context, tr Transport, req Request, dec Decoder[T], sink Sink[T], producer Producer, opts ...Option) *Duplex[T] {
	req.Streamed = true
	d := &Duplex[T]{
		Subscription: Start(ctx, tr, req, dec, sink, opts...),
		producer:     producer,
		sendDone:     make(chan struct{}),
	}
	go d.outbound()
	return d
}

// Sent returns the number of chunks accepted by the transport.
func (d *Duplex[T]) Sent() int { return int(d.sent.Load()) }

// WaitSend blocks until the outbound side is finished and returns the
// producer or send error, if any.
func (d *Duplex[T]) WaitSend() error {
	<-d.sendDone
	return d.sendErr
}

// Wait blocks until both directions are finished and returns the inbound
// session error.
func (d *Duplex[T]) Wait() error {
	err := d.Subscription.Wait()
	<-d.sendDone
	return err
}

func (d *Duplex[T]) outbound() {
	defer close(d.sendDone)
	log := d.session.log.WithComponent("duplex")

	if c, ok := d.producer.(io.Closer); ok {
		defer func() { _ = c.Close() }()
	}

	select {
	case <-d.opened:
	case <-d.done:
	}
	if d.ex == nil {
		d.sendErr = d.openErr
		return
	}
	defer func() {
		if err := d.ex.CloseSend(); err != nil {
			log.Debug("close send failed", logger.ErrorFields("close_send", err))
		}
	}()

	ctx := d.ctx
	for {
		chunk, err := d.producer.Next(ctx)
		if errors.Is(err, io.EOF) {
			log.Debug("outbound finished", logger.Fields(logger.FieldChunks, d.sent.Load()))
			return
		}
		if err != nil {
			d.sendErr = err
			log.Warn("producer failed, closing outbound", logger.ErrorFields("produce", err))
			return
		}
		if err := d.ex.Send(ctx, chunk); err != nil {
			if errors.Is(err, context.Canceled) {
				d.sendErr = err
			} else {
				d.sendErr = NewTransportError(err)
			}
			log.Warn("send failed", logger.ErrorFields("send", err))
			return
		}
		d.sent.Add(1)
		if d.opts.metrics != nil {
			d.opts.metrics.RecordOutbound(ctx, len(chunk))
		}
	}
}
