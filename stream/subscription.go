package stream

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/streamcall/logger"
	"github.com/kbukum/streamcall/observability"
)

// SpanExchange is the span name for one exchange.
const SpanExchange = "stream.exchange"

// Subscription is a running exchange delivering into a Sink.
type Subscription[T any] struct {
	session *Session[T]
	opts    options
	ctx     context.Context
	cancel  context.CancelFunc

	opened  chan struct{}
	ex      Exchange
	openErr error

	done chan struct{}
}

// Start opens req on tr and delivers decoded values into sink from a
// background goroutine. Open failures are reported through the sink like
// any other transport error.
func Start[T any](ctx context.Context, tr Transport, req Request, dec Decoder[T], sink Sink[T], opts ...Option) *Subscription[T] {
	o := newOptions(opts)
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription[T]{
		session: newSession(dec, sink, o),
		opts:    o,
		ctx:     ctx,
		cancel:  cancel,
		opened:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	go sub.run(tr, req)
	return sub
}

// Call runs one exchange to completion, delivering into sink. It returns the
// session error, if any.
func Call[T any](ctx context.Context, tr Transport, req Request, dec Decoder[T], sink Sink[T], opts ...Option) error {
	return Start(ctx, tr, req, dec, sink, opts...).Wait()
}

// ID returns the session identifier.
func (s *Subscription[T]) ID() string { return s.session.ID() }

// Session returns the underlying session.
func (s *Subscription[T]) Session() *Session[T] { return s.session }

// Abandon stops sink delivery and closes the exchange.
func (s *Subscription[T]) Abandon() {
	s.session.Abandon()
	s.cancel()
}

// Wait blocks until the exchange ends and returns the session error.
func (s *Subscription[T]) Wait() error {
	<-s.done
	return s.session.Err()
}

// Done is closed when the exchange ends.
func (s *Subscription[T]) Done() <-chan struct{} { return s.done }

func (s *Subscription[T]) run(tr Transport, req Request) {
	ctx := s.ctx
	stop := context.AfterFunc(ctx, s.session.Abandon)
	defer func() {
		stop()
		s.cancel()
		close(s.done)
	}()

	ctx, span := observability.StartSpan(ctx, SpanExchange, trace.WithAttributes(
		attribute.String(observability.AttrSessionID, s.session.ID()),
		attribute.String(observability.AttrMode, s.session.Mode().String()),
		attribute.String("http.method", req.Method),
		attribute.String("http.url", req.URL),
	))
	defer span.End()

	start := time.Now()
	mode := s.session.Mode().String()
	if s.opts.metrics != nil {
		s.opts.metrics.RecordSessionStart(ctx, mode)
	}

	s.pump(ctx, tr, req)

	state := s.session.State()
	span.SetAttributes(
		attribute.String(observability.AttrState, state.String()),
		attribute.Int(observability.AttrValues, s.session.Delivered()),
		attribute.Int(observability.AttrBytes, s.session.Consumed()),
	)
	if err := s.session.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if s.opts.metrics != nil {
		s.opts.metrics.RecordSessionEnd(ctx, mode, state.String(),
			s.session.Delivered(), s.session.Consumed(), time.Since(start))
	}
}

func (s *Subscription[T]) pump(ctx context.Context, tr Transport, req Request) {
	ex, err := tr.Open(ctx, req)
	if err != nil {
		s.openErr = err
		close(s.opened)
		s.session.Fail(err)
		return
	}
	s.ex = ex
	close(s.opened)
	defer func() {
		if err := ex.Close(); err != nil {
			s.session.log.Debug("exchange close failed", logger.ErrorFields("close", err))
		}
	}()

	for {
		u, err := ex.Recv(ctx)
		if err != nil {
			s.session.Fail(err)
			return
		}
		s.session.Handle(u)
		if u.Final || s.session.State().Terminal() {
			return
		}
	}
}
