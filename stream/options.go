package stream

import (
	"github.com/kbukum/streamcall/logger"
	"github.com/kbukum/streamcall/observability"
)

// Option configures a Session and the exchange driving it.
type Option func(*options)

type options struct {
	id      string
	mode    Mode
	framer  func() Framer
	log     *logger.Logger
	metrics *observability.StreamMetrics
}

func newOptions(opts []Option) options {
	o := options{mode: ModeFramed}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Get("stream")
	}
	return o
}

// WithMode sets the session mode. Defaults to ModeFramed.
func WithMode(m Mode) Option {
	return func(o *options) { o.mode = m }
}

// WithFramer sets the framer factory used in ModeFramed. Each session gets
// its own framer. Defaults to NewLineFramer.
func WithFramer(newFramer func() Framer) Option {
	return func(o *options) { o.framer = newFramer }
}

// WithEvents frames the stream as Server-Sent Events.
func WithEvents() Option {
	return WithFramer(func() Framer { return NewEventFramer() })
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithID sets the session identifier instead of a generated UUID.
func WithID(id string) Option {
	return func(o *options) { o.id = id }
}

// WithMetrics records session metrics on m.
func WithMetrics(m *observability.StreamMetrics) Option {
	return func(o *options) { o.metrics = m }
}
