package rpc

import (
	"context"
	"fmt"
	"time"

	"github.com/kbukum/streamcall/config"
	"github.com/kbukum/streamcall/httpclient"
	"github.com/kbukum/streamcall/logger"
	"github.com/kbukum/streamcall/observability"
	"github.com/kbukum/streamcall/resilience"
	"github.com/kbukum/streamcall/stream"
	"github.com/kbukum/streamcall/wsclient"
)

// Transport names.
const (
	TransportHTTP = "http"
	TransportWS   = "ws"
)

// Config configures a Client.
type Config struct {
	// BaseURL is the remote host, e.g. "http://localhost:8080".
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`
	// Transport is "http" (default) or "ws".
	Transport string `yaml:"transport" mapstructure:"transport" validate:"omitempty,oneof=http ws"`
	// MaxConcurrent bounds calls in flight. 0 disables the bulkhead.
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent" validate:"gte=0"`
	// MaxWait is how long a call waits for a free slot.
	MaxWait time.Duration `yaml:"max_wait" mapstructure:"max_wait"`

	HTTP httpclient.Config `yaml:"http" mapstructure:"http"`
	WS   wsclient.Config   `yaml:"ws" mapstructure:"ws"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Transport == "" {
		c.Transport = TransportHTTP
	}
	if c.HTTP.BaseURL == "" {
		c.HTTP.BaseURL = c.BaseURL
	}
	if c.WS.BaseURL == "" {
		c.WS.BaseURL = c.BaseURL
	}
	c.HTTP.ApplyDefaults()
	c.WS.ApplyDefaults()
}

// Validate checks the struct tags.
func (c *Config) Validate() error {
	return config.Validate(c)
}

// Client issues calls over one transport.
type Client struct {
	transport  stream.Transport
	bulkhead   *resilience.Bulkhead
	streamOpts []stream.Option
	log        *logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBulkhead bounds concurrent calls.
func WithBulkhead(cfg resilience.BulkheadConfig) Option {
	return func(c *Client) { c.bulkhead = resilience.NewBulkhead(cfg) }
}

// WithStreamOptions applies opts to every call.
func WithStreamOptions(opts ...stream.Option) Option {
	return func(c *Client) { c.streamOpts = append(c.streamOpts, opts...) }
}

// WithMetrics records stream metrics for every call.
func WithMetrics(m *observability.StreamMetrics) Option {
	return WithStreamOptions(stream.WithMetrics(m))
}

// New builds the transport named by cfg and returns a client on it.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		tr  stream.Transport
		err error
	)
	switch cfg.Transport {
	case TransportWS:
		tr, err = wsclient.New(cfg.WS)
	default:
		tr, err = httpclient.New(cfg.HTTP)
	}
	if err != nil {
		return nil, fmt.Errorf("rpc: %s transport: %w", cfg.Transport, err)
	}

	if cfg.MaxConcurrent > 0 {
		opts = append([]Option{WithBulkhead(resilience.BulkheadConfig{
			Name:          "rpc",
			MaxConcurrent: cfg.MaxConcurrent,
			MaxWait:       cfg.MaxWait,
		})}, opts...)
	}
	return NewClient(tr, opts...), nil
}

// NewClient returns a client on an existing transport.
func NewClient(tr stream.Transport, opts ...Option) *Client {
	c := &Client{
		transport: tr,
		log:       logger.Get("rpc"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transport returns the underlying transport.
func (c *Client) Transport() stream.Transport { return c.transport }

// acquire takes a bulkhead slot. The release function is always non-nil.
func (c *Client) acquire(ctx context.Context) (func(), error) {
	if c.bulkhead == nil {
		return func() {}, nil
	}
	return c.bulkhead.Acquire(ctx)
}

// CallOption configures one call.
type CallOption func(*callOptions)

type callOptions struct {
	self     string
	instance bool
	headers  map[string]string
	stream   []stream.Option
}

// Instance addresses an instance method of the object with id selfID.
func Instance(selfID string) CallOption {
	return func(o *callOptions) {
		o.self = selfID
		o.instance = true
	}
}

// WithHeader sets a request header.
func WithHeader(key, value string) CallOption {
	return func(o *callOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string)
		}
		o.headers[key] = value
	}
}

// WithOptions passes session options (mode, framer, id) to this call.
func WithOptions(opts ...stream.Option) CallOption {
	return func(o *callOptions) { o.stream = append(o.stream, opts...) }
}

func newCallOptions(opts []CallOption) callOptions {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// BuildRequest renders a call into a transport request.
func BuildRequest(ep Endpoint, args Args, streamed bool, opts ...CallOption) (stream.Request, error) {
	return buildRequest(ep, args, streamed, newCallOptions(opts))
}

func buildRequest(ep Endpoint, args Args, streamed bool, o callOptions) (stream.Request, error) {
	req := stream.Request{
		Method:   ep.method(),
		URL:      ep.Path(),
		Headers:  make(map[string]string, len(o.headers)+1),
		Streamed: streamed,
	}
	for k, v := range o.headers {
		req.Headers[k] = v
	}

	if ep.method() == "POST" && !streamed {
		body, err := args.JSON(o.self, o.instance)
		if err != nil {
			return stream.Request{}, err
		}
		req.Body = body
		req.Headers["Content-Type"] = "application/json"
		return req, nil
	}

	query, err := args.Query(o.self, o.instance)
	if err != nil {
		return stream.Request{}, err
	}
	req.URL += query
	if streamed && ep.HTTPMethod == "" {
		req.Method = "POST"
	}
	return req, nil
}

// options returns the session options for a call: mode first, then client
// options, then call options, so later ones win.
func (c *Client) options(mode stream.Mode, o callOptions) []stream.Option {
	opts := make([]stream.Option, 0, 2+len(c.streamOpts)+len(o.stream))
	opts = append(opts, stream.WithMode(mode), stream.WithLogger(c.log))
	opts = append(opts, c.streamOpts...)
	return append(opts, o.stream...)
}

// CheckHealth reports the transport's health when it tracks any.
func (c *Client) CheckHealth(ctx context.Context) observability.Health {
	if hc, ok := c.transport.(observability.HealthChecker); ok {
		return hc.CheckHealth(ctx)
	}
	return observability.Health{Name: "upstream", Status: observability.HealthStatusUp}
}
