package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	"golang.org/x/net/http2"

	"github.com/kbukum/streamcall/logger"
	"github.com/kbukum/streamcall/observability"
	"github.com/kbukum/streamcall/resilience"
	"github.com/kbukum/streamcall/stream"
)

// Client is a stream.Transport over HTTP with built-in auth, TLS and
// resilience for the open phase.
type Client struct {
	httpClient *http.Client
	config     Config
	cb         *resilience.CircuitBreaker
	rl         *resilience.RateLimiter
	log        *logger.Logger
}

var _ stream.Transport = (*Client)(nil)

// New creates a new HTTP transport with the given configuration.
func New(cfg Config) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rt, err := newRoundTripper(cfg)
	if err != nil {
		return nil, err
	}

	// The open timeout is enforced per exchange; a client-wide timeout
	// would cut long streams.
	c := &Client{
		httpClient: &http.Client{Transport: rt},
		config:     cfg,
		log:        logger.Get("httpclient"),
	}

	if cfg.Retry != nil && cfg.Retry.RetryIf == nil {
		retry := *cfg.Retry
		retry.RetryIf = IsRetryable
		c.config.Retry = &retry
	}
	if cfg.CircuitBreaker != nil {
		c.cb = resilience.NewCircuitBreaker(*cfg.CircuitBreaker)
	}
	if cfg.RateLimiter != nil {
		c.rl = resilience.NewRateLimiter(*cfg.RateLimiter)
	}

	return c, nil
}

func newRoundTripper(cfg Config) (http.RoundTripper, error) {
	if cfg.HTTP2 {
		return &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, network, addr)
			},
		}, nil
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	tlsCfg, err := cfg.TLS.Build()
	if err != nil {
		return nil, err
	}
	if tlsCfg != nil {
		transport.TLSClientConfig = tlsCfg
	}
	return transport, nil
}

// Open starts an exchange. Fixed-body requests return once response
// headers arrived, retried according to the retry config. Streamed
// requests return immediately so the body can be sent while the response
// is awaited; their response is awaited by the first Recv.
func (c *Client) Open(ctx context.Context, req stream.Request) (stream.Exchange, error) {
	if req.Streamed {
		if err := c.throttle(ctx); err != nil {
			return nil, err
		}
		ticket, err := c.allow()
		if err != nil {
			return nil, err
		}
		ex, err := c.start(ctx, req)
		if err != nil {
			ticket(nil)
			return nil, err
		}
		ex.onResponse = ticket
		return ex, nil
	}

	if c.config.Retry != nil {
		return resilience.Retry(ctx, *c.config.Retry, func(ctx context.Context, attempt int) (stream.Exchange, error) {
			if attempt > 1 {
				c.log.Debug("retrying open", logger.Fields(
					logger.FieldURL, req.URL,
					"attempt", attempt,
				))
			}
			return c.openOnce(ctx, req)
		})
	}
	return c.openOnce(ctx, req)
}

// openOnce opens a fixed-body request through the rate limiter and breaker.
func (c *Client) openOnce(ctx context.Context, req stream.Request) (stream.Exchange, error) {
	if err := c.throttle(ctx); err != nil {
		return nil, err
	}
	ticket, err := c.allow()
	if err != nil {
		return nil, err
	}

	ex, err := c.start(ctx, req)
	if err != nil {
		ticket(nil)
		return nil, err
	}
	err = ex.await(ctx)
	ticket(outcome(ex.resp, err))
	if err != nil {
		_ = ex.Close()
		return nil, err
	}
	return ex, nil
}

func (c *Client) throttle(ctx context.Context) error {
	if c.rl == nil {
		return nil
	}
	return c.rl.Wait(ctx)
}

// allow returns a breaker ticket, or a no-op when no breaker is configured.
func (c *Client) allow() (func(error), error) {
	if c.cb == nil {
		return func(error) {}, nil
	}
	done, err := c.cb.Allow()
	if err != nil {
		return nil, NewCircuitOpenError(c.cb.Name())
	}
	return done, nil
}

// start builds the request and sends it from a background goroutine.
func (c *Client) start(ctx context.Context, req stream.Request) (*exchange, error) {
	var (
		body io.Reader
		pw   *io.PipeWriter
	)
	switch {
	case req.Streamed:
		var pr *io.PipeReader
		pr, pw = io.Pipe()
		body = pr
	case len(req.Body) > 0:
		body = bytes.NewReader(req.Body)
	}

	rctx, cancel := context.WithCancel(ctx)
	httpReq, err := c.buildRequest(rctx, req, body)
	if err != nil {
		cancel()
		return nil, err
	}

	ex := &exchange{
		cancel:  cancel,
		pw:      pw,
		timeout: c.config.Timeout,
		buf:     make([]byte, c.config.ReadSize),
		respc:   make(chan roundTrip, 1),
		log:     c.log,
	}
	go func() {
		resp, err := c.httpClient.Do(httpReq)
		if err != nil && pw != nil {
			_ = pw.CloseWithError(err)
		}
		ex.respc <- roundTrip{resp: resp, err: err}
	}()

	c.log.Debug("exchange opened", logger.Fields(
		logger.FieldMethod, httpReq.Method,
		logger.FieldURL, httpReq.URL.String(),
		"streamed", req.Streamed,
	))
	return ex, nil
}

// buildRequest constructs an *http.Request from the client config and request.
func (c *Client) buildRequest(ctx context.Context, req stream.Request, body io.Reader) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
		if body != nil {
			method = http.MethodPost
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.resolve(req.URL), body)
	if err != nil {
		return nil, NewValidationError("create request: " + err.Error())
	}

	for k, v := range c.config.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	observability.InjectHeaders(ctx, httpReq.Header.Set)
	c.config.Auth.apply(httpReq)

	return httpReq, nil
}

// resolve joins relative URLs onto the base URL.
func (c *Client) resolve(url string) string {
	if c.config.BaseURL == "" || strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	return strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.TrimLeft(url, "/")
}

// Unwrap returns the underlying *http.Client.
func (c *Client) Unwrap() *http.Client {
	return c.httpClient
}

// classify turns a round trip failure into an Error. Cancellation by the
// caller is returned unchanged.
func classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return NewTimeoutError(err)
	}
	return NewConnectionError(err)
}

// outcome is what the circuit breaker records for one open.
func outcome(resp *http.Response, err error) error {
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	if resp == nil {
		return nil
	}
	if e := ClassifyStatusCode(resp.StatusCode); e != nil {
		return e
	}
	return nil
}
