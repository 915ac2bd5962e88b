package wsclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kbukum/streamcall/logger"
	"github.com/kbukum/streamcall/observability"
	"github.com/kbukum/streamcall/stream"
)

// ErrSendClosed is returned by Send after CloseSend.
var ErrSendClosed = errors.New("wsclient: outbound side closed")

// Client is a stream.Transport over WebSocket.
type Client struct {
	config Config
	dialer *websocket.Dialer
	log    *logger.Logger
}

var _ stream.Transport = (*Client)(nil)

// New creates a new WebSocket transport.
func New(cfg Config) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		config: cfg,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
		log: logger.Get("wsclient"),
	}, nil
}

// Open dials the endpoint. A fixed request body is sent as the first
// message followed by the end-of-input marker.
func (c *Client) Open(ctx context.Context, req stream.Request) (stream.Exchange, error) {
	url := c.resolve(req.URL)

	headers := http.Header{}
	for k, v := range c.config.Headers {
		headers.Set(k, v)
	}
	for k, v := range req.Headers {
		headers.Set(k, v)
	}
	if c.config.BearerToken != "" {
		headers.Set("Authorization", "Bearer "+c.config.BearerToken)
	}
	observability.InjectHeaders(ctx, headers.Set)

	conn, resp, err := c.dialer.DialContext(ctx, url, headers)
	if err != nil {
		if resp != nil {
			return rejected(resp), nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("wsclient: dial %s: %w", url, err)
	}
	conn.SetReadLimit(c.config.ReadLimit)

	c.log.Debug("websocket connected", logger.Fields(logger.FieldURL, url))

	msgType := websocket.TextMessage
	if c.config.Binary {
		msgType = websocket.BinaryMessage
	}
	ex := &exchange{
		conn:         conn,
		msgType:      msgType,
		writeTimeout: c.config.WriteTimeout,
		log:          c.log,
	}
	if !req.Streamed {
		if err := ex.sendFixed(ctx, req.Body); err != nil {
			_ = ex.Close()
			return nil, err
		}
	}
	return ex, nil
}

func (c *Client) resolve(url string) string {
	if c.config.BaseURL != "" && !hasScheme(url, "ws://", "wss://", "http://", "https://") {
		url = strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.TrimLeft(url, "/")
	}
	switch {
	case strings.HasPrefix(url, "http://"):
		return "ws://" + strings.TrimPrefix(url, "http://")
	case strings.HasPrefix(url, "https://"):
		return "wss://" + strings.TrimPrefix(url, "https://")
	}
	return url
}

// exchange maps a WebSocket connection onto stream.Exchange.
type exchange struct {
	conn         *websocket.Conn
	msgType      int
	writeTimeout time.Duration
	log          *logger.Logger

	snapshot []byte

	wmu        sync.Mutex
	sendClosed bool

	closeOnce sync.Once
}

// Recv implements stream.Exchange.
func (e *exchange) Recv(ctx context.Context) (stream.Update, error) {
	stop := context.AfterFunc(ctx, func() { _ = e.conn.Close() })
	defer stop()

	_, msg, err := e.conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return e.update(true), nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return stream.Update{}, ctxErr
		}
		return stream.Update{}, fmt.Errorf("wsclient: read: %w", err)
	}
	e.snapshot = append(e.snapshot, msg...)
	return e.update(false), nil
}

func (e *exchange) update(final bool) stream.Update {
	return stream.Update{
		StatusCode: http.StatusOK,
		StatusText: http.StatusText(http.StatusOK),
		Snapshot:   e.snapshot,
		Final:      final,
	}
}

// Send implements stream.Exchange. Empty chunks are skipped since an empty
// message marks end of input.
func (e *exchange) Send(ctx context.Context, chunk []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(chunk) == 0 {
		return nil
	}
	e.wmu.Lock()
	defer e.wmu.Unlock()
	if e.sendClosed {
		return ErrSendClosed
	}
	return e.write(chunk)
}

// CloseSend implements stream.Exchange.
func (e *exchange) CloseSend() error {
	e.wmu.Lock()
	defer e.wmu.Unlock()
	if e.sendClosed {
		return nil
	}
	e.sendClosed = true
	return e.write(nil)
}

func (e *exchange) sendFixed(ctx context.Context, body []byte) error {
	if err := e.Send(ctx, body); err != nil {
		return err
	}
	return e.CloseSend()
}

func (e *exchange) write(msg []byte) error {
	if err := e.conn.SetWriteDeadline(time.Now().Add(e.writeTimeout)); err != nil {
		return err
	}
	if err := e.conn.WriteMessage(e.msgType, msg); err != nil {
		return fmt.Errorf("wsclient: write: %w", err)
	}
	return nil
}

// Close implements stream.Exchange.
func (e *exchange) Close() error {
	var err error
	e.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if werr := e.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)); werr != nil {
			e.log.Debug("close frame not sent", logger.ErrorFields("close", werr))
		}
		err = e.conn.Close()
	})
	return err
}

// rejectedExchange reports a failed handshake as one final update.
type rejectedExchange struct {
	update stream.Update
	done   bool
}

func rejected(resp *http.Response) *rejectedExchange {
	var body []byte
	if resp.Body != nil {
		body, _ = io.ReadAll(resp.Body)
		_ = resp.Body.Close()
	}
	return &rejectedExchange{update: stream.Update{
		StatusCode: resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
		Snapshot:   body,
		Final:      true,
	}}
}

func (r *rejectedExchange) Recv(context.Context) (stream.Update, error) {
	if r.done {
		return stream.Update{}, io.EOF
	}
	r.done = true
	return r.update, nil
}

func (r *rejectedExchange) Send(context.Context, []byte) error { return ErrSendClosed }
func (r *rejectedExchange) CloseSend() error                   { return nil }
func (r *rejectedExchange) Close() error                       { return nil }
