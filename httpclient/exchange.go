package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/kbukum/streamcall/logger"
	"github.com/kbukum/streamcall/stream"
)

var errExchangeClosed = errors.New("httpclient: exchange closed")

type roundTrip struct {
	resp *http.Response
	err  error
}

// exchange reports one HTTP response as a sequence of growing snapshots.
// Recv and Close are called from one goroutine, Send and CloseSend from
// another.
type exchange struct {
	cancel  context.CancelFunc
	pw      *io.PipeWriter
	timeout time.Duration
	log     *logger.Logger

	respc    chan roundTrip
	received bool
	resp     *http.Response
	err      error
	// onResponse receives the breaker outcome of a streamed open.
	onResponse func(error)

	buf      []byte
	snapshot []byte
	finished bool

	closeOnce sync.Once
}

// await waits for response headers, bounded by the open timeout.
func (e *exchange) await(ctx context.Context) error {
	if e.resp != nil || e.err != nil {
		return e.err
	}

	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case rt := <-e.respc:
		e.received = true
		if rt.err != nil {
			e.err = classify(ctx, rt.err)
		} else {
			e.resp = rt.resp
		}
	case <-timer.C:
		e.cancel()
		e.err = NewTimeoutError(fmt.Errorf("no response headers within %s", e.timeout))
	case <-ctx.Done():
		e.cancel()
		e.err = ctx.Err()
	}

	if e.onResponse != nil {
		e.onResponse(outcome(e.resp, e.err))
		e.onResponse = nil
	}
	if e.resp != nil {
		e.log.Debug("response headers received", logger.Fields(logger.FieldStatus, e.resp.StatusCode))
	}
	return e.err
}

// Recv implements stream.Exchange. Each body read is one update; end of
// body is the final update.
func (e *exchange) Recv(ctx context.Context) (stream.Update, error) {
	if err := e.await(ctx); err != nil {
		return stream.Update{}, err
	}
	if e.finished {
		return stream.Update{}, io.EOF
	}

	stop := context.AfterFunc(ctx, e.cancel)
	defer stop()

	for {
		n, err := e.resp.Body.Read(e.buf)
		eof := errors.Is(err, io.EOF)
		if n > 0 || eof {
			e.snapshot = append(e.snapshot, e.buf[:n]...)
			e.finished = eof
			return e.update(), nil
		}
		if err != nil {
			return stream.Update{}, classify(ctx, err)
		}
	}
}

func (e *exchange) update() stream.Update {
	return stream.Update{
		StatusCode: e.resp.StatusCode,
		StatusText: http.StatusText(e.resp.StatusCode),
		Snapshot:   e.snapshot,
		Final:      e.finished,
	}
}

// Send implements stream.Exchange. It returns once the connection has
// read the whole chunk.
func (e *exchange) Send(ctx context.Context, chunk []byte) error {
	if e.pw == nil {
		return ErrNotStreamed
	}
	if len(chunk) == 0 {
		return nil
	}
	stop := context.AfterFunc(ctx, func() { _ = e.pw.CloseWithError(ctx.Err()) })
	defer stop()

	if _, err := e.pw.Write(chunk); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return NewConnectionError(err)
	}
	return nil
}

// CloseSend implements stream.Exchange.
func (e *exchange) CloseSend() error {
	if e.pw == nil {
		return ErrNotStreamed
	}
	return e.pw.Close()
}

// Close implements stream.Exchange.
func (e *exchange) Close() error {
	var err error
	e.closeOnce.Do(func() {
		if e.pw != nil {
			_ = e.pw.CloseWithError(errExchangeClosed)
		}
		e.cancel()
		if e.onResponse != nil {
			e.onResponse(nil)
			e.onResponse = nil
		}
		if e.resp != nil {
			err = e.resp.Body.Close()
			return
		}
		if !e.received {
			// The round trip is still in flight; release whatever it returns.
			go func() {
				if rt := <-e.respc; rt.resp != nil {
					_ = rt.resp.Body.Close()
				}
			}()
		}
	})
	return err
}
