package server

import (
	"bufio"
	"errors"
	"io"
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/streamcall/logger"
	"github.com/kbukum/streamcall/stream"
)

const (
	contentTypeText = "text/plain; charset=utf-8"
	contentTypeJSON = "application/json; charset=utf-8"
)

// Emitter writes values to a streamed reply, one per line, flushing after
// each so the client sees it immediately.
type Emitter struct {
	w       gin.ResponseWriter
	rc      *http.ResponseController
	started bool
	count   int
}

func newEmitter(c *gin.Context) *Emitter {
	return &Emitter{w: c.Writer, rc: http.NewResponseController(c.Writer)}
}

// Emit formats v and writes it as one line. Nil values are skipped.
func (e *Emitter) Emit(v any) error {
	s, ok, err := stream.Format(v)
	if err != nil || !ok {
		return err
	}
	e.start()
	if _, err := io.WriteString(e.w, s+"\n"); err != nil {
		return err
	}
	e.count++
	return e.flush()
}

// Count returns the number of values written.
func (e *Emitter) Count() int { return e.count }

// Started reports whether the status line has been sent.
func (e *Emitter) Started() bool { return e.started }

func (e *Emitter) start() {
	if e.started {
		return
	}
	e.started = true
	h := e.w.Header()
	h.Set("Content-Type", contentTypeText)
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Cache-Control", "no-cache")
	e.w.WriteHeader(http.StatusOK)
}

func (e *Emitter) flush() error {
	if err := e.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}

// StreamFunc produces a streamed reply through emit.
type StreamFunc func(c *gin.Context, emit *Emitter) error

// DuplexFunc consumes the request body line by line while producing a
// streamed reply.
type DuplexFunc func(c *gin.Context, in *bufio.Scanner, emit *Emitter) error

// Stream registers a route whose reply is a stream of values.
func (s *Server) Stream(method, path string, fn StreamFunc) {
	s.engine.Handle(method, path, s.streamHandler(func(c *gin.Context, emit *Emitter) error {
		return fn(c, emit)
	}))
}

// Duplex registers a POST route that reads its request body incrementally
// while streaming its reply. Over HTTP/1.1 the connection is switched to
// full duplex; HTTP/2 streams are duplex already.
func (s *Server) Duplex(path string, fn DuplexFunc) {
	s.engine.POST(path, s.streamHandler(func(c *gin.Context, emit *Emitter) error {
		if c.Request.ProtoMajor == 1 {
			if err := emit.rc.EnableFullDuplex(); err != nil {
				s.log.Debug("full duplex unavailable", logger.ErrorFields("enable_full_duplex", err))
			}
		}
		in := bufio.NewScanner(c.Request.Body)
		return fn(c, in, emit)
	}))
}

func (s *Server) streamHandler(fn StreamFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer s.streams.Begin()()

		emit := newEmitter(c)
		err := fn(c, emit)
		if err == nil {
			if !emit.Started() {
				emit.start()
			}
			return
		}
		if !emit.Started() {
			RespondWithError(c, err)
			return
		}
		// The status is already sent, so the only signal left is a broken
		// stream.
		s.log.WithContext(c.Request.Context()).Warn("stream aborted", logger.Fields(
			logger.FieldError, err.Error(),
			"path", c.Request.URL.Path,
			logger.FieldValues, emit.Count(),
		))
		panic(http.ErrAbortHandler)
	}
}

func contentType(v any) string {
	switch reflect.Indirect(reflect.ValueOf(v)).Kind() {
	case reflect.Struct, reflect.Map, reflect.Slice, reflect.Array:
		if _, ok := v.([]byte); !ok {
			return contentTypeJSON
		}
	}
	return contentTypeText
}
