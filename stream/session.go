package stream

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/kbukum/streamcall/logger"
)

// Mode selects how a session turns deltas into values.
type Mode int

const (
	// ModeFramed splits deltas with a Framer and decodes each token. One
	// decoded value is held back so the last one can be tagged final.
	ModeFramed Mode = iota
	// ModeReplace decodes every non-empty delta as one value, immediately.
	ModeReplace
	// ModeWhole decodes the whole payload once the exchange is final.
	ModeWhole
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeFramed:
		return "framed"
	case ModeReplace:
		return "replace"
	case ModeWhole:
		return "whole"
	default:
		return "unknown"
	}
}

// ParseMode parses a mode name as returned by Mode.String.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "framed", "":
		return ModeFramed, nil
	case "replace":
		return ModeReplace, nil
	case "whole":
		return ModeWhole, nil
	default:
		return 0, errors.New("stream: unknown mode " + s)
	}
}

// State is the lifecycle state of a Session.
type State int32

const (
	// StateOpen means no update has been processed yet.
	StateOpen State = iota
	// StateStreaming means at least one successful update was processed.
	StateStreaming
	// StateCompleted means the final update was processed and drained.
	StateCompleted
	// StateFailed means a status, transport, protocol or decode error ended the session.
	StateFailed
	// StateAbandoned means the consumer walked away.
	StateAbandoned
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s >= StateCompleted
}

// Session is the state machine for one exchange. Handle and Fail must be
// called from a single goroutine; Abandon, State and Err are safe from any.
type Session[T any] struct {
	id      string
	mode    Mode
	decoder Decoder[T]
	framer  Framer
	sink    Sink[T]
	buf     ChunkBuffer
	log     *logger.Logger

	held    T
	holding bool

	delivered int
	abandoned atomic.Bool

	mu    sync.Mutex
	state State
	err   *Error
}

// NewSession creates a session delivering into sink.
func NewSession[T any](dec Decoder[T], sink Sink[T], opts ...Option) *Session[T] {
	return newSession(dec, sink, newOptions(opts))
}

func newSession[T any](dec Decoder[T], sink Sink[T], o options) *Session[T] {
	s := &Session[T]{
		id:      o.id,
		mode:    o.mode,
		decoder: dec,
		sink:    sink,
	}
	if o.framer != nil {
		s.framer = o.framer()
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	if s.framer == nil {
		s.framer = NewLineFramer()
	}
	s.log = o.log.WithFields(logger.Fields(
		logger.FieldSessionID, s.id,
		logger.FieldMode, s.mode.String(),
	))
	return s
}

// ID returns the session identifier.
func (s *Session[T]) ID() string { return s.id }

// Mode returns the session mode.
func (s *Session[T]) Mode() Mode { return s.mode }

// State returns the current state.
func (s *Session[T]) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the terminal error, if the session failed.
func (s *Session[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		return nil
	}
	return s.err
}

// Delivered returns the number of values handed to the sink.
func (s *Session[T]) Delivered() int { return s.delivered }

// Consumed returns the number of payload bytes consumed.
func (s *Session[T]) Consumed() int { return s.buf.Consumed() }

// Abandon stops all further sink calls. A call already in progress is not
// interrupted.
func (s *Session[T]) Abandon() {
	if s.abandoned.Swap(true) {
		return
	}
	s.mu.Lock()
	if !s.state.Terminal() {
		s.state = StateAbandoned
	}
	s.mu.Unlock()
	s.log.Debug("session abandoned")
}

// Abandoned reports whether Abandon was called.
func (s *Session[T]) Abandoned() bool { return s.abandoned.Load() }

// Handle processes one transport update.
func (s *Session[T]) Handle(u Update) {
	if s.State().Terminal() {
		return
	}

	if !u.Success() {
		// Hold off until the body is complete so the reason carries all of it.
		if u.Final {
			s.fail(NewStatusError(u.StatusCode, u.StatusText, string(u.Snapshot)))
		}
		return
	}

	delta, err := s.buf.Advance(u.Snapshot)
	if err != nil {
		if s.release(false) {
			s.fail(AsError(err))
		}
		return
	}
	s.setState(StateOpen, StateStreaming)

	var ok bool
	switch s.mode {
	case ModeReplace:
		ok = s.replace(delta, u.Final)
	case ModeWhole:
		ok = s.whole(u.Snapshot, u.Final)
	default:
		ok = s.framed(delta, u.Final)
	}
	if ok && u.Final {
		s.complete()
	}
}

// Fail ends the session with a transport-level error.
func (s *Session[T]) Fail(err error) {
	if s.State().Terminal() {
		return
	}
	// A decoded value is never lost, only its final tag.
	if s.release(false) {
		s.fail(AsError(err))
	}
}

func (s *Session[T]) framed(delta []byte, final bool) bool {
	tokens := s.framer.Feed(delta)
	if final {
		tokens = append(tokens, s.framer.Flush()...)
	}
	for _, tok := range tokens {
		v, err := s.decoder.Decode(tok)
		if err != nil {
			// Values decoded before the failure still go out.
			if !s.release(false) {
				return false
			}
			s.fail(conversionError(tok, err))
			return false
		}
		if !s.release(false) {
			return false
		}
		s.held, s.holding = v, true
	}
	if final {
		return s.release(true)
	}
	return true
}

// replace decodes the delta as one value. An empty delta is skipped unless
// it is final, so the last update always carries the final tag.
func (s *Session[T]) replace(delta []byte, final bool) bool {
	if len(delta) == 0 && !final {
		return true
	}
	v, err := s.decoder.Decode(delta)
	if err != nil {
		s.fail(conversionError(delta, err))
		return false
	}
	return s.emit(v, final)
}

func (s *Session[T]) whole(snapshot []byte, final bool) bool {
	if !final {
		return true
	}
	v, err := s.decoder.Decode(snapshot)
	if err != nil {
		s.fail(conversionError(snapshot, err))
		return false
	}
	return s.emit(v, true)
}

// release delivers the held value, if any.
func (s *Session[T]) release(final bool) bool {
	if !s.holding {
		return !s.abandoned.Load()
	}
	v := s.held
	var zero T
	s.held, s.holding = zero, false
	return s.emit(v, final)
}

func (s *Session[T]) emit(v T, final bool) bool {
	if s.abandoned.Load() {
		return false
	}
	s.delivered++
	s.sink.Value(v, final)
	return !s.abandoned.Load()
}

func (s *Session[T]) complete() {
	if !s.setState(StateStreaming, StateCompleted) {
		return
	}
	s.log.Debug("session completed", logger.Fields(
		logger.FieldValues, s.delivered,
		logger.FieldBytes, s.buf.Consumed(),
	))
	if !s.abandoned.Load() {
		s.sink.Done()
	}
}

func (s *Session[T]) fail(err *Error) {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return
	}
	s.state = StateFailed
	s.err = err
	s.mu.Unlock()

	s.log.Warn("session failed", logger.Fields(
		logger.FieldError, err.Error(),
		"kind", err.Kind.String(),
		logger.FieldValues, s.delivered,
	))
	if !s.abandoned.Load() {
		s.sink.Fail(err)
	}
}

// setState moves from one state to another, returning false if the session
// was not in from (or already at to).
func (s *Session[T]) setState(from, to State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == to {
		return true
	}
	if s.state != from {
		return false
	}
	s.state = to
	return true
}

func conversionError(token []byte, err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return NewConversionError(string(token), err)
}
