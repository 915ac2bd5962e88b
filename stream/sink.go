package stream

// Sink receives the output of a Session. Value, Fail and Done are never
// called concurrently for the same session.
type Sink[T any] interface {
	// Value delivers one decoded value. final is true only for the last one.
	Value(v T, final bool)
	// Fail reports the terminal error of the session, exactly once.
	Fail(err *Error)
	// Done reports normal completion, exactly once.
	Done()
}

// Callbacks is the callback-shaped Sink. Nil callbacks are skipped.
type Callbacks[T any] struct {
	// OnValue receives each value and whether it is the last one.
	OnValue func(v T, final bool)
	// OnError receives the status code (0 when not a status error) and reason.
	OnError func(code int, reason string)
	// OnDone is called once when the session completes normally.
	OnDone func()
}

// Value implements Sink.
func (c Callbacks[T]) Value(v T, final bool) {
	if c.OnValue != nil {
		c.OnValue(v, final)
	}
}

// Fail implements Sink. Status errors pass their reason through verbatim so
// callers see "statusText: body".
func (c Callbacks[T]) Fail(err *Error) {
	if c.OnError == nil {
		return
	}
	if err.Kind == KindStatus {
		c.OnError(err.StatusCode, err.Reason)
		return
	}
	c.OnError(0, err.Error())
}

// Done implements Sink.
func (c Callbacks[T]) Done() {
	if c.OnDone != nil {
		c.OnDone()
	}
}
