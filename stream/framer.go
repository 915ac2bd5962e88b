package stream

import (
	"bufio"
	"bytes"
)

// Framer splits deltas into complete tokens, holding back any incomplete
// trailing fragment until more bytes arrive.
type Framer interface {
	// Feed appends delta to the pending fragment and returns every token
	// completed by it.
	Feed(delta []byte) [][]byte
	// Flush returns the remaining fragment as final tokens and resets the framer.
	Flush() [][]byte
}

// LineFramer splits on '\n', trimming a trailing '\r'. Empty lines are
// dropped.
type LineFramer struct {
	pending   []byte
	keepEmpty bool
}

// NewLineFramer creates a line framer.
func NewLineFramer() *LineFramer {
	return &LineFramer{}
}

// Feed implements Framer.
func (f *LineFramer) Feed(delta []byte) [][]byte {
	f.pending = append(f.pending, delta...)

	var tokens [][]byte
	off := 0
	for off < len(f.pending) {
		advance, line, _ := bufio.ScanLines(f.pending[off:], false)
		if advance == 0 {
			break
		}
		off += advance
		if len(line) > 0 || f.keepEmpty {
			tokens = append(tokens, bytes.Clone(line))
		}
	}
	f.pending = append(f.pending[:0], f.pending[off:]...)
	return tokens
}

// Flush implements Framer. The pending fragment is emitted even though no
// newline terminated it.
func (f *LineFramer) Flush() [][]byte {
	if len(f.pending) == 0 {
		return nil
	}
	_, line, _ := bufio.ScanLines(f.pending, true)
	f.pending = f.pending[:0]
	if len(line) == 0 {
		return nil
	}
	return [][]byte{bytes.Clone(line)}
}

// Pending returns the number of bytes held back.
func (f *LineFramer) Pending() int {
	return len(f.pending)
}

// EventFramer splits a Server-Sent Events stream; each token is the data
// of one event. Multi-line data is joined with newlines, comment lines and
// events without data are skipped.
type EventFramer struct {
	lines   LineFramer
	data    []byte
	hasData bool
}

// NewEventFramer creates an SSE framer.
func NewEventFramer() *EventFramer {
	return &EventFramer{lines: LineFramer{keepEmpty: true}}
}

// Feed implements Framer.
func (f *EventFramer) Feed(delta []byte) [][]byte {
	var tokens [][]byte
	for _, line := range f.lines.Feed(delta) {
		if tok, ok := f.line(line); ok {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// Flush implements Framer. An event still collecting data is emitted.
func (f *EventFramer) Flush() [][]byte {
	var tokens [][]byte
	for _, line := range f.lines.Flush() {
		if tok, ok := f.line(line); ok {
			tokens = append(tokens, tok)
		}
	}
	if f.hasData {
		tokens = append(tokens, f.take())
	}
	return tokens
}

func (f *EventFramer) line(line []byte) ([]byte, bool) {
	// Blank line signals end of event
	if len(line) == 0 {
		if f.hasData {
			return f.take(), true
		}
		return nil, false
	}
	if line[0] == ':' {
		return nil, false
	}
	field, value := parseEventLine(line)
	if string(field) == "data" {
		if f.hasData {
			f.data = append(f.data, '\n')
		}
		f.data = append(f.data, value...)
		f.hasData = true
	}
	return nil, false
}

func (f *EventFramer) take() []byte {
	tok := bytes.Clone(f.data)
	if tok == nil {
		tok = []byte{}
	}
	f.data = f.data[:0]
	f.hasData = false
	return tok
}

// parseEventLine parses a single SSE line into field and value.
func parseEventLine(line []byte) (field, value []byte) {
	idx := bytes.IndexByte(line, ':')
	if idx < 0 {
		return line, nil
	}
	field = line[:idx]
	value = line[idx+1:]
	// A single space after the colon is not part of the value.
	if len(value) > 0 && value[0] == ' ' {
		value = value[1:]
	}
	return field, value
}
