package stream

import (
	"testing"
)

func feedAll(f Framer, parts ...string) []string {
	var out []string
	for _, p := range parts {
		for _, tok := range f.Feed([]byte(p)) {
			out = append(out, string(tok))
		}
	}
	for _, tok := range f.Flush() {
		out = append(out, string(tok))
	}
	return out
}

func TestLineFramer(t *testing.T) {
	tests := []struct {
		name  string
		parts []string
		want  []string
	}{
		{"single delta", []string{"0\n1\n2\n"}, []string{"0", "1", "2"}},
		{"split tokens", []string{"1", "2\n3", "4\n"}, []string{"12", "34"}},
		{"crlf", []string{"a\r\nb\r", "\n"}, []string{"a", "b"}},
		{"empty lines dropped", []string{"\n\na\n\n\nb\n"}, []string{"a", "b"}},
		{"unterminated tail", []string{"1\n2"}, []string{"1", "2"}},
		{"tail with cr", []string{"x\r"}, []string{"x"}},
		{"nothing", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := feedAll(NewLineFramer(), tt.parts...)
			if !equalSlices(got, tt.want) {
				t.Errorf("tokens = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLineFramerPending(t *testing.T) {
	f := NewLineFramer()
	if toks := f.Feed([]byte("abc")); len(toks) != 0 {
		t.Fatalf("unexpected tokens %q", toks)
	}
	if f.Pending() != 3 {
		t.Errorf("Pending() = %d, want 3", f.Pending())
	}
	toks := f.Feed([]byte("\nd"))
	if len(toks) != 1 || string(toks[0]) != "abc" {
		t.Errorf("tokens = %q", toks)
	}
	if f.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", f.Pending())
	}
	f.Flush()
	if f.Pending() != 0 {
		t.Errorf("Flush must reset, Pending() = %d", f.Pending())
	}
}

func TestLineFramerTokensAreOwned(t *testing.T) {
	f := NewLineFramer()
	first := f.Feed([]byte("aaa\n"))
	f.Feed([]byte("bbb\n"))
	if string(first[0]) != "aaa" {
		t.Errorf("earlier token was overwritten: %q", first[0])
	}
}

func TestLineFramerPartitionIndependence(t *testing.T) {
	const payload = "10\n-2\n300\nlast"
	want := feedAll(NewLineFramer(), payload)
	for size := 1; size <= len(payload); size++ {
		var parts []string
		for i := 0; i < len(payload); i += size {
			parts = append(parts, payload[i:min(i+size, len(payload))])
		}
		got := feedAll(NewLineFramer(), parts...)
		if !equalSlices(got, want) {
			t.Errorf("chunk size %d: tokens = %q, want %q", size, got, want)
		}
	}
}

func TestEventFramer(t *testing.T) {
	tests := []struct {
		name  string
		parts []string
		want  []string
	}{
		{"two events", []string{"data: 1\n\ndata: 2\n\n"}, []string{"1", "2"}},
		{"multi-line data", []string{"data: a\ndata: b\n\n"}, []string{"a\nb"}},
		{"comments and other fields", []string{": ping\nevent: tick\nid: 7\ndata: x\n\n"}, []string{"x"}},
		{"split across deltas", []string{"da", "ta: hel", "lo\n", "\n"}, []string{"hello"}},
		{"no space after colon", []string{"data:v\n\n"}, []string{"v"}},
		{"pending event flushed", []string{"data: tail"}, []string{"tail"}},
		{"event without data skipped", []string{"event: x\n\n"}, nil},
		{"crlf", []string{"data: 1\r\n\r\n"}, []string{"1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := feedAll(NewEventFramer(), tt.parts...)
			if !equalSlices(got, tt.want) {
				t.Errorf("tokens = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEventFramerEmptyData(t *testing.T) {
	got := feedAll(NewEventFramer(), "data:\n\n")
	if len(got) != 1 || got[0] != "" {
		t.Errorf("tokens = %q, want one empty token", got)
	}
}
