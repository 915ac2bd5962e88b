package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/kbukum/streamcall/stream"
)

// SelfArg is the argument name carrying the instance id.
const SelfArg = "self"

// Arg is one named argument.
type Arg struct {
	Key   string
	Value any
}

// Args is an ordered argument list. Nil values are skipped when encoding.
type Args []Arg

// NewArgs builds Args from alternating keys and values. A trailing key
// without a value is ignored.
func NewArgs(kv ...any) Args {
	args := make(Args, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		args = append(args, Arg{Key: fmt.Sprint(kv[i]), Value: kv[i+1]})
	}
	return args
}

// With returns a copy of a with key set to value appended.
func (a Args) With(key string, value any) Args {
	out := make(Args, len(a), len(a)+1)
	copy(out, a)
	return append(out, Arg{Key: key, Value: value})
}

// Query renders the arguments as a query string, including the leading
// "?". An instance call starts with "?self=<id>&". Without arguments and
// instance the result is empty.
func (a Args) Query(self string, instance bool) (string, error) {
	var parts []string
	for _, arg := range a {
		s, ok, err := stream.Format(arg.Value)
		if err != nil {
			return "", fmt.Errorf("rpc: argument %q: %w", arg.Key, err)
		}
		if !ok {
			continue
		}
		parts = append(parts, url.QueryEscape(arg.Key)+"="+url.QueryEscape(s))
	}

	var b strings.Builder
	switch {
	case instance:
		b.WriteString("?" + SelfArg + "=" + url.QueryEscape(self) + "&")
	case len(parts) > 0:
		b.WriteString("?")
	default:
		return "", nil
	}
	b.WriteString(strings.Join(parts, "&"))
	return b.String(), nil
}

// JSON renders the arguments as a JSON object, preserving their order. An
// instance call carries "self" first.
func (a Args) JSON(self string, instance bool) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	n := 0
	write := func(key string, value any) error {
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		v, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("rpc: argument %q: %w", key, err)
		}
		if n > 0 {
			buf.WriteByte(',')
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		n++
		return nil
	}

	if instance {
		if err := write(SelfArg, self); err != nil {
			return nil, err
		}
	}
	for _, arg := range a {
		if isNil(arg.Value) {
			continue
		}
		if err := write(arg.Key, arg.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
