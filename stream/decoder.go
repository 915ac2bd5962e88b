package stream

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Decoder converts one token into a typed value.
type Decoder[T any] interface {
	Decode(token []byte) (T, error)
}

// DecoderFunc adapts a function to the Decoder interface. Errors it returns
// that are not *Error are reported as conversion failures of the token.
type DecoderFunc[T any] func(token []byte) (T, error)

// Decode implements Decoder.
func (f DecoderFunc[T]) Decode(token []byte) (T, error) {
	v, err := f(token)
	if err != nil {
		if _, ok := err.(*Error); !ok {
			err = NewConversionError(string(token), err)
		}
	}
	return v, err
}

// Int decodes base-10 integers. Surrounding whitespace is ignored; anything
// else left over is a conversion failure.
func Int() Decoder[int64] {
	return DecoderFunc[int64](func(token []byte) (int64, error) {
		return strconv.ParseInt(strings.TrimSpace(string(token)), 10, 64)
	})
}

// Float decodes floating point numbers.
func Float() Decoder[float64] {
	return DecoderFunc[float64](func(token []byte) (float64, error) {
		return strconv.ParseFloat(strings.TrimSpace(string(token)), 64)
	})
}

// Bool decodes "true" (any case) as true and anything else as false.
func Bool() Decoder[bool] {
	return DecoderFunc[bool](func(token []byte) (bool, error) {
		return strings.EqualFold(strings.TrimSpace(string(token)), "true"), nil
	})
}

// Text passes the token through as a string.
func Text() Decoder[string] {
	return DecoderFunc[string](func(token []byte) (string, error) {
		return string(token), nil
	})
}

// Bytes passes the token through unchanged.
func Bytes() Decoder[[]byte] {
	return DecoderFunc[[]byte](func(token []byte) ([]byte, error) {
		return token, nil
	})
}

// JSON decodes each token as a JSON document.
func JSON[T any]() Decoder[T] {
	return DecoderFunc[T](func(token []byte) (T, error) {
		var v T
		err := json.Unmarshal(token, &v)
		return v, err
	})
}
