package server

import (
	"encoding/json"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/streamcall/errors"
	"github.com/kbukum/streamcall/stream"
)

// Params are the named arguments of a call, taken from the query string
// and, for a JSON request body, from its top-level fields.
type Params map[string]string

// BindParams collects a request's arguments. The request body is only
// read when it is declared as JSON, so streamed bodies stay untouched.
func BindParams(c *gin.Context) (Params, error) {
	p := Params{}
	for k, vs := range c.Request.URL.Query() {
		if len(vs) > 0 {
			p[k] = vs[len(vs)-1]
		}
	}
	if c.Request.Method == http.MethodGet || c.Request.Body == nil {
		return p, nil
	}
	mt, _, _ := mime.ParseMediaType(c.GetHeader("Content-Type"))
	if mt != "application/json" {
		return p, nil
	}

	var body map[string]any
	if err := json.NewDecoder(c.Request.Body).Decode(&body); err != nil {
		return nil, apperrors.InvalidInput("body", "malformed JSON: "+err.Error())
	}
	for k, v := range body {
		s, ok, err := stream.Format(v)
		if err != nil {
			return nil, apperrors.InvalidInput(k, err.Error())
		}
		if ok {
			p[k] = s
		}
	}
	return p, nil
}

// String returns the named argument or def.
func (p Params) String(key, def string) string {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// Require returns the named argument or an invalid-input error.
func (p Params) Require(key string) (string, error) {
	v, ok := p[key]
	if !ok {
		return "", apperrors.InvalidInput(key, key+" is required")
	}
	return v, nil
}

// Int parses the named argument, returning def when it is absent.
func (p Params) Int(key string, def int) (int, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperrors.InvalidInput(key, key+" must be an integer")
	}
	return n, nil
}

// Duration parses the named argument as milliseconds.
func (p Params) Duration(key string, def time.Duration) (time.Duration, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	ms, err := strconv.Atoi(v)
	if err != nil || ms < 0 {
		return 0, apperrors.InvalidInput(key, key+" must be a non-negative number of milliseconds")
	}
	return time.Duration(ms) * time.Millisecond, nil
}
