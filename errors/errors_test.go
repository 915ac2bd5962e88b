package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeTimeout, "slow", http.StatusGatewayTimeout)
	if !err.Retryable {
		t.Error("timeouts are retryable")
	}
	if err.Error() != "TIMEOUT: slow" {
		t.Errorf("Error() = %q", err.Error())
	}
	if New(ErrCodeNotFound, "x", 404).Retryable {
		t.Error("not found is not retryable")
	}
}

func TestConstructors(t *testing.T) {
	cause := stderrors.New("root")
	tests := []struct {
		name      string
		err       *AppError
		code      ErrorCode
		status    int
		retryable bool
	}{
		{"ServiceUnavailable", ServiceUnavailable("api"), ErrCodeServiceUnavailable, 503, true},
		{"ConnectionFailed", ConnectionFailed("api", cause), ErrCodeConnectionFailed, 502, true},
		{"Timeout", Timeout("call"), ErrCodeTimeout, 504, true},
		{"RateLimited", RateLimited(), ErrCodeRateLimited, 429, true},
		{"CircuitOpen", CircuitOpen("api"), ErrCodeCircuitOpen, 503, true},
		{"Busy", Busy("rpc"), ErrCodeBusy, 503, true},
		{"NotFound", NotFound("route"), ErrCodeNotFound, 404, false},
		{"MethodNotAllowed", MethodNotAllowed("PUT", "/x"), ErrCodeMethodNotAllowed, 405, false},
		{"InvalidInput", InvalidInput("n", "must be positive"), ErrCodeInvalidInput, 400, false},
		{"Unauthorized", Unauthorized(""), ErrCodeUnauthorized, 401, false},
		{"Forbidden", Forbidden(""), ErrCodeForbidden, 403, false},
		{"DecodeFailed", DecodeFailed("x", cause), ErrCodeDecodeFailed, 502, false},
		{"ProtocolViolation", ProtocolViolation("shrunk"), ErrCodeProtocol, 502, false},
		{"Cancelled", Cancelled("call"), ErrCodeCancelled, 499, false},
		{"Internal", Internal(cause), ErrCodeInternal, 500, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("code = %s, want %s", tt.err.Code, tt.code)
			}
			if tt.err.HTTPStatus != tt.status {
				t.Errorf("status = %d, want %d", tt.err.HTTPStatus, tt.status)
			}
			if tt.err.Retryable != tt.retryable {
				t.Errorf("retryable = %v, want %v", tt.err.Retryable, tt.retryable)
			}
		})
	}
}

func TestUpstreamStatus(t *testing.T) {
	e := UpstreamStatus(404, "Not Found: missing")
	if e.Message != "Not Found: missing" || e.Details["status"] != 404 || e.Retryable {
		t.Errorf("unexpected %+v", e)
	}
	if !UpstreamStatus(503, "Service Unavailable").Retryable {
		t.Error("503 should be retryable")
	}
}

func TestFromHTTPStatus(t *testing.T) {
	tests := map[int]ErrorCode{
		400: ErrCodeInvalidInput,
		401: ErrCodeUnauthorized,
		403: ErrCodeForbidden,
		404: ErrCodeNotFound,
		405: ErrCodeMethodNotAllowed,
		429: ErrCodeRateLimited,
		503: ErrCodeServiceUnavailable,
		504: ErrCodeTimeout,
		500: ErrCodeInternal,
		418: ErrCodeInternal,
	}
	for status, want := range tests {
		e := FromHTTPStatus(status, "m")
		if e.Code != want || e.HTTPStatus != status {
			t.Errorf("FromHTTPStatus(%d) = %s/%d, want %s", status, e.Code, e.HTTPStatus, want)
		}
	}
}

func TestCauseChain(t *testing.T) {
	cause := stderrors.New("dial tcp: refused")
	e := ConnectionFailed("api", cause)
	if !stderrors.Is(e, cause) {
		t.Error("cause should be reachable with errors.Is")
	}
	if e.Error() != "CONNECTION_FAILED: connection to api failed (cause: dial tcp: refused)" {
		t.Errorf("Error() = %q", e.Error())
	}
}

func TestToResponse(t *testing.T) {
	e := InvalidInput("n", "bad")
	data, err := json.Marshal(e.ToResponse())
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	body := decoded["error"]
	if body["code"] != "INVALID_INPUT" || body["message"] != "invalid input: bad" || body["retryable"] != false {
		t.Errorf("body = %v", body)
	}
	if details, _ := body["details"].(map[string]any); details["field"] != "n" {
		t.Errorf("details = %v", body["details"])
	}
}

func TestAsAppErrorAndWrap(t *testing.T) {
	orig := NotFound("route")
	wrapped := fmt.Errorf("handler: %w", orig)
	if got, ok := AsAppError(wrapped); !ok || got != orig {
		t.Errorf("AsAppError = %v, %v", got, ok)
	}
	if _, ok := AsAppError(stderrors.New("plain")); ok {
		t.Error("plain error is not an AppError")
	}
	if Wrap(nil) != nil {
		t.Error("Wrap(nil) should be nil")
	}
	if Wrap(wrapped) != orig {
		t.Error("Wrap should pass AppErrors through")
	}
	if w := Wrap(stderrors.New("x")); w.Code != ErrCodeInternal {
		t.Errorf("Wrap(plain) code = %s", w.Code)
	}
}

func TestParseResponse(t *testing.T) {
	body, _ := json.Marshal(NotFound("counter").ToResponse())
	got, ok := ParseResponse(body)
	if !ok || got.Code != ErrCodeNotFound {
		t.Errorf("ParseResponse = %+v, %v", got, ok)
	}
	for _, in := range []string{"missing", "{}", `{"error":{}}`} {
		if _, ok := ParseResponse([]byte(in)); ok {
			t.Errorf("ParseResponse(%q) should fail", in)
		}
	}
}
