package server

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/net/http2"

	"github.com/kbukum/streamcall/logger"
)

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	cfg.ApplyDefaults()
	srv := New(cfg, logger.Nop())
	srv.ApplyMiddleware()
	srv.RegisterDefaultEndpoints("test")
	srv.RegisterDemo()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func errorCode(t *testing.T, body string) string {
	t.Helper()
	var r struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		t.Fatalf("error body %q: %v", body, err)
	}
	return r.Error.Code
}

func TestDemo_Values(t *testing.T) {
	ts := newTestServer(t, Config{})

	tests := []struct {
		name string
		path string
		want string
	}{
		{"greet", "/Demo/greet?name=Bob", "Hello, Bob!"},
		{"greet default", "/Demo/greet", "Hello, world!"},
		{"add", "/Demo/add?a=2&b=40", "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := get(t, ts.URL+tt.path)
			if status != http.StatusOK {
				t.Fatalf("status = %d, body %q", status, body)
			}
			if body != tt.want {
				t.Errorf("body = %q, want %q", body, tt.want)
			}
		})
	}
}

func TestDemo_AddJSONBody(t *testing.T) {
	ts := newTestServer(t, Config{})

	resp, err := http.Post(ts.URL+"/Demo/add", "application/json", strings.NewReader(`{"a": 2, "b": 3}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "5" {
		t.Errorf("body = %q, want 5", body)
	}
}

func TestDemo_InvalidArgument(t *testing.T) {
	ts := newTestServer(t, Config{})

	status, body := get(t, ts.URL+"/Demo/add?a=x")
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	if code := errorCode(t, body); code != "INVALID_INPUT" {
		t.Errorf("code = %q", code)
	}
}

func TestDemo_Count(t *testing.T) {
	ts := newTestServer(t, Config{})

	resp, err := http.Get(ts.URL + "/Demo/count?n=5&delay_ms=1")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q", ct)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(body) != "0\n1\n2\n3\n4\n" {
		t.Errorf("body = %q", body)
	}
}

func TestDemo_CountEmpty(t *testing.T) {
	ts := newTestServer(t, Config{})

	status, body := get(t, ts.URL+"/Demo/count?n=0")
	if status != http.StatusOK || body != "" {
		t.Errorf("status = %d, body = %q", status, body)
	}
}

func TestDemo_CountText(t *testing.T) {
	ts := newTestServer(t, Config{})

	resp, err := http.Post(ts.URL+"/Demo/countText?n=3", "text/plain", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if want := "COUNT: 0\nCOUNT: 1\nCOUNT: 2\nDONE\n"; string(body) != want {
		t.Errorf("body = %q, want %q", body, want)
	}
}

func TestEmitter(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	emit := newEmitter(c)
	if emit.Started() || emit.Count() != 0 {
		t.Fatalf("fresh emitter started=%v count=%d", emit.Started(), emit.Count())
	}

	for _, v := range []any{1, nil, "two"} {
		if err := emit.Emit(v); err != nil {
			t.Fatalf("Emit(%v): %v", v, err)
		}
	}
	if !emit.Started() || emit.Count() != 2 {
		t.Errorf("started=%v count=%d, want true 2", emit.Started(), emit.Count())
	}
	if got := w.Body.String(); got != "1\ntwo\n" {
		t.Errorf("body = %q", got)
	}
}

func TestStream_ErrorBeforeOutput(t *testing.T) {
	ts := newTestServer(t, Config{})

	status, body := get(t, ts.URL+"/Demo/count?n=3&fail_at=0")
	if status != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", status)
	}
	if code := errorCode(t, body); code != "INTERNAL_ERROR" {
		t.Errorf("code = %q", code)
	}
}

func TestStream_ErrorMidStream(t *testing.T) {
	ts := newTestServer(t, Config{})

	resp, err := http.Get(ts.URL + "/Demo/count?n=5&fail_at=2")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err == nil {
		t.Fatal("expected a broken transfer")
	}
	if string(body) != "0\n1\n" {
		t.Errorf("body = %q", body)
	}
}

func TestDemo_Fail(t *testing.T) {
	ts := newTestServer(t, Config{})

	status, body := get(t, ts.URL+"/Demo/fail?status=404&reason=missing")
	if status != http.StatusNotFound || body != "missing" {
		t.Errorf("got %d %q", status, body)
	}
}

func TestDemo_Counter(t *testing.T) {
	ts := newTestServer(t, Config{})

	resp, err := http.Post(ts.URL+"/Counter/new", "", nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	id, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if len(id) == 0 {
		t.Fatal("empty counter id")
	}

	for range 2 {
		resp, err := http.Post(ts.URL+"/Counter/add", "application/json",
			strings.NewReader(`{"self": "`+string(id)+`", "by": 5}`))
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		resp.Body.Close()
	}

	status, body := get(t, ts.URL+"/Counter/value?self="+string(id))
	if status != http.StatusOK || body != "10" {
		t.Errorf("value = %d %q, want 10", status, body)
	}

	status, _ = get(t, ts.URL+"/Counter/value?self=unknown")
	if status != http.StatusNotFound {
		t.Errorf("unknown counter status = %d", status)
	}
}

func TestDemo_Echo_HTTP1(t *testing.T) {
	ts := newTestServer(t, Config{})

	resp, err := http.Post(ts.URL+"/Demo/echo", "text/plain", strings.NewReader("a\nb\n"))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if want := "ECHO: a\nECHO: b\n"; string(body) != want {
		t.Errorf("body = %q, want %q", body, want)
	}
}

func TestDemo_Echo_Interleaved(t *testing.T) {
	ts := newTestServer(t, Config{})

	client := &http.Client{Transport: &http2.Transport{
		AllowHTTP: true,
		DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, addr)
		},
	}}

	pr, pw := io.Pipe()
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/Demo/echo", pr)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}

	respc := make(chan *http.Response, 1)
	errc := make(chan error, 1)
	go func() {
		resp, err := client.Do(req)
		if err != nil {
			errc <- err
			return
		}
		respc <- resp
	}()

	if _, err := io.WriteString(pw, "one\n"); err != nil {
		t.Fatalf("write: %v", err)
	}

	var resp *http.Response
	select {
	case resp = <-respc:
	case err := <-errc:
		t.Fatalf("Do: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("no response headers")
	}
	defer resp.Body.Close()

	lines := bufio.NewScanner(resp.Body)
	if !lines.Scan() || lines.Text() != "ECHO: one" {
		t.Fatalf("first line = %q", lines.Text())
	}
	if _, err := io.WriteString(pw, "two\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !lines.Scan() || lines.Text() != "ECHO: two" {
		t.Fatalf("second line = %q", lines.Text())
	}
	pw.Close()
	if lines.Scan() {
		t.Errorf("unexpected line %q", lines.Text())
	}
}

func TestServer_NotFound(t *testing.T) {
	ts := newTestServer(t, Config{})

	status, body := get(t, ts.URL+"/Nope/missing")
	if status != http.StatusNotFound {
		t.Fatalf("status = %d", status)
	}
	if code := errorCode(t, body); code != "NOT_FOUND" {
		t.Errorf("code = %q", code)
	}

	resp, err := http.Post(ts.URL+"/Demo/greet", "", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("POST greet status = %d, want 405", resp.StatusCode)
	}
}

func TestServer_Auth(t *testing.T) {
	ts := newTestServer(t, Config{Tokens: []string{"secret"}})

	status, _ := get(t, ts.URL+"/Demo/greet")
	if status != http.StatusUnauthorized {
		t.Errorf("status without token = %d", status)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/Demo/greet", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status with token = %d", resp.StatusCode)
	}

	if status, _ := get(t, ts.URL+"/health"); status != http.StatusOK {
		t.Errorf("health status = %d", status)
	}
}

func TestServer_Start(t *testing.T) {
	cfg := Config{Host: "127.0.0.1", Port: 0}
	cfg.ApplyDefaults()
	cfg.Port = 0
	srv := New(cfg, logger.Nop())
	srv.RegisterDemo()

	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer srv.Stop(context.Background())

	status, body := get(t, "http://"+srv.Addr()+"/Demo/greet?name=x")
	if status != http.StatusOK || body != "Hello, x!" {
		t.Errorf("got %d %q", status, body)
	}
}
