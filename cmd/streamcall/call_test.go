package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kbukum/streamcall/logger"
	"github.com/kbukum/streamcall/rpc"
	"github.com/kbukum/streamcall/server"
)

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		in, method string
		want       rpc.Endpoint
		wantErr    bool
	}{
		{in: "Demo/count", want: rpc.Endpoint{Class: "Demo", Method: "count"}},
		{in: "/Demo/add", method: "post", want: rpc.Endpoint{Class: "Demo", Method: "add", HTTPMethod: "POST"}},
		{in: "Demo", wantErr: true},
		{in: "Demo/a/b", wantErr: true},
		{in: "Demo/a", method: "PUT", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseEndpoint(tt.in, tt.method)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("endpoint = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseArgs(t *testing.T) {
	args, err := parseArgs([]string{"n=5", "f=1.5", "ok=true", "name=Bob", "empty=", "nothing=null"})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	want := []any{int64(5), 1.5, true, "Bob", "", nil}
	for i, a := range args {
		if a.Value != want[i] {
			t.Errorf("%s = %#v, want %#v", a.Key, a.Value, want[i])
		}
	}

	if _, err := parseArgs([]string{"novalue"}); err == nil {
		t.Error("expected error for a pair without '='")
	}
}

func demoURL(t *testing.T) string {
	t.Helper()
	cfg := server.Config{}
	cfg.ApplyDefaults()
	srv := server.New(cfg, logger.Nop())
	srv.RegisterDemo()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("STREAMCALL_LOGGING_LEVEL", "error")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func TestCallCmd(t *testing.T) {
	url := demoURL(t)

	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{"whole", "", []string{"call", "Demo/greet", "name=Bob", "--mode", "whole"}, "Hello, Bob!\n"},
		{"framed ints", "", []string{"call", "Demo/count", "n=3", "--decode", "int"}, "0\n1\n2\n"},
		{"post json", "", []string{"call", "Demo/add", "a=2", "b=3", "-X", "POST", "-m", "whole", "-d", "int"}, "5\n"},
		{"duplex", "x\ny\n", []string{"call", "Demo/echo", "--send"}, "ECHO: x\nECHO: y\n"},
		{"duplex h2c", "x\n", []string{"call", "Demo/echo", "--send", "--h2c"}, "ECHO: x\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.stdin, append(tt.args, "--url", url)...)
			if err != nil {
				t.Fatalf("execute: %v\n%s", err, out)
			}
			if out != tt.want {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestCallCmd_JSONError(t *testing.T) {
	url := demoURL(t)

	out, err := execute(t, "", "call", "Demo/fail", "status=404", "reason=missing", "--json", "--url", url)
	if !errors.Is(err, errReported) {
		t.Fatalf("err = %v, want errReported", err)
	}

	var resp struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if resp.Error.Code != "UPSTREAM_STATUS" || resp.Error.Message != "Not Found: missing" {
		t.Errorf("error = %+v", resp.Error)
	}
}

func TestCallCmd_BadDecode(t *testing.T) {
	_, err := execute(t, "", "call", "Demo/count", "--decode", "complex", "--url", "http://localhost:1")
	if err == nil || !strings.Contains(err.Error(), "unknown decode type") {
		t.Errorf("err = %v", err)
	}
}
