package rpc

import (
	"testing"
	"time"
)

func TestArgs_Query(t *testing.T) {
	var nothing *int
	tests := []struct {
		name     string
		args     Args
		self     string
		instance bool
		want     string
	}{
		{"empty", nil, "", false, ""},
		{"values", NewArgs("name", "Bob", "n", 3, "ok", true, "f", 1.5), "", false, "?name=Bob&n=3&ok=true&f=1.5"},
		{"escaped", NewArgs("q", "a b&c"), "", false, "?q=a+b%26c"},
		{"nil skipped", NewArgs("a", nil, "b", nothing, "c", 1), "", false, "?c=1"},
		{"instance only", nil, "id-1", true, "?self=id-1&"},
		{"instance with args", NewArgs("by", 2), "id-1", true, "?self=id-1&by=2"},
		{"duration", NewArgs("d", time.Second), "", false, "?d=1000000000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.args.Query(tt.self, tt.instance)
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			if got != tt.want {
				t.Errorf("Query = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestArgs_JSON(t *testing.T) {
	tests := []struct {
		name     string
		args     Args
		self     string
		instance bool
		want     string
	}{
		{"empty", nil, "", false, "{}"},
		{"ordered", NewArgs("b", 1, "a", "x"), "", false, `{"b":1,"a":"x"}`},
		{"nil skipped", NewArgs("a", nil, "b", []int{1}), "", false, `{"b":[1]}`},
		{"instance first", NewArgs("by", 5), "id-1", true, `{"self":"id-1","by":5}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.args.JSON(tt.self, tt.instance)
			if err != nil {
				t.Fatalf("JSON: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("JSON = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestArgs_With(t *testing.T) {
	base := NewArgs("a", 1)
	extended := base.With("b", 2)
	if len(base) != 1 || len(extended) != 2 {
		t.Errorf("len(base) = %d, len(extended) = %d", len(base), len(extended))
	}
	if got := NewArgs("a", 1, "dangling"); len(got) != 1 {
		t.Errorf("dangling key kept: %v", got)
	}
}

func TestBuildRequest(t *testing.T) {
	tests := []struct {
		name       string
		ep         Endpoint
		args       Args
		streamed   bool
		opts       []CallOption
		wantMethod string
		wantURL    string
		wantBody   string
	}{
		{
			name:       "get",
			ep:         GET("Demo", "greet"),
			args:       NewArgs("name", "Bob"),
			wantMethod: "GET",
			wantURL:    "/Demo/greet?name=Bob",
		},
		{
			name:       "default method",
			ep:         Endpoint{Class: "Demo", Method: "count"},
			wantMethod: "GET",
			wantURL:    "/Demo/count",
		},
		{
			name:       "post body",
			ep:         POST("Demo", "add"),
			args:       NewArgs("a", 1, "b", 2),
			wantMethod: "POST",
			wantURL:    "/Demo/add",
			wantBody:   `{"a":1,"b":2}`,
		},
		{
			name:       "post instance",
			ep:         POST("Counter", "add"),
			args:       NewArgs("by", 2),
			opts:       []CallOption{Instance("c1")},
			wantMethod: "POST",
			wantURL:    "/Counter/add",
			wantBody:   `{"self":"c1","by":2}`,
		},
		{
			name:       "streamed uses query",
			ep:         Endpoint{Class: "Demo", Method: "echo"},
			args:       NewArgs("prefix", ">"),
			streamed:   true,
			wantMethod: "POST",
			wantURL:    "/Demo/echo?prefix=%3E",
		},
		{
			name:       "streamed keeps explicit method",
			ep:         GET("Demo", "ws"),
			streamed:   true,
			wantMethod: "GET",
			wantURL:    "/Demo/ws",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := BuildRequest(tt.ep, tt.args, tt.streamed, tt.opts...)
			if err != nil {
				t.Fatalf("BuildRequest: %v", err)
			}
			if req.Method != tt.wantMethod || req.URL != tt.wantURL || string(req.Body) != tt.wantBody {
				t.Errorf("got %s %s %q, want %s %s %q", req.Method, req.URL, req.Body, tt.wantMethod, tt.wantURL, tt.wantBody)
			}
			if req.Streamed != tt.streamed {
				t.Errorf("Streamed = %v", req.Streamed)
			}
			if tt.wantBody != "" && req.Headers["Content-Type"] != "application/json" {
				t.Errorf("Content-Type = %q", req.Headers["Content-Type"])
			}
		})
	}
}

func TestBuildRequest_Header(t *testing.T) {
	req, err := BuildRequest(GET("A", "b"), nil, false, WithHeader("X-Trace", "1"))
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	if req.Headers["X-Trace"] != "1" {
		t.Errorf("headers = %v", req.Headers)
	}
}

func TestEndpoint_String(t *testing.T) {
	if got := POST("Counter", "add").String(); got != "POST /Counter/add" {
		t.Errorf("String = %q", got)
	}
	if got := (Endpoint{Class: "A", Method: "b"}).String(); got != "GET /A/b" {
		t.Errorf("String = %q", got)
	}
}

func TestArgs_QueryUnsupported(t *testing.T) {
	if _, err := NewArgs("c", make(chan int)).Query("", false); err == nil {
		t.Error("expected error")
	}
}
