package httpclient

import (
	"net/http"
	"testing"
)

func TestAuth_Apply(t *testing.T) {
	tests := []struct {
		name  string
		auth  *AuthConfig
		check func(t *testing.T, req *http.Request)
	}{
		{"bearer", BearerAuth("tok"), func(t *testing.T, req *http.Request) {
			if got := req.Header.Get("Authorization"); got != "Bearer tok" {
				t.Errorf("Authorization = %q", got)
			}
		}},
		{"basic", BasicAuth("user", "pass"), func(t *testing.T, req *http.Request) {
			u, p, ok := req.BasicAuth()
			if !ok || u != "user" || p != "pass" {
				t.Errorf("basic auth = %q %q %v", u, p, ok)
			}
		}},
		{"api key header", APIKeyAuth("k1"), func(t *testing.T, req *http.Request) {
			if got := req.Header.Get("X-API-Key"); got != "k1" {
				t.Errorf("X-API-Key = %q", got)
			}
		}},
		{"api key default name", &AuthConfig{Type: AuthAPIKey, Key: "k2"}, func(t *testing.T, req *http.Request) {
			if got := req.Header.Get("X-API-Key"); got != "k2" {
				t.Errorf("X-API-Key = %q", got)
			}
		}},
		{"api key query", APIKeyAuthQuery("k3", "api_key"), func(t *testing.T, req *http.Request) {
			if got := req.URL.Query().Get("api_key"); got != "k3" {
				t.Errorf("api_key = %q", got)
			}
			if got := req.URL.Query().Get("n"); got != "1" {
				t.Errorf("existing query lost: n = %q", got)
			}
		}},
		{"custom", CustomAuth(func(r *http.Request) { r.Header.Set("X-Custom", "v") }), func(t *testing.T, req *http.Request) {
			if got := req.Header.Get("X-Custom"); got != "v" {
				t.Errorf("X-Custom = %q", got)
			}
		}},
		{"nil", nil, func(t *testing.T, req *http.Request) {
			if len(req.Header) != 0 {
				t.Errorf("headers set: %v", req.Header)
			}
		}},
		{"none", &AuthConfig{}, func(t *testing.T, req *http.Request) {
			if len(req.Header) != 0 {
				t.Errorf("headers set: %v", req.Header)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "http://example.com/x?n=1", nil)
			tt.auth.apply(req)
			tt.check(t, req)
		})
	}
}

func TestAuth_Validate(t *testing.T) {
	if err := (&AuthConfig{Type: "token"}).validate(); err == nil {
		t.Error("unknown type should fail")
	}
	if err := (&AuthConfig{Type: AuthAPIKey, In: "cookie"}).validate(); err == nil {
		t.Error("unknown api key location should fail")
	}
	if err := BearerAuth("x").validate(); err != nil {
		t.Errorf("bearer: %v", err)
	}
}
