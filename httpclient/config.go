package httpclient

import (
	"fmt"
	"time"

	"github.com/kbukum/streamcall/resilience"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultReadSize = 32 * 1024
)

// Config configures the HTTP transport.
type Config struct {
	// BaseURL is prepended to request URLs that are not absolute.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Timeout bounds the wait for response headers. Streaming bodies are
	// bounded by the caller's context only. Defaults to 30s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// HTTP2 speaks HTTP/2 with prior knowledge over cleartext (h2c), which
	// lets request and response bodies stream at the same time.
	HTTP2 bool `yaml:"http2" mapstructure:"http2"`

	// ReadSize is the largest body read reported as one update. Defaults to 32KiB.
	ReadSize int `yaml:"read_size" mapstructure:"read_size"`

	// Auth configures authentication applied to all requests.
	Auth *AuthConfig `yaml:"auth" mapstructure:"auth"`

	// TLS configures TLS for https endpoints.
	TLS *TLSConfig `yaml:"tls" mapstructure:"tls"`

	// Headers are default headers applied to all requests.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// Retry configures retries of the open phase. Nil disables retry.
	// Streamed requests are never retried.
	Retry *resilience.RetryConfig `yaml:"retry" mapstructure:"retry"`

	// CircuitBreaker guards the open phase. Nil disables it.
	CircuitBreaker *resilience.CircuitBreakerConfig `yaml:"-" mapstructure:"-"`

	// RateLimiter throttles opens. Nil disables it.
	RateLimiter *resilience.RateLimiterConfig `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.ReadSize <= 0 {
		c.ReadSize = defaultReadSize
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("httpclient: timeout must be positive")
	}
	if c.TLS != nil {
		if err := c.TLS.Validate(); err != nil {
			return err
		}
		if c.HTTP2 && c.TLS.IsEnabled() {
			return fmt.Errorf("httpclient: http2 prior knowledge is cleartext only; TLS connections negotiate HTTP/2 on their own")
		}
	}
	if err := c.Auth.validate(); err != nil {
		return err
	}
	return nil
}

// DefaultRetryConfig returns a retry config that only retries failures
// classified as retryable.
func DefaultRetryConfig() *resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.RetryIf = IsRetryable
	return &cfg
}

// DefaultCircuitBreakerConfig returns a default circuit breaker config.
func DefaultCircuitBreakerConfig(name string) *resilience.CircuitBreakerConfig {
	cfg := resilience.DefaultCircuitBreakerConfig(name)
	return &cfg
}

// DefaultRateLimiterConfig returns a default rate limiter config.
func DefaultRateLimiterConfig(name string) *resilience.RateLimiterConfig {
	cfg := resilience.DefaultRateLimiterConfig(name)
	return &cfg
}
