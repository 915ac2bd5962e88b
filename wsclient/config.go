package wsclient

import (
	"fmt"
	"strings"
	"time"
)

const (
	defaultHandshakeTimeout = 10 * time.Second
	defaultWriteTimeout     = 10 * time.Second
	defaultReadLimit        = 1 << 20
)

// Config configures the WebSocket transport.
type Config struct {
	// BaseURL is prepended to relative request URLs. http(s) schemes are
	// rewritten to ws(s).
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// HandshakeTimeout bounds the upgrade. Defaults to 10s.
	HandshakeTimeout time.Duration `yaml:"handshake_timeout" mapstructure:"handshake_timeout"`
	// WriteTimeout bounds each outbound message. Defaults to 10s.
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	// ReadLimit is the largest inbound message accepted. Defaults to 1MiB.
	ReadLimit int64 `yaml:"read_limit" mapstructure:"read_limit"`
	// Binary sends binary messages instead of text messages.
	Binary bool `yaml:"binary" mapstructure:"binary"`
	// BearerToken is sent as "Authorization: Bearer <token>" on the upgrade.
	BearerToken string `yaml:"bearer_token" mapstructure:"bearer_token"`
	// Headers are default headers sent on the upgrade.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = defaultHandshakeTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
	if c.ReadLimit <= 0 {
		c.ReadLimit = defaultReadLimit
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.BaseURL != "" && !hasScheme(c.BaseURL, "ws://", "wss://", "http://", "https://") {
		return fmt.Errorf("wsclient: base_url %q must use ws, wss, http or https", c.BaseURL)
	}
	if c.HandshakeTimeout <= 0 {
		return fmt.Errorf("wsclient: handshake_timeout must be positive")
	}
	return nil
}

func hasScheme(url string, schemes ...string) bool {
	for _, s := range schemes {
		if strings.HasPrefix(url, s) {
			return true
		}
	}
	return false
}
