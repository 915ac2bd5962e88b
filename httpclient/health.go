package httpclient

import (
	"context"

	"github.com/kbukum/streamcall/observability"
	"github.com/kbukum/streamcall/resilience"
)

// CheckHealth reports the upstream as down while the circuit breaker is
// open and degraded while it is probing.
func (c *Client) CheckHealth(_ context.Context) observability.Health {
	h := observability.Health{
		Name:    "upstream",
		Status:  observability.HealthStatusUp,
		Details: map[string]string{"base_url": c.config.BaseURL},
	}
	if c.cb == nil {
		return h
	}
	state := c.cb.State()
	h.Details["breaker"] = state.String()
	switch state {
	case resilience.StateOpen:
		h.Status = observability.HealthStatusDown
		h.Message = "circuit breaker open"
	case resilience.StateHalfOpen:
		h.Status = observability.HealthStatusDegraded
	}
	return h
}
