// Package resilience guards outbound calls: retry with backoff, circuit
// breaker, token bucket rate limiter and bulkhead.
//
// Streaming calls hold their guard for the lifetime of the exchange, so the
// breaker and the bulkhead hand out tickets instead of wrapping a function:
//
//	done, err := breaker.Allow()
//	if err != nil { return err }
//	ex, err := open(ctx)
//	done(err)
//
//	release, err := bulkhead.Acquire(ctx)
//	if err != nil { return err }
//	defer release()
package resilience
