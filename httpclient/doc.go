// Package httpclient is the HTTP transport for streamed exchanges.
//
// A Client opens one HTTP request per exchange and reports the response
// body as it arrives: every read appends to the accumulated snapshot and
// is handed to the session as a stream.Update. Requests marked Streamed
// send their body incrementally through Exchange.Send, which returns once
// the connection has consumed the chunk.
//
// # Basic Usage
//
//	client, err := httpclient.New(httpclient.Config{
//	    BaseURL: "http://localhost:8080",
//	    HTTP2:   true,
//	    Auth:    httpclient.BearerAuth("my-token"),
//	})
//
//	err = stream.Call(ctx, client, stream.Request{
//	    Method: http.MethodGet,
//	    URL:    "/Demo/count?n=3",
//	}, stream.Int, sink)
//
// # With Resilience
//
// Retry, circuit breaker and rate limiter guard the open phase only. A
// response that has started streaming is never retried.
//
//	client, err := httpclient.New(httpclient.Config{
//	    BaseURL:        "https://api.example.com",
//	    Retry:          httpclient.DefaultRetryConfig(),
//	    CircuitBreaker: httpclient.DefaultCircuitBreakerConfig("api"),
//	})
package httpclient
