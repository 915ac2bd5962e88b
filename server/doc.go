// Package server provides an HTTP server for streamed call endpoints.
//
// The server is a Gin engine behind an h2c handler, so HTTP/1.1 and
// cleartext HTTP/2 clients share one port. Streamed routes write one value
// per line and flush after each, which is the wire shape the stream
// package decodes.
//
// # Routes
//
//	srv := server.New(cfg, log)
//	srv.ApplyMiddleware()
//	srv.RegisterDefaultEndpoints("streamcall")
//
//	srv.Stream(http.MethodGet, "/Jobs/progress", func(c *gin.Context, emit *server.Emitter) error {
//		for p := range progress(c.Request.Context()) {
//			if err := emit.Emit(p); err != nil {
//				return err
//			}
//		}
//		return nil
//	})
//
//	srv.Duplex("/Text/upper", func(c *gin.Context, in *bufio.Scanner, emit *server.Emitter) error {
//		for in.Scan() {
//			if err := emit.Emit(strings.ToUpper(in.Text())); err != nil {
//				return err
//			}
//		}
//		return in.Err()
//	})
//
// A route that fails before writing a value replies with the error's
// AppError status and JSON body. Once values have been sent the stream is
// aborted instead, so the client sees a broken transfer rather than a
// clean end.
//
// # Default endpoints
//
//   - /health: service health with component checks
//   - /alive: liveness check
//   - /info: service name, version and uptime
//   - /metrics: runtime and stream counters
package server
