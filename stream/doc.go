// Package stream turns a transport that only exposes "bytes received so far"
// into a sequence of typed values, and lets the caller push outbound chunks on
// the same exchange.
//
// The pieces, leaves first:
//
//   - ChunkBuffer: tracks the consumed offset of a growing snapshot.
//   - Framer: splits deltas into tokens (LineFramer, EventFramer).
//   - Decoder: turns a token into a typed value (Int, Float, Text, JSON...).
//   - Session: the state machine for one exchange.
//   - Duplex: pumps a Producer onto the exchange while values flow back.
//
// # Callback Usage
//
//	err := stream.Call(ctx, transport, req, stream.Int(), stream.Callbacks[int64]{
//	    OnValue: func(v int64, final bool) { fmt.Println(v, final) },
//	    OnError: func(code int, reason string) { log.Printf("%d %s", code, reason) },
//	})
//
// # Pull Usage
//
//	it := stream.Open(ctx, transport, req, stream.Text())
//	defer it.Close()
//	for v, err := range it.All() {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(v)
//	}
package stream
