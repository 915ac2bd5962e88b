// Package rpc invokes remote procedures exposed as <base>/<Class>/<Method>
// routes and decodes their (possibly streamed) replies.
//
// Arguments travel in the query string for GET endpoints and as a JSON
// object body for POST endpoints. Instance methods carry the instance id as
// the "self" argument. Streamed requests always carry their arguments in
// the query string because the body belongs to the producer.
//
//	client, err := rpc.New(rpc.Config{BaseURL: "http://localhost:8080"})
//
//	n, err := rpc.Call(ctx, client, rpc.GET("Demo", "add"),
//	    rpc.NewArgs("a", 1, "b", 2), stream.Int())
//
//	it, err := rpc.Stream(ctx, client, rpc.GET("Demo", "count"),
//	    rpc.NewArgs("n", 5), stream.Int())
//	defer it.Close()
//	for v, err := range it.All() {
//	    ...
//	}
package rpc
