// Package wsclient is the WebSocket transport for streamed exchanges.
//
// Every inbound message is appended to the snapshot and reported as one
// update; a normal close from the peer is the final update. Outbound
// chunks are sent one message each, and CloseSend sends an empty message,
// which marks the end of input for the peer.
//
// A successful upgrade reports status 200. A rejected handshake is not an
// open error: it becomes a single final update carrying the response
// status and body, so it surfaces as a status error like any HTTP reply.
package wsclient
