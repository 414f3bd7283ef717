// Package engine implements the HTTP/1.1 connection engine for GateServe.
//
// The engine owns the listening socket and turns raw connections into
// bounded request/response cycles:
//
//   - Acceptor: accepts connections and applies admission control; at the
//     in-flight ceiling new connections are closed immediately without a
//     response.
//   - Worker pool: a fixed number of goroutines consume accepted
//     connections from a bounded queue. A connection is owned by exactly
//     one worker for its whole keep-alive session.
//   - Connection loop: read one request bounded by the read timeout,
//     dispatch to the Handler, write the response bounded by the write
//     timeout, then either park for keep-alive reuse or close.
//
// Requests are parsed and responses framed directly over bufio; the
// package deliberately does not use net/http for serving.
package engine
