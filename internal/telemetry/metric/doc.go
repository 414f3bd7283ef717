// Package metric provides Prometheus metrics for GateServe.
//
// It exposes metrics for connection admission, worker pool load,
// request rates and latencies, and the auth subsystem. Because the
// server speaks HTTP/1.1 over raw sockets, exposition goes through
// Render (prometheus text format via expfmt) rather than promhttp.
package metric
