// Package metric provides Prometheus metrics for GateServe.
package metric

import (
	"bytes"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/common/expfmt"
)

// Registry holds all application metrics.
type Registry struct {
	reg *prometheus.Registry

	// Connection metrics
	ConnectionsActive   prometheus.Gauge
	ConnectionsIdle     prometheus.Gauge
	ConnectionsTotal    prometheus.Counter
	ConnectionsRejected prometheus.Counter

	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Auth metrics
	AuthFailures prometheus.Counter
	TokensLive   prometheus.Gauge
	UsersTotal   prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all collectors registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gateserve_connections_active",
			Help: "Connections currently being served.",
		}),
		ConnectionsIdle: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gateserve_connections_idle",
			Help: "Keep-alive connections parked between requests.",
		}),
		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gateserve_connections_accepted_total",
			Help: "Connections accepted since start.",
		}),
		ConnectionsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gateserve_connections_rejected_total",
			Help: "Connections closed at the admission ceiling.",
		}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateserve_requests_total",
			Help: "Requests served, by method and status code.",
		}, []string{"method", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gateserve_request_duration_seconds",
			Help:    "Request handling latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		AuthFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gateserve_auth_failures_total",
			Help: "Failed authentication attempts.",
		}),
		TokensLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gateserve_tokens_live",
			Help: "Unexpired session tokens in the registry.",
		}),
		UsersTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gateserve_users_total",
			Help: "Registered users in the credential store.",
		}),
	}

	reg.MustRegister(
		r.ConnectionsActive,
		r.ConnectionsIdle,
		r.ConnectionsTotal,
		r.ConnectionsRejected,
		r.RequestsTotal,
		r.RequestDuration,
		r.AuthFailures,
		r.TokensLive,
		r.UsersTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// Render returns the current metric state in Prometheus text exposition
// format, suitable for serving on a raw-socket /metrics endpoint.
func (r *Registry) Render() ([]byte, error) {
	families, err := r.reg.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}

	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return nil, fmt.Errorf("encode metric family %s: %w", mf.GetName(), err)
		}
	}

	return buf.Bytes(), nil
}

// ContentType returns the Content-Type for Render output.
func (r *Registry) ContentType() string {
	return string(expfmt.NewFormat(expfmt.TypeTextPlain))
}
