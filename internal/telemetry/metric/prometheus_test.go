package metric

import (
	"strings"
	"testing"
)

// TestNewRegistry tests that all collectors register without panic.
func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry returned nil")
	}
	if r.ConnectionsActive == nil || r.RequestsTotal == nil || r.TokensLive == nil {
		t.Fatal("registry has nil collectors")
	}
}

// TestRender tests text exposition output.
func TestRender(t *testing.T) {
	r := NewRegistry()

	r.ConnectionsActive.Set(3)
	r.ConnectionsRejected.Inc()
	r.RequestsTotal.WithLabelValues("GET", "200").Inc()
	r.RequestsTotal.WithLabelValues("POST", "401").Add(2)
	r.RequestDuration.WithLabelValues("GET").Observe(0.005)
	r.TokensLive.Set(7)

	out, err := r.Render()
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	text := string(out)

	checks := []string{
		"gateserve_connections_active 3",
		"gateserve_connections_rejected_total 1",
		`gateserve_requests_total{method="GET",status="200"} 1`,
		`gateserve_requests_total{method="POST",status="401"} 2`,
		"gateserve_tokens_live 7",
		"gateserve_request_duration_seconds_count",
		"go_goroutines",
	}
	for _, want := range checks {
		if !strings.Contains(text, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

// TestContentType tests the exposition content type.
func TestContentType(t *testing.T) {
	r := NewRegistry()
	ct := r.ContentType()
	if !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("ContentType() = %q, want text/plain prefix", ct)
	}
}
