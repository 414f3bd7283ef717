// Package router maps parsed requests to handlers.
package router

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/yndnr/gateserve-go/internal/infra/buildinfo"
	"github.com/yndnr/gateserve-go/internal/server/engine"
)

var startTime = time.Now()

// registerBuiltins wires the default routes.
func (r *Router) registerBuiltins() {
	r.Route("POST", "/api/register", r.handleRegister)
	r.Route("POST", "/api/login", r.handleLogin)
	r.Route("POST", "/api/logout", r.handleLogout)

	r.Route("GET", "/", r.handleHome)
	r.Route("GET", "/hello", r.handleHello)
	r.Route("GET", "/api/status", r.handleStatus)
	r.Route("GET", "/api/stats", r.handleStats)
	r.Route("POST", "/api/echo", r.handleEcho)
	r.Route("GET", "/admin", r.handleAdmin)
	r.Route("GET", "/chunked", r.handleChunked)
	r.Route("GET", "/metrics", r.handleMetrics)
}

// handleHome serves the root path: the static index file when present,
// otherwise a generated landing page.
func (r *Router) handleHome(ctx context.Context, req *engine.Request) *engine.Response {
	if r.cfg.Static.Enabled {
		index := filepath.Join(r.cfg.Static.Directory, r.cfg.Static.IndexFile)
		if data, err := os.ReadFile(index); err == nil {
			resp := engine.NewResponse(200)
			resp.Headers["Content-Type"] = mimeTypeFor(index)
			resp.Body = data
			return resp
		}
	}

	return engine.HTML(200, `<!DOCTYPE html>
<html>
<head><title>GateServe</title></head>
<body>
<h1>GateServe</h1>
<p>Concurrent HTTP/1.1 server. Try <a href="/hello">/hello</a> or <a href="/api/status">/api/status</a>.</p>
</body>
</html>
`)
}

// handleHello serves GET /hello with an optional ?name= greeting.
func (r *Router) handleHello(ctx context.Context, req *engine.Request) *engine.Response {
	name := req.Query()["name"]
	if name == "" {
		name = "World"
	}
	return engine.Text(200, fmt.Sprintf("Hello, %s!\n", name))
}

// handleStatus serves GET /api/status.
func (r *Router) handleStatus(ctx context.Context, req *engine.Request) *engine.Response {
	return engine.JSON(200, map[string]any{
		"status":         "ok",
		"version":        buildinfo.Version,
		"uptime_seconds": int64(time.Since(startTime).Seconds()),
	})
}

// handleStats serves GET /api/stats: a feature and limits report.
func (r *Router) handleStats(ctx context.Context, req *engine.Request) *engine.Response {
	return engine.JSON(200, map[string]any{
		"workers":                    r.cfg.Pool.WorkerThreads,
		"max_concurrent_connections": r.cfg.Pool.MaxConcurrentConnections,
		"max_idle_connections":       r.cfg.Connection.MaxIdleConnections,
		"auth_enabled":               r.cfg.Auth.Enabled,
		"static_enabled":             r.cfg.Static.Enabled,
		"users":                      r.creds.Count(),
		"live_tokens":                r.tokens.Count(),
	})
}

// handleEcho serves POST /api/echo: the body comes straight back.
func (r *Router) handleEcho(ctx context.Context, req *engine.Request) *engine.Response {
	resp := engine.NewResponse(200)
	ct := req.Header("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	resp.Headers["Content-Type"] = ct
	resp.Body = req.Body
	return resp
}

// handleAdmin serves GET /admin, a protected demo page. The
// protected-path gate has already run when this handler is reached.
func (r *Router) handleAdmin(ctx context.Context, req *engine.Request) *engine.Response {
	return engine.HTML(200, `<!DOCTYPE html>
<html>
<head><title>Admin</title></head>
<body>
<h1>Admin Area</h1>
<p>You are authenticated.</p>
</body>
</html>
`)
}

// handleChunked serves GET /chunked, a chunked transfer-encoding demo.
func (r *Router) handleChunked(ctx context.Context, req *engine.Request) *engine.Response {
	resp := engine.NewResponse(200)
	resp.Headers["Content-Type"] = "text/plain; charset=utf-8"
	resp.Chunks = [][]byte{
		[]byte("This response "),
		[]byte("is delivered "),
		[]byte("in chunks.\n"),
	}
	return resp
}

// handleMetrics serves GET /metrics in Prometheus text format.
func (r *Router) handleMetrics(ctx context.Context, req *engine.Request) *engine.Response {
	out, err := r.metrics.Render()
	if err != nil {
		r.log.Error("metrics render failed", "error", err)
		return engine.JSONError(500, "Internal server error")
	}
	resp := engine.NewResponse(200)
	resp.Headers["Content-Type"] = r.metrics.ContentType()
	resp.Body = out
	return resp
}
