// Package router maps parsed requests to handlers.
package router

import (
	"context"
	"strings"
	"sync"

	"github.com/yndnr/gateserve-go/internal/core/service"
	"github.com/yndnr/gateserve-go/internal/server/config"
	"github.com/yndnr/gateserve-go/internal/server/engine"
	"github.com/yndnr/gateserve-go/internal/telemetry/logger"
	"github.com/yndnr/gateserve-go/internal/telemetry/metric"
)

// Router dispatches requests by method and exact path, with static
// content as the fallback. It implements engine.Handler.
type Router struct {
	cfg      *config.ServerConfig
	creds    *service.CredentialStore
	tokens   *service.TokenRegistry
	throttle *service.ThrottleRegistry
	metrics  *metric.Registry
	log      logger.Logger

	mu        sync.RWMutex
	protected []string

	routes map[string]engine.HandlerFunc
}

// New creates a router over the given stores. Protected path prefixes
// are seeded from the config; more can be added via AddProtectedPath.
func New(cfg *config.ServerConfig, creds *service.CredentialStore, tokens *service.TokenRegistry, throttle *service.ThrottleRegistry, metrics *metric.Registry, log logger.Logger) *Router {
	r := &Router{
		cfg:      cfg,
		creds:    creds,
		tokens:   tokens,
		throttle: throttle,
		metrics:  metrics,
		log:      log,
		routes:   make(map[string]engine.HandlerFunc),
	}
	if cfg.Auth.Enabled {
		r.protected = append(r.protected, cfg.Auth.ProtectedPaths...)
	}
	r.registerBuiltins()
	return r
}

// Route registers a handler for an exact method and path.
func (r *Router) Route(method, path string, h engine.HandlerFunc) {
	r.routes[method+" "+path] = h
}

// AddProtectedPath adds a path prefix requiring authentication.
func (r *Router) AddProtectedPath(prefix string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.protected = append(r.protected, prefix)
}

// IsProtected reports whether the path falls under a protected prefix.
func (r *Router) IsProtected(path string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, prefix := range r.protected {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Handle dispatches one request. The protected-path gate runs before
// any handler; routing ignores the query string.
func (r *Router) Handle(ctx context.Context, req *engine.Request) *engine.Response {
	if r.cfg.Auth.Enabled && r.IsProtected(req.Path) {
		if _, ok := r.authorize(req); !ok {
			r.metrics.AuthFailures.Inc()
			return challenge()
		}
	}

	if h, ok := r.routes[req.Method+" "+req.Path]; ok {
		return h(ctx, req)
	}

	// Non-POST on the auth API endpoints is a method error, not a 404.
	switch req.Path {
	case "/api/register", "/api/login", "/api/logout":
		return engine.JSONError(405, "Method not allowed")
	}

	if r.cfg.Static.Enabled && (req.Method == "GET" || req.Method == "HEAD") {
		return r.serveStatic(ctx, req)
	}

	return engine.JSONError(404, "Not found")
}
