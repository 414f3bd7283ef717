// Package router maps parsed requests to handlers.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"net"

	"github.com/yndnr/gateserve-go/internal/core/domain"
	"github.com/yndnr/gateserve-go/internal/server/engine"
)

// credentialsBody is the request body for register and login.
type credentialsBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// decodeCredentials parses and validates the register/login body.
func decodeCredentials(req *engine.Request) (credentialsBody, *engine.Response) {
	var body credentialsBody
	if err := json.Unmarshal(req.Body, &body); err != nil {
		return body, engine.JSONError(400, "Malformed JSON body")
	}
	if body.Username == "" || body.Password == "" {
		return body, engine.JSONError(400, "Username and password are required")
	}
	return body, nil
}

// throttled applies the per-client-IP rate limit for credential
// endpoints. Returns a 429 response when the limit is exceeded.
func (r *Router) throttled(req *engine.Request) *engine.Response {
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		host = req.RemoteAddr
	}
	if !r.throttle.Allow(host) {
		r.log.Warn("auth attempt throttled", "remote", host)
		return engine.JSONError(429, "Too many attempts, slow down")
	}
	return nil
}

// handleRegister serves POST /api/register: create the user, then
// issue a session token. Registration conflicts are the one place
// username existence is intentionally revealed.
func (r *Router) handleRegister(ctx context.Context, req *engine.Request) *engine.Response {
	if resp := r.throttled(req); resp != nil {
		return resp
	}

	body, errResp := decodeCredentials(req)
	if errResp != nil {
		return errResp
	}

	if err := r.creds.Register(body.Username, body.Password); err != nil {
		if errors.Is(err, domain.ErrUsernameExists) {
			return engine.JSONError(409, "Username already exists")
		}
		r.log.Error("registration failed", "username", body.Username, "error", err)
		return engine.JSONError(500, "Internal server error")
	}

	token, err := r.tokens.Issue(body.Username)
	if err != nil {
		r.log.Error("token issue failed", "username", body.Username, "error", err)
		return engine.JSONError(500, "Internal server error")
	}

	r.updateAuthGauges()
	r.log.Info("user registered", "username", body.Username)

	return engine.JSON(201, map[string]any{
		"success": true,
		"token":   token,
	})
}

// handleLogin serves POST /api/login. Failures are a single generic
// 401 so username existence never leaks here.
func (r *Router) handleLogin(ctx context.Context, req *engine.Request) *engine.Response {
	if resp := r.throttled(req); resp != nil {
		return resp
	}

	body, errResp := decodeCredentials(req)
	if errResp != nil {
		return errResp
	}

	if !r.creds.Verify(body.Username, body.Password) {
		r.metrics.AuthFailures.Inc()
		r.log.Info("login rejected", "remote", req.RemoteAddr)
		return engine.JSONError(401, "Invalid username or password")
	}

	token, err := r.tokens.Issue(body.Username)
	if err != nil {
		r.log.Error("token issue failed", "username", body.Username, "error", err)
		return engine.JSONError(500, "Internal server error")
	}

	r.updateAuthGauges()
	r.log.Info("user logged in", "username", body.Username)

	return engine.JSON(200, map[string]any{
		"success": true,
		"token":   token,
	})
}

// handleLogout serves POST /api/logout. A missing or unknown bearer
// token is an authentication failure, not a bad request.
func (r *Router) handleLogout(ctx context.Context, req *engine.Request) *engine.Response {
	token, ok := bearerToken(req)
	if !ok || token == "" {
		return engine.JSONError(401, "Bearer token required")
	}

	if !r.tokens.Revoke(token) {
		r.metrics.AuthFailures.Inc()
		return engine.JSONError(401, "Invalid or expired token")
	}

	r.updateAuthGauges()

	return engine.JSON(200, map[string]any{
		"success": true,
		"message": "Logged out successfully",
	})
}

// updateAuthGauges refreshes the auth-subsystem gauges.
func (r *Router) updateAuthGauges() {
	r.metrics.TokensLive.Set(float64(r.tokens.Count()))
	r.metrics.UsersTotal.Set(float64(r.creds.Count()))
}
