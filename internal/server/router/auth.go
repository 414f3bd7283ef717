// Package router maps parsed requests to handlers.
package router

import (
	"encoding/base64"
	"strings"

	"github.com/yndnr/gateserve-go/internal/server/engine"
)

// authorize checks the Authorization header against the protected-path
// gate: a valid Bearer token or valid Basic credentials. Returns the
// authenticated username.
func (r *Router) authorize(req *engine.Request) (string, bool) {
	auth := req.Header("Authorization")
	if auth == "" {
		return "", false
	}

	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return r.tokens.Validate(token)
	}

	if encoded, ok := strings.CutPrefix(auth, "Basic "); ok {
		username, password, ok := decodeBasic(encoded)
		if !ok {
			return "", false
		}
		if r.creds.Verify(username, password) {
			return username, true
		}
		return "", false
	}

	return "", false
}

// decodeBasic decodes a base64 "username:password" pair.
func decodeBasic(encoded string) (username, password string, ok bool) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", "", false
	}
	username, password, ok = strings.Cut(string(raw), ":")
	return username, password, ok
}

// bearerToken extracts a Bearer token from the request, if present.
func bearerToken(req *engine.Request) (string, bool) {
	return strings.CutPrefix(req.Header("Authorization"), "Bearer ")
}

// challenge is the 401 response for unauthenticated protected access.
func challenge() *engine.Response {
	resp := engine.JSONError(401, "Authentication required")
	resp.SetHeader("WWW-Authenticate", `Basic realm="Protected Area"`)
	return resp
}
