// Package router maps parsed requests to handlers for GateServe.
//
// It owns the route table, the protected-path gate (Bearer token via
// the token registry or HTTP Basic via the credential store), the
// three auth API endpoints, the built-in routes, and static content
// delivery with directory listings.
package router
