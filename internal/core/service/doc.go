// Package service provides domain services for GateServe.
//
// Domain services own the two shared mutable structures of the server and
// make them safe under concurrent invocation from worker goroutines:
//
//   - CredentialStore: username -> salted-digest records with registration,
//     administrative pre-hashed loading, and constant-time verification
//   - TokenRegistry: bearer-token grants with issue/validate/revoke, lazy
//     expiry at validation time and a periodic sweeper
//   - ThrottleRegistry: per-client rate limiting for the auth endpoints
//
// Services never expose their internal mappings; all access goes through
// the operations defined here. No lock is ever held across socket IO.
package service
