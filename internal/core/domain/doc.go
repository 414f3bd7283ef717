// Package domain defines the core domain models for GateServe.
//
// Domain models are pure value objects without IO dependencies or
// framework coupling. This package contains:
//
//   - UserRecord: credential record with salted password digest
//   - Grant: a live bearer-token grant with expiry
//   - Token: session token generation, format validation and masking
//   - Errors: domain-specific error definitions with stable codes
package domain
