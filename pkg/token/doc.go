// Package token provides opaque token generation and hashing utilities.
//
// This package implements cryptographically secure token generation
// for bearer-token sessions:
//
//   - Generation: crypto/rand bytes, Base64 RawURL encoded so tokens
//     travel in Authorization headers and URLs without escaping
//   - Hashing: SHA-256, hex encoded for storage
//   - Verification: constant-time comparison against a stored hash
//
// Plaintext tokens are handed to the client exactly once; registries
// keep only the hash.
package token
