// Package domain defines the core domain models for GateServe.
package domain

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/yndnr/gateserve-go/pkg/token"
)

// Token constants.
const (
	// TokenPrefix is the prefix for session tokens (sensitive, uses underscore).
	TokenPrefix = "gstk_"

	// TokenBytesLength is the number of random bytes per token.
	TokenBytesLength = 32

	// TokenBodyLength is the Base64 RawURL encoded length (32 bytes -> 43 chars).
	TokenBodyLength = 43

	// TokenLength is the total token length (prefix + body).
	TokenLength = 5 + TokenBodyLength

	// TokenTTL is the fixed lifetime of an issued token.
	TokenTTL = time.Hour
)

// GenerateSessionToken generates a cryptographically secure session token.
// Returns the plaintext token (gstk_...) and its SHA-256 hash.
//
// The plaintext token is returned to the client exactly once; only the
// hash is kept in the registry.
func GenerateSessionToken() (plaintext string, hash string, err error) {
	body, err := token.GenerateWithLength(TokenBytesLength)
	if err != nil {
		return "", "", ErrInternalServer.WithCause(err)
	}

	plaintext = TokenPrefix + body
	hash = token.Hash(plaintext)
	return plaintext, hash, nil
}

// HashSessionToken computes the registry key for a presented token.
func HashSessionToken(plaintext string) string {
	return token.Hash(plaintext)
}

// ValidateTokenFormat checks if a string has valid session token format:
// the gstk_ prefix followed by 43 characters of Base64 RawURL data.
func ValidateTokenFormat(tok string) bool {
	if len(tok) != TokenLength {
		return false
	}
	if !strings.HasPrefix(tok, TokenPrefix) {
		return false
	}

	body := tok[len(TokenPrefix):]
	_, err := base64.RawURLEncoding.DecodeString(body)
	return err == nil
}

// MaskToken masks a token for safe logging.
// Example: gstk_ABC...xyz
func MaskToken(tok string) string {
	if !strings.HasPrefix(tok, TokenPrefix) || len(tok) < len(TokenPrefix)+6 {
		return "***REDACTED***"
	}
	body := tok[len(TokenPrefix):]
	return TokenPrefix + body[:3] + "..." + body[len(body)-3:]
}

// Grant is a live bearer-token grant: the association between a token
// (by hash) and a username, with a fixed expiry.
type Grant struct {
	TokenHash string
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// NewGrant creates a grant issued now; ExpiresAt is exactly IssuedAt + TokenTTL.
func NewGrant(tokenHash, username string, now time.Time) *Grant {
	return &Grant{
		TokenHash: tokenHash,
		Username:  username,
		IssuedAt:  now,
		ExpiresAt: now.Add(TokenTTL),
	}
}

// IsExpired reports whether the grant is expired at the given instant.
func (g *Grant) IsExpired(now time.Time) bool {
	return !now.Before(g.ExpiresAt)
}
