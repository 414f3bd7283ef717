// Package domain defines the core domain models for GateServe.
package domain

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Password hashing parameters.
const (
	// SaltLength is the per-record salt length in bytes.
	SaltLength = 16

	// Argon2Memory is the memory parameter in KB (16 MB).
	Argon2Memory uint32 = 16384

	// Argon2Time is the iteration count.
	Argon2Time uint32 = 2

	// Argon2Parallelism is the parallelism factor.
	Argon2Parallelism uint8 = 2

	// Argon2KeyLen is the output digest length in bytes.
	Argon2KeyLen uint32 = 32
)

// UserRecord is a stored credential: username plus salted password digest.
// Records are immutable once created; re-registration of an existing
// username is rejected at the store level.
type UserRecord struct {
	Username string
	Salt     []byte
	Digest   []byte
}

// Clone returns a deep copy of the record.
func (u *UserRecord) Clone() *UserRecord {
	return &UserRecord{
		Username: u.Username,
		Salt:     append([]byte(nil), u.Salt...),
		Digest:   append([]byte(nil), u.Digest...),
	}
}

// GenerateSalt produces a fresh random salt from the CSPRNG.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, ErrInternalServer.WithCause(err)
	}
	return salt, nil
}

// HashPassword computes the argon2id digest of a password with a salt.
func HashPassword(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, Argon2Time, Argon2Memory, Argon2Parallelism, Argon2KeyLen)
}

// VerifyPassword recomputes the digest and compares it in constant time.
func VerifyPassword(password string, salt, digest []byte) bool {
	actual := HashPassword(password, salt)
	return subtle.ConstantTimeCompare(actual, digest) == 1
}

// EncodeRecord renders a salt and digest in the salt_hex:hash_hex storage
// format used by pre-hashed credential records and the CLI hasher.
func EncodeRecord(salt, digest []byte) string {
	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(digest)
}

// ParseRecord parses a salt_hex:hash_hex record and validates the lengths.
func ParseRecord(record string) (salt, digest []byte, err error) {
	saltHex, digestHex, ok := strings.Cut(record, ":")
	if !ok {
		return nil, nil, ErrMalformedRecord.WithDetails("missing ':' separator")
	}

	salt, err = hex.DecodeString(saltHex)
	if err != nil {
		return nil, nil, ErrMalformedRecord.WithDetails("salt is not valid hex")
	}
	if len(salt) != SaltLength {
		return nil, nil, ErrMalformedRecord.WithDetails("salt must be 16 bytes")
	}

	digest, err = hex.DecodeString(digestHex)
	if err != nil {
		return nil, nil, ErrMalformedRecord.WithDetails("digest is not valid hex")
	}
	if len(digest) != int(Argon2KeyLen) {
		return nil, nil, ErrMalformedRecord.WithDetails("digest must be 32 bytes")
	}

	return salt, digest, nil
}
