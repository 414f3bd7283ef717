// Package service provides domain services for GateServe.
package service

import (
	"sync"

	"github.com/yndnr/gateserve-go/internal/core/domain"
)

// CredentialStore holds username -> salted-digest records.
//
// The store is guarded by a single RWMutex; digest computation happens
// outside the critical section so the lock is only held for map access.
type CredentialStore struct {
	mu    sync.RWMutex
	users map[string]*domain.UserRecord
}

// NewCredentialStore creates an empty credential store.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{
		users: make(map[string]*domain.UserRecord),
	}
}

// Register creates a record for a new username. It fails with
// ErrUsernameExists if the username is already present; otherwise a fresh
// random salt is generated and the password digest stored.
func (s *CredentialStore) Register(username, password string) error {
	// Cheap existence pre-check before paying for the digest.
	s.mu.RLock()
	_, exists := s.users[username]
	s.mu.RUnlock()
	if exists {
		return domain.ErrUsernameExists
	}

	salt, err := domain.GenerateSalt()
	if err != nil {
		return err
	}
	digest := domain.HashPassword(password, salt)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-check under the write lock; a concurrent Register may have won.
	if _, exists := s.users[username]; exists {
		return domain.ErrUsernameExists
	}

	s.users[username] = &domain.UserRecord{
		Username: username,
		Salt:     salt,
		Digest:   digest,
	}
	return nil
}

// AddUserPrehashed stores an already-hashed salt_hex:hash_hex record
// verbatim. This is the administrative path used for config seed entries
// and the CLI hasher; it overwrites any existing record for the username.
func (s *CredentialStore) AddUserPrehashed(username, record string) error {
	salt, digest, err := domain.ParseRecord(record)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[username] = &domain.UserRecord{
		Username: username,
		Salt:     salt,
		Digest:   digest,
	}
	return nil
}

// Verify checks a password against the stored record. A missing user and
// a wrong password both return false; the distinction is never leaked.
func (s *CredentialStore) Verify(username, password string) bool {
	s.mu.RLock()
	rec, ok := s.users[username]
	if ok {
		rec = rec.Clone()
	}
	s.mu.RUnlock()

	if !ok {
		return false
	}
	return domain.VerifyPassword(password, rec.Salt, rec.Digest)
}

// Has reports whether a username is registered.
func (s *CredentialStore) Has(username string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.users[username]
	return ok
}

// Count returns the number of stored records.
func (s *CredentialStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.users)
}
