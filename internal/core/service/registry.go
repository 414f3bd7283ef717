// Package service provides domain services for GateServe.
package service

import (
	"sync"
	"time"

	"github.com/yndnr/gateserve-go/internal/core/domain"
	"github.com/yndnr/gateserve-go/pkg/cmap"
)

// DefaultSweepInterval is the default period of the expiry sweeper.
const DefaultSweepInterval = 5 * time.Minute

// TokenRegistry holds live bearer-token grants keyed by token hash.
//
// State machine per grant: Issued -> (Valid) -> {Expired | Revoked},
// both terminal. Expired grants are removed lazily at validation time and
// in bulk by the periodic sweeper, so memory stays bounded regardless of
// traffic patterns.
type TokenRegistry struct {
	grants *cmap.Map[string, *domain.Grant]
	now    func() time.Time
}

// RegistryOption configures a TokenRegistry.
type RegistryOption func(*TokenRegistry)

// WithClock overrides the registry clock. Used by tests to drive expiry.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *TokenRegistry) {
		r.now = now
	}
}

// NewTokenRegistry creates an empty token registry.
func NewTokenRegistry(opts ...RegistryOption) *TokenRegistry {
	r := &TokenRegistry{
		grants: cmap.New[string, *domain.Grant](),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Issue generates a unique opaque token for a username and records its
// grant with expiry exactly one hour from now. Returns the plaintext
// token; only the hash is stored.
func (r *TokenRegistry) Issue(username string) (string, error) {
	for {
		plaintext, hash, err := domain.GenerateSessionToken()
		if err != nil {
			return "", err
		}

		// 256 bits of entropy make a collision practically impossible;
		// the retry loop still guarantees key uniqueness.
		if r.grants.SetIfAbsent(hash, domain.NewGrant(hash, username, r.now())) {
			return plaintext, nil
		}
	}
}

// Validate returns the username associated with a token iff the grant
// exists and has not expired. An expired grant is removed as part of this
// call; callers cannot distinguish "never existed" from "expired".
func (r *TokenRegistry) Validate(tok string) (string, bool) {
	hash := domain.HashSessionToken(tok)

	grant, ok := r.grants.Get(hash)
	if !ok {
		return "", false
	}
	if grant.IsExpired(r.now()) {
		r.grants.Delete(hash)
		return "", false
	}
	return grant.Username, true
}

// Revoke removes the grant for a token if present; returns whether it was
// present. Revocation is immediate and irreversible.
func (r *TokenRegistry) Revoke(tok string) bool {
	hash := domain.HashSessionToken(tok)
	_, ok := r.grants.Pop(hash)
	return ok
}

// CleanupExpired removes every expired grant and returns the count.
func (r *TokenRegistry) CleanupExpired() int {
	now := r.now()
	return r.grants.RemoveIf(func(_ string, g *domain.Grant) bool {
		return g.IsExpired(now)
	})
}

// Count returns the number of grants currently held, expired or not.
func (r *TokenRegistry) Count() int {
	return r.grants.Count()
}

// StartSweeper launches the periodic expiry sweep and returns a stop
// function. The sweep complements lazy validation-time removal so
// abandoned sessions do not accumulate.
func (r *TokenRegistry) StartSweeper(interval time.Duration) (stop func()) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.CleanupExpired()
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}
