// Package service provides domain services for GateServe.
package service

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/gateserve-go/internal/core/domain"
)

// fakeClock is a mutable clock for driving expiry in tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// TestTokenRegistry_IssueValidate tests the issue/validate cycle.
func TestTokenRegistry_IssueValidate(t *testing.T) {
	r := NewTokenRegistry()

	tok, err := r.Issue("alice")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if !domain.ValidateTokenFormat(tok) {
		t.Errorf("issued token has invalid format: %q", tok)
	}

	username, ok := r.Validate(tok)
	if !ok || username != "alice" {
		t.Errorf("Validate = %q, %v; want alice, true", username, ok)
	}

	if _, ok := r.Validate("gstk_notarealtoken"); ok {
		t.Error("Validate accepted an unknown token")
	}
}

// TestTokenRegistry_Revoke tests revocation is immediate and terminal.
func TestTokenRegistry_Revoke(t *testing.T) {
	r := NewTokenRegistry()

	tok, err := r.Issue("alice")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if !r.Revoke(tok) {
		t.Error("Revoke returned false for a live token")
	}
	if _, ok := r.Validate(tok); ok {
		t.Error("revoked token still validates")
	}
	if r.Revoke(tok) {
		t.Error("second Revoke returned true")
	}
	if r.Count() != 0 {
		t.Errorf("Count() = %d after revocation, want 0", r.Count())
	}
}

// TestTokenRegistry_Expiry tests lazy expiry at validation time.
func TestTokenRegistry_Expiry(t *testing.T) {
	clock := newFakeClock()
	r := NewTokenRegistry(WithClock(clock.Now))

	tok, err := r.Issue("alice")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// Valid right up to the deadline.
	clock.Advance(domain.TokenTTL - time.Second)
	if _, ok := r.Validate(tok); !ok {
		t.Fatal("token invalid before its deadline")
	}

	// Invalid at the deadline, and lazily removed by the lookup.
	clock.Advance(time.Second)
	if _, ok := r.Validate(tok); ok {
		t.Error("token valid at its deadline")
	}
	if r.Count() != 0 {
		t.Errorf("Count() = %d after lazy expiry, want 0", r.Count())
	}

	// Once expired, never revalidated.
	clock.Advance(-domain.TokenTTL)
	if _, ok := r.Validate(tok); ok {
		t.Error("expired token revalidated after clock went back")
	}
}

// TestTokenRegistry_CleanupExpired tests the bulk sweep and its idempotence.
func TestTokenRegistry_CleanupExpired(t *testing.T) {
	clock := newFakeClock()
	r := NewTokenRegistry(WithClock(clock.Now))

	for i := 0; i < 10; i++ {
		if _, err := r.Issue(fmt.Sprintf("user%d", i)); err != nil {
			t.Fatalf("Issue failed: %v", err)
		}
	}
	clock.Advance(30 * time.Minute)
	for i := 10; i < 15; i++ {
		if _, err := r.Issue(fmt.Sprintf("user%d", i)); err != nil {
			t.Fatalf("Issue failed: %v", err)
		}
	}

	// Nothing expired yet: sweep is a no-op.
	if removed := r.CleanupExpired(); removed != 0 {
		t.Errorf("CleanupExpired removed %d, want 0", removed)
	}
	if r.Count() != 15 {
		t.Errorf("Count() = %d, want 15", r.Count())
	}

	// First batch expires, second is still live.
	clock.Advance(31 * time.Minute)
	if removed := r.CleanupExpired(); removed != 10 {
		t.Errorf("CleanupExpired removed %d, want 10", removed)
	}
	if r.Count() != 5 {
		t.Errorf("Count() = %d, want 5", r.Count())
	}

	// Sweeping twice in a row yields the same end state as once.
	if removed := r.CleanupExpired(); removed != 0 {
		t.Errorf("second CleanupExpired removed %d, want 0", removed)
	}
	if r.Count() != 5 {
		t.Errorf("Count() = %d after second sweep, want 5", r.Count())
	}
}

// TestTokenRegistry_ConcurrentIssue tests that concurrent logins for
// distinct users each receive a distinct valid token.
func TestTokenRegistry_ConcurrentIssue(t *testing.T) {
	const m = 64

	r := NewTokenRegistry()
	tokens := make([]string, m)

	var wg sync.WaitGroup
	for i := 0; i < m; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := r.Issue(fmt.Sprintf("user%d", i))
			if err != nil {
				t.Errorf("Issue failed: %v", err)
				return
			}
			tokens[i] = tok
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, m)
	for i, tok := range tokens {
		if seen[tok] {
			t.Fatal("duplicate token issued")
		}
		seen[tok] = true

		username, ok := r.Validate(tok)
		if !ok || username != fmt.Sprintf("user%d", i) {
			t.Errorf("Validate(token %d) = %q, %v", i, username, ok)
		}
	}

	if r.Count() != m {
		t.Errorf("Count() = %d, want %d", r.Count(), m)
	}
}

// TestTokenRegistry_Sweeper tests the periodic sweeper goroutine.
func TestTokenRegistry_Sweeper(t *testing.T) {
	clock := newFakeClock()
	r := NewTokenRegistry(WithClock(clock.Now))

	if _, err := r.Issue("alice"); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	clock.Advance(2 * domain.TokenTTL)

	stop := r.StartSweeper(10 * time.Millisecond)
	defer stop()

	deadline := time.Now().Add(2 * time.Second)
	for r.Count() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("sweeper did not remove the expired grant in time")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Stopping twice must be safe.
	stop()
	stop()
}
