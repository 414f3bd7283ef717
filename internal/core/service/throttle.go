// Package service provides domain services for GateServe.
package service

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// throttleEntry pairs a client limiter with its last-use time so idle
// entries can be swept.
type throttleEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// ThrottleRegistry manages per-client rate limiters for the auth
// endpoints (login and registration). Entries for clients that go
// quiet are removed by CleanupIdle, so the map stays bounded under
// address churn.
type ThrottleRegistry struct {
	mu       sync.Mutex
	limiters map[string]*throttleEntry
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

// ThrottleOption configures a ThrottleRegistry.
type ThrottleOption func(*ThrottleRegistry)

// WithThrottleClock overrides the registry clock. Used by tests to
// drive idle-entry eviction.
func WithThrottleClock(now func() time.Time) ThrottleOption {
	return func(t *ThrottleRegistry) {
		t.now = now
	}
}

// NewThrottleRegistry creates a registry allowing rps requests per second
// per client key, with the given burst. A non-positive rps disables
// throttling: Allow always returns true.
func NewThrottleRegistry(rps float64, burst int, opts ...ThrottleOption) *ThrottleRegistry {
	if burst < 1 {
		burst = 1
	}
	t := &ThrottleRegistry{
		limiters: make(map[string]*throttleEntry),
		limit:    rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Allow reports whether the client identified by key may proceed.
func (t *ThrottleRegistry) Allow(key string) bool {
	if t.limit <= 0 {
		return true
	}

	t.mu.Lock()
	entry, ok := t.limiters[key]
	if !ok {
		entry = &throttleEntry{lim: rate.NewLimiter(t.limit, t.burst)}
		t.limiters[key] = entry
	}
	entry.lastSeen = t.now()
	t.mu.Unlock()

	return entry.lim.Allow()
}

// CleanupIdle removes entries not used for longer than maxIdle and
// returns the count. An evicted client that returns simply gets a
// fresh limiter with a full burst.
func (t *ThrottleRegistry) CleanupIdle(maxIdle time.Duration) int {
	cutoff := t.now().Add(-maxIdle)

	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for key, entry := range t.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(t.limiters, key)
			removed++
		}
	}
	return removed
}

// StartSweeper launches the periodic idle-entry sweep and returns a
// stop function. An entry idle for a whole sweep interval has long
// since refilled its burst, so dropping it changes no outcome.
func (t *ThrottleRegistry) StartSweeper(interval time.Duration) (stop func()) {
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
				t.CleanupIdle(interval)
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

// Len returns the number of tracked clients.
func (t *ThrottleRegistry) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.limiters)
}
