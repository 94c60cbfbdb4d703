package checkout

import (
	"sync"
	"time"
)

// Clock returns the current time. Tests substitute a fake.
type Clock func() time.Time

// Decision is the outcome of a rate limit check.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
	ResetAt    time.Time
}

type window struct {
	count   int
	resetAt time.Time
}

// RateLimiter is a fixed-window request counter per key.
type RateLimiter struct {
	max    int
	period time.Duration
	now    Clock

	mu      sync.Mutex
	entries map[string]*window
}

// NewRateLimiter allows max requests per key in each window.
// A nil clock uses time.Now.
func NewRateLimiter(max int, period time.Duration, clock Clock) *RateLimiter {
	if max < 1 {
		max = 1
	}
	if clock == nil {
		clock = time.Now
	}
	return &RateLimiter{
		max:     max,
		period:  period,
		now:     clock,
		entries: make(map[string]*window),
	}
}

// Allow counts a request for key and reports whether it may proceed.
func (l *RateLimiter) Allow(key string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.purge(now)

	w, ok := l.entries[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{count: 1, resetAt: now.Add(l.period)}
		l.entries[key] = w
		return Decision{Allowed: true, Remaining: l.max - 1, ResetAt: w.resetAt}
	}
	if w.count < l.max {
		w.count++
		return Decision{Allowed: true, Remaining: l.max - w.count, ResetAt: w.resetAt}
	}
	return Decision{Allowed: false, Remaining: 0, RetryAfter: w.resetAt.Sub(now), ResetAt: w.resetAt}
}

// purge drops expired windows. Callers hold mu.
func (l *RateLimiter) purge(now time.Time) {
	for key, w := range l.entries {
		if !now.Before(w.resetAt) {
			delete(l.entries, key)
		}
	}
}

// Len is the number of tracked keys.
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Clear forgets every window.
func (l *RateLimiter) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make(map[string]*window)
}
