package checkout

import (
	"sync"
	"time"
)

type cacheEntry struct {
	session   Session
	expiresAt time.Time
}

// SessionCache keeps recently built sessions for a fixed TTL.
// A TTL of zero disables caching. Expired entries are dropped lazily.
type SessionCache struct {
	ttl time.Duration
	now Clock

	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewSessionCache creates a cache. A nil clock uses time.Now.
func NewSessionCache(ttl time.Duration, clock Clock) *SessionCache {
	if clock == nil {
		clock = time.Now
	}
	return &SessionCache{ttl: ttl, now: clock, entries: make(map[string]cacheEntry)}
}

// Enabled reports whether the cache stores anything.
func (c *SessionCache) Enabled() bool {
	return c.ttl > 0
}

// Get returns a copy of the cached session for key.
func (c *SessionCache) Get(key string) (Session, bool) {
	if !c.Enabled() {
		return Session{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expiresAt) {
		return Session{}, false
	}
	return e.session.Clone(), true
}

// Set stores a copy of s under key. Concurrent writers to the same key: last one wins.
func (c *SessionCache) Set(key string, s Session) {
	if !c.Enabled() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{session: s.Clone(), expiresAt: c.now().Add(c.ttl)}
}

// Clear drops every entry.
func (c *SessionCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}
