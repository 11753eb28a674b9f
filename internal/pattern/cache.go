package pattern

import (
	"sync"
	"time"
)

// DefaultFreshness is the default cache freshness window.
const DefaultFreshness = time.Hour

// Cache holds detected patterns per user behind a freshness window.
// Entries are only replaced when a caller recomputes, never invalidated
// asynchronously, so stale reads can occur.
type Cache struct {
	mu        sync.RWMutex
	freshness time.Duration
	entries   map[string]*cacheEntry

	// now is swappable for tests.
	now func() time.Time
}

type cacheEntry struct {
	patterns  []*Pattern
	refreshed time.Time
}

// NewCache creates a cache. freshness <= 0 selects the default window.
func NewCache(freshness time.Duration) *Cache {
	if freshness <= 0 {
		freshness = DefaultFreshness
	}
	return &Cache{
		freshness: freshness,
		entries:   make(map[string]*cacheEntry),
		now:       time.Now,
	}
}

// Get returns the cached patterns for the user and whether they are still
// fresh. The slice is shared: callers mutate the patterns in place via
// UpdateFromObservation, which is the intended feedback path.
func (c *Cache) Get(userID string) ([]*Pattern, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[userID]
	if !ok {
		return nil, false
	}
	return e.patterns, c.now().Sub(e.refreshed) < c.freshness
}

// Put replaces the user's cached patterns and restarts the window.
func (c *Cache) Put(userID string, patterns []*Pattern) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[userID] = &cacheEntry{patterns: patterns, refreshed: c.now()}
}

// Forget drops the user's entry.
func (c *Cache) Forget(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, userID)
}
