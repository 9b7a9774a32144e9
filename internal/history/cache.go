package history

import (
	"sync"
	"time"

	"github.com/fieldworks/crewchat/internal/constants"
)

// TTLCache is a process-local cache for history pages with two TTL classes:
// recent-window entries expire on a short TTL, everything else on a longer
// one. Expired entries are treated as absent and overwritten in place
// rather than purged eagerly; growth is bounded by the number of distinct
// conversations visited in a session.
//
// The cache is owned by the gateway that populates it; tests construct
// their own instance.
type TTLCache struct {
	mu        sync.Mutex
	entries   map[string]cacheEntry
	recentTTL time.Duration
	fullTTL   time.Duration
	now       func() time.Time
}

type cacheEntry struct {
	page  Page
	stamp time.Time
}

// NewTTLCache creates a cache with the standard TTL classes.
func NewTTLCache() *TTLCache {
	return NewTTLCacheWithTTLs(constants.RecentCacheTTL, constants.HistoryCacheTTL)
}

// NewTTLCacheWithTTLs creates a cache with explicit TTL classes.
func NewTTLCacheWithTTLs(recentTTL, fullTTL time.Duration) *TTLCache {
	return &TTLCache{
		entries:   make(map[string]cacheEntry),
		recentTTL: recentTTL,
		fullTTL:   fullTTL,
		now:       time.Now,
	}
}

// SetClock overrides the cache's time source for tests.
func (c *TTLCache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *TTLCache) ttlFor(key string) time.Duration {
	if isRecentKey(key) {
		return c.recentTTL
	}
	return c.fullTTL
}

// Get returns the cached page for key, or ok=false if absent or expired.
func (c *TTLCache) Get(key string) (Page, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Page{}, false
	}
	if c.now().Sub(e.stamp) >= c.ttlFor(key) {
		return Page{}, false
	}
	return e.page, true
}

// Put stores page under key, stamping the current time. Last write wins.
func (c *TTLCache) Put(key string, page Page) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{page: page, stamp: c.now()}
}

// Len returns the number of entries, expired or not.
func (c *TTLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
