// Package cache provides the in-memory session cache used to front
// token lookups.
package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/bodahq/boda/core"
)

// Memory implements core.Cache with a bounded, TTL-expiring map.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*entry
	ttl     time.Duration
	maxSize int

	// counters
	hits      int64
	misses    int64
	sets      int64
	deletes   int64
	evictions int64
}

type entry struct {
	session  *core.Session
	cachedAt time.Time
}

var _ core.CacheWithStats = (*Memory)(nil)

// NewMemory creates an in-memory session cache.
func NewMemory(c core.CacheConfig) *Memory {
	if c.TTL == 0 {
		c.TTL = 5 * time.Minute
	}
	if c.MaxSize == 0 {
		c.MaxSize = 500
	}

	return &Memory{
		entries: make(map[string]*entry),
		ttl:     c.TTL,
		maxSize: c.MaxSize,
	}
}

// Get retrieves a cached session. A TTL-stale entry counts as a miss
// and is dropped.
func (c *Memory) Get(tokenHash string) (*core.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, exists := c.entries[tokenHash]
	if !exists {
		atomic.AddInt64(&c.misses, 1)
		return nil, core.ErrCacheNotFound
	}

	if time.Since(e.cachedAt) > c.ttl {
		delete(c.entries, tokenHash)
		atomic.AddInt64(&c.misses, 1)
		return nil, core.ErrCacheNotFound
	}

	atomic.AddInt64(&c.hits, 1)
	return e.session, nil
}

// Set stores a session. When full, the oldest entry is evicted.
func (c *Memory) Set(tokenHash string, session *core.Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[tokenHash]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldestLocked()
	}

	c.entries[tokenHash] = &entry{session: session, cachedAt: time.Now()}
	atomic.AddInt64(&c.sets, 1)
	return nil
}

// Delete removes a cached session; removing a missing key is a no-op.
func (c *Memory) Delete(tokenHash string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[tokenHash]; exists {
		delete(c.entries, tokenHash)
		atomic.AddInt64(&c.deletes, 1)
	}
	return nil
}

// Clear drops every entry.
func (c *Memory) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry)
	return nil
}

// Stats returns a snapshot of the cache counters.
func (c *Memory) Stats() core.CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return core.CacheStats{
		Hits:      atomic.LoadInt64(&c.hits),
		Misses:    atomic.LoadInt64(&c.misses),
		Sets:      atomic.LoadInt64(&c.sets),
		Deletes:   atomic.LoadInt64(&c.deletes),
		Evictions: atomic.LoadInt64(&c.evictions),
		Size:      len(c.entries),
		TTL:       c.ttl,
	}
}

// evictOldestLocked removes the stalest entry. Caller holds the lock.
func (c *Memory) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time

	for k, e := range c.entries {
		if oldestKey == "" || e.cachedAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.cachedAt
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
		atomic.AddInt64(&c.evictions, 1)
	}
}
