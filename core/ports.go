package core

import (
	"errors"
	"time"
)

// Ports define interfaces for external dependencies

// ============================================
// STORAGE PORT
// ============================================

// Storage is the durable key-value port every other layer sits on.
// Nothing above this layer touches raw persistence directly.
//
// Absence is a valid value, not a fault: Get returns ok=false with a
// nil error for a missing key. A non-nil error from any method means
// the underlying medium failed (I/O, quota, connection) and surfaces
// as ErrStorageFailure at the engine boundary.
type Storage interface {
	Get(key string) (value []byte, ok bool, err error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// ============================================
// SESSION CACHE PORT
// ============================================

// Cache fronts session lookups by token hash. Purely an optimization;
// every hit is still re-checked for expiry by the caller.
type Cache interface {
	Get(tokenHash string) (*Session, error)
	Set(tokenHash string, session *Session) error
	Delete(tokenHash string) error
	Clear() error
}

// CacheConfig configures cache behavior.
type CacheConfig struct {
	TTL     time.Duration
	MaxSize int
}

// CacheStats tracks cache performance counters.
type CacheStats struct {
	Hits      int64         `json:"hits"`
	Misses    int64         `json:"misses"`
	Sets      int64         `json:"sets"`
	Deletes   int64         `json:"deletes"`
	Evictions int64         `json:"evictions"`
	Size      int           `json:"size"`
	TTL       time.Duration `json:"ttl"`
}

// ErrCacheNotFound is returned by Cache.Get on a miss.
var ErrCacheNotFound = errors.New("session not found in cache")

// CacheWithStats extends Cache with counter access.
type CacheWithStats interface {
	Cache
	Stats() CacheStats
}
