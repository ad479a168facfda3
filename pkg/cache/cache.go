// Package cache provides the byte caches used for backend responses and
// the explicit history cache.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under a directory (CLI)
//   - [RedisCache]: shared cache for multi-instance servers
//   - [NullCache]: never stores anything (--no-cache, tests)
//
// # Keys
//
// Keys are generated by a [Keyer] so every component agrees on naming.
// [ScopedKeyer] prefixes keys, for example per user:
//
//	k := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "user:"+id+":")
//	key := k.HistoryKey(id, "CS")
//
// # Retry
//
// [RetryWithBackoff] retries operations whose errors were marked with
// [Retryable]. The backend client uses it for idempotent requests.
package cache

import (
	"context"
	"time"
)

// Cache is a byte cache with per-entry TTL.
type Cache interface {
	// Get returns the cached bytes and true on a hit.
	// Expired and unreadable entries are misses, not errors.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// Default TTLs.
const (
	// TTLCatalog covers program and course lists, which change per term.
	TTLCatalog = 6 * time.Hour

	// TTLGraph covers curriculum graphs.
	TTLGraph = time.Hour

	// TTLHistory bounds how long a history snapshot survives without an
	// authenticated reload replacing it.
	TTLHistory = 24 * time.Hour
)
