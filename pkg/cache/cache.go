// Package cache provides byte-level cache backends for the fetch client.
//
// The register resolver keeps its own in-process caches (resources and full
// records, scoped to one register instance). The backends here sit one layer
// below: they store raw fetched documents keyed by URL so repeated runs of
// the CLI, or several server replicas, avoid refetching remote registers.
//
// Backends:
//   - [NullCache]: never stores anything (caching disabled)
//   - [FileCache]: one JSON envelope per key under a directory
//   - [MemoryCache]: in-process TTL cache
//   - [RedisCache]: shared cache in Redis
//   - [MongoCache]: persistent cache in a MongoDB collection
//
// All backends report a miss as (nil, false, nil). Corrupted or expired
// entries are misses, never errors.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte payloads under string keys.
type Cache interface {
	// Get returns the payload stored under key. ok is false on a miss.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Set stores data under key. A ttl <= 0 means the entry does not expire.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases connections or handles held by the backend.
	Close() error
}
