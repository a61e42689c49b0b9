package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// memoryCleanupInterval is how often expired entries are purged.
const memoryCleanupInterval = 10 * time.Minute

// MemoryCache is an in-process TTL cache. Entries live as long as the
// process; it suits the long-running HTTP server when no shared backend is
// configured.
type MemoryCache struct {
	c *gocache.Cache
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{c: gocache.New(gocache.NoExpiration, memoryCleanupInterval)}
}

// Get returns a copy of the stored payload.
func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	data, ok := v.([]byte)
	if !ok {
		m.c.Delete(key)
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

// Set stores a copy of data.
func (m *MemoryCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	exp := gocache.NoExpiration
	if ttl > 0 {
		exp = ttl
	}
	m.c.Set(key, append([]byte(nil), data...), exp)
	return nil
}

// Delete removes key.
func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	m.c.Delete(key)
	return nil
}

// Len returns the number of stored entries, including expired ones not yet purged.
func (m *MemoryCache) Len() int { return m.c.ItemCount() }

// Close flushes all entries.
func (m *MemoryCache) Close() error {
	m.c.Flush()
	return nil
}

var _ Cache = (*MemoryCache)(nil)
