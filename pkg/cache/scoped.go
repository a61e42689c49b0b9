package cache

import (
	"context"
	"time"
)

// Scoped wraps a Cache and prefixes every key, so several components (or
// tenants of the HTTP server) can share one backend without collisions.
//
//	shared, _ := cache.Open(ctx, cfg)
//	fetchCache := cache.NewScoped(shared, "bblocks:")
type Scoped struct {
	inner  Cache
	prefix string
}

// NewScoped creates a cache view whose keys are prefixed with prefix.
// A nil inner cache is replaced by a [NullCache].
func NewScoped(inner Cache, prefix string) *Scoped {
	if inner == nil {
		inner = NewNullCache()
	}
	return &Scoped{inner: inner, prefix: prefix}
}

// Get retrieves prefix+key from the inner cache.
func (s *Scoped) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.inner.Get(ctx, s.prefix+key)
}

// Set stores prefix+key in the inner cache.
func (s *Scoped) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return s.inner.Set(ctx, s.prefix+key, data, ttl)
}

// Delete removes prefix+key from the inner cache.
func (s *Scoped) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, s.prefix+key)
}

// Close closes the inner cache.
func (s *Scoped) Close() error {
	return s.inner.Close()
}

var _ Cache = (*Scoped)(nil)
