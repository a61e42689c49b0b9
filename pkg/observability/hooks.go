// Package observability provides hooks for metrics, tracing, and logging.
//
// Library packages emit events through the hooks registered here without
// depending on a concrete metrics backend. The defaults are no-ops; the HTTP
// server registers prometheus-backed implementations at startup.
//
// Hook categories:
//   - [RegisterHooks]: register loads (one event per fetched register document)
//   - [UpliftHooks]: uplift runs and the individual transformation steps
//   - [CacheHooks]: resource cache and fetch cache hits, misses and writes
//   - [HTTPHooks]: outgoing requests made by the fetch client
//
// # Usage
//
//	func main() {
//	    observability.SetUpliftHooks(&myUpliftHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Uplift().OnStep(ctx, id, "pre", "jq", time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Register Hooks
// =============================================================================

// RegisterHooks receives events from the register resolver.
type RegisterHooks interface {
	// OnLoad records one fetched and decoded register document.
	OnLoad(ctx context.Context, url string, items int, duration time.Duration, err error)

	// OnFullResolve records materialization of a full record (cache misses only).
	OnFullResolve(ctx context.Context, identifier string, duration time.Duration, err error)
}

// =============================================================================
// Uplift Hooks
// =============================================================================

// UpliftHooks receives events from the semantic uplift pipeline.
type UpliftHooks interface {
	// OnStep records one applied transformation step.
	OnStep(ctx context.Context, identifier, stage, kind string, duration time.Duration, err error)

	// OnUplift records a complete uplift run.
	OnUplift(ctx context.Context, identifier string, triples int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, host string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, host string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopRegisterHooks is a no-op implementation of RegisterHooks.
type NoopRegisterHooks struct{}

func (NoopRegisterHooks) OnLoad(context.Context, string, int, time.Duration, error)     {}
func (NoopRegisterHooks) OnFullResolve(context.Context, string, time.Duration, error) {}

// NoopUpliftHooks is a no-op implementation of UpliftHooks.
type NoopUpliftHooks struct{}

func (NoopUpliftHooks) OnStep(context.Context, string, string, string, time.Duration, error) {}
func (NoopUpliftHooks) OnUplift(context.Context, string, int, time.Duration, error)          {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnResponse(context.Context, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	registerHooks RegisterHooks = NoopRegisterHooks{}
	upliftHooks   UpliftHooks   = NoopUpliftHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	httpHooks     HTTPHooks     = NoopHTTPHooks{}
	hooksMu       sync.RWMutex
)

// SetRegisterHooks registers custom register hooks.
func SetRegisterHooks(h RegisterHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		registerHooks = h
	}
}

// SetUpliftHooks registers custom uplift hooks.
func SetUpliftHooks(h UpliftHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		upliftHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Register returns the registered register hooks.
func Register() RegisterHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return registerHooks
}

// Uplift returns the registered uplift hooks.
func Uplift() UpliftHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return upliftHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	registerHooks = NoopRegisterHooks{}
	upliftHooks = NoopUpliftHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
