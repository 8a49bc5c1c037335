package cache

import (
	"context"
	"sync"
	"time"
)

// Cache is a get-or-compute-with-expiry capability injected into callers, so
// lookups against slow collaborators can be memoized without process-wide
// mutable state.
type Cache interface {
	// GetOrCompute returns the cached value for key, or runs compute, stores
	// the result for ttl, and returns it. Compute errors are not cached.
	GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute func(ctx context.Context) (string, error)) (string, error)

	// Invalidate drops the cached value for key, if any.
	Invalidate(ctx context.Context, key string) error
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryCache is an in-process Cache with an injectable clock, so tests
// control time and eviction deterministically.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates a MemoryCache using the wall clock.
func NewMemoryCache() *MemoryCache {
	return NewMemoryCacheWithClock(time.Now)
}

// NewMemoryCacheWithClock creates a MemoryCache driven by the given clock.
func NewMemoryCacheWithClock(now func() time.Time) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     now,
	}
}

// GetOrCompute implements Cache.
func (c *MemoryCache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute func(ctx context.Context) (string, error)) (string, error) {
	c.mu.Lock()
	entry, ok := c.entries[key]
	if ok && c.now().Before(entry.expiresAt) {
		c.mu.Unlock()
		return entry.value, nil
	}
	if ok {
		delete(c.entries, key)
	}
	c.mu.Unlock()

	value, err := compute(ctx)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.entries[key] = memoryEntry{value: value, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return value, nil
}

// Invalidate implements Cache.
func (c *MemoryCache) Invalidate(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}
