package cache

import (
	"context"

	"github.com/groupwarden/go-warden/internal/store"
)

// TypedCache is a shared handle over one eviction-managed store. Copying the
// handle is O(1) and never duplicates entries: every copy observes the same
// data. Entries may be evicted at any time by capacity pressure, TTL or TTI,
// so a Get miss is always a valid outcome, never an error.
type TypedCache[K comparable, V any] struct {
	name  string
	store *store.Store[K, V]
}

func newTypedCache[K comparable, V any](ctx context.Context, name string, cfg Config) *TypedCache[K, V] {
	return &TypedCache[K, V]{
		name: name,
		store: store.New[K, V](ctx, store.Config{
			MaxCapacity: cfg.MaxCapacity,
			TTL:         cfg.TTL,
			TTI:         cfg.TTI,
		}),
	}
}

// Name returns the registry name of this cache.
func (c *TypedCache[K, V]) Name() string { return c.name }

// Insert stores a key-value pair. It may trigger eviction of other entries as
// a background effect; that is never observable as an error.
func (c *TypedCache[K, V]) Insert(key K, val V) { c.store.Set(key, val) }

// Get returns the value for key if present and not expired.
func (c *TypedCache[K, V]) Get(key K) (V, bool) { return c.store.Get(key) }

// Contains reports whether key is present without renewing its idle timer.
func (c *TypedCache[K, V]) Contains(key K) bool { return c.store.Contains(key) }

// Invalidate removes a key.
func (c *TypedCache[K, V]) Invalidate(key K) { c.store.Delete(key) }

// InvalidateAll removes every entry.
func (c *TypedCache[K, V]) InvalidateAll() { c.store.Clear() }

// EntryCount is the approximate number of live entries.
func (c *TypedCache[K, V]) EntryCount() uint64 {
	if n := c.store.Len(); n > 0 {
		return uint64(n)
	}
	return 0
}

// GetOrInsertWith returns the cached value for key, computing and caching it
// with produce on a miss. Concurrent callers racing on the same missing key
// run produce at most once and all receive the same value.
func (c *TypedCache[K, V]) GetOrInsertWith(key K, produce func() V) V {
	return c.store.Do(key, produce)
}

// GetOrTryInsertWith is the fallible variant of GetOrInsertWith. A producer
// error is propagated to every concurrent waiter for that key and nothing is
// cached, so the next call is a clean retry.
func (c *TypedCache[K, V]) GetOrTryInsertWith(key K, produce func() (V, error)) (V, error) {
	return c.store.DoErr(key, produce)
}

func (c *TypedCache[K, V]) close() error { return c.store.Close() }
