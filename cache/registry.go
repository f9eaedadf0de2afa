// Package cache provides the process-wide directory of named, uniquely typed,
// eviction-managed caches that feature modules share.
//
// The registry is constructed once at the composition root and injected into
// every consumer; there are no package-level singletons. Feature modules call
// GetOrCreate once per named cache (at startup or lazily) and hold the
// returned handle for their lifetime.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"sync"
)

// Registry is a name-keyed directory of type-erased typed caches. For a given
// name, every caller across the process must request the same (K, V) pair: a
// mismatched request is a build-time contract violation and panics rather
// than ever returning wrong data.
type Registry struct {
	mu     sync.RWMutex
	caches map[string]regEntry
	ctx    context.Context
	logger *slog.Logger
}

type regEntry struct {
	handle   any // *TypedCache[K, V]
	typeName string
	close    func() error
}

// NewRegistry creates an empty registry. Caches created through it stop their
// background maintenance when ctx is cancelled.
func NewRegistry(ctx context.Context, logger *slog.Logger) *Registry {
	logger.Info("cache registry initialized")
	return &Registry{
		caches: make(map[string]regEntry),
		ctx:    ctx,
		logger: logger,
	}
}

// Create registers a new cache under name, or returns the existing handle if
// one already exists with the same (K, V). A name collision with different
// types panics: it indicates two modules disagree about a shared cache, which
// no runtime handling can make safe.
func Create[K comparable, V any](r *Registry, name string, cfg Config) *TypedCache[K, V] {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.caches[name]; ok {
		return assertHandle[K, V](name, existing)
	}

	r.logger.Debug("creating cache", "name", name)

	c := newTypedCache[K, V](r.ctx, name, cfg)
	r.caches[name] = regEntry{
		handle:   c,
		typeName: reflect.TypeOf(c).String(),
		close:    c.close,
	}
	return c
}

// Get returns the cache registered under name, or false if absent. A present
// cache with mismatching (K, V) panics, same as Create.
func Get[K comparable, V any](r *Registry, name string) (*TypedCache[K, V], bool) {
	r.mu.RLock()
	entry, ok := r.caches[name]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return assertHandle[K, V](name, entry), true
}

// GetOrCreate is the standard entry point for feature modules: the common
// case takes only the read lock.
func GetOrCreate[K comparable, V any](r *Registry, name string, cfg Config) *TypedCache[K, V] {
	if c, ok := Get[K, V](r, name); ok {
		return c
	}
	return Create[K, V](r, name, cfg)
}

func assertHandle[K comparable, V any](name string, entry regEntry) *TypedCache[K, V] {
	c, ok := entry.handle.(*TypedCache[K, V])
	if !ok {
		panic(fmt.Sprintf(
			"cache %q already exists with different types: requested %s, registered %s",
			name,
			reflect.TypeOf((*TypedCache[K, V])(nil)).String(),
			entry.typeName,
		))
	}
	return c
}

// Contains reports whether a cache is registered under name.
func (r *Registry) Contains(name string) bool {
	r.mu.RLock()
	_, ok := r.caches[name]
	r.mu.RUnlock()
	return ok
}

// Remove unregisters a cache and stops its background maintenance. Handles
// already held by callers keep working, expiring only lazily from then on.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	entry, ok := r.caches[name]
	if ok {
		delete(r.caches, name)
	}
	r.mu.Unlock()
	if ok {
		_ = entry.close()
		r.logger.Debug("removed cache", "name", name)
	}
	return ok
}

// Len returns the number of registered caches.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.caches)
}

// Names returns the registered cache names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.caches))
	for name := range r.caches {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Walk calls fn with every registered cache's name and approximate entry
// count. Diagnostics only, not a hot-path API.
func (r *Registry) Walk(fn func(name string, entries uint64)) {
	r.mu.RLock()
	snapshot := make(map[string]regEntry, len(r.caches))
	for name, entry := range r.caches {
		snapshot[name] = entry
	}
	r.mu.RUnlock()

	for name, entry := range snapshot {
		if counter, ok := entry.handle.(interface{ EntryCount() uint64 }); ok {
			fn(name, counter.EntryCount())
		}
	}
}
