// Package store implements the sharded, capacity- and time-bounded map every
// typed cache is built on. Hot paths (Get/Set/Delete) keep critical sections
// short and track global counters with atomics; background maintenance runs
// in an optional janitor.
package store

import (
	"context"
	"hash/maphash"
	"sync/atomic"
	"time"

	"github.com/groupwarden/go-warden/internal/shared/cachedtime"
)

const (
	numShards = 256
	shardMask = numShards - 1 // faster than division
)

// Config bounds a single store. Zero values disable the respective bound.
type Config struct {
	MaxCapacity uint64        // maximum number of entries
	TTL         time.Duration // time to live since write
	TTI         time.Duration // time to idle since last access
}

// Store is a sharded concurrent map with LRU capacity eviction and lazy
// TTL/TTI expiry. All methods are safe for concurrent use.
type Store[K comparable, V any] struct {
	cfg  Config
	ttl  int64 // nanoseconds, 0 = disabled
	tti  int64
	seed maphash.Seed

	len  atomic.Int64
	iter atomic.Uint64 // round-robin cursor for eviction

	shards [numShards]*shard[K, V]

	cancel context.CancelFunc
}

// New creates a store. When cfg enables TTL/TTI a janitor goroutine sweeps
// expired entries in the background until the store is closed.
func New[K comparable, V any](ctx context.Context, cfg Config) *Store[K, V] {
	ctx, cancel := context.WithCancel(ctx)
	s := &Store[K, V]{
		cfg:    cfg,
		ttl:    cfg.TTL.Nanoseconds(),
		tti:    cfg.TTI.Nanoseconds(),
		seed:   maphash.MakeSeed(),
		cancel: cancel,
	}
	for i := range s.shards {
		s.shards[i] = newShard[K, V]()
	}
	if s.ttl > 0 || s.tti > 0 {
		runJanitor(ctx, s)
	}
	return s
}

// Close stops background maintenance. The store stays usable afterwards;
// expiry then happens only lazily on access.
func (s *Store[K, V]) Close() error {
	s.cancel()
	return nil
}

// Get returns the live value for key. Misses are normal outcomes: the entry
// may never have existed or may have been evicted by capacity, TTL or TTI.
func (s *Store[K, V]) Get(key K) (V, bool) {
	e, hit, dropped := s.shard(key).get(key, s.ttl, s.tti, cachedtime.UnixNano())
	if dropped {
		s.len.Add(-1)
	}
	if !hit {
		var zero V
		return zero, false
	}
	return e.val, true
}

// Set inserts or replaces a value, trimming least recently used entries when
// the capacity bound is crossed.
func (s *Store[K, V]) Set(key K, val V) {
	now := cachedtime.UnixNano()
	if delta := s.shard(key).set(key, newEntry(val, now)); delta != 0 {
		s.len.Add(delta)
	}
	s.trimToCapacity()
}

// Delete removes a key. Returns true when the key was present.
func (s *Store[K, V]) Delete(key K) bool {
	if s.shard(key).remove(key) {
		s.len.Add(-1)
		return true
	}
	return false
}

// Contains reports whether key holds a live entry without renewing its TTI.
func (s *Store[K, V]) Contains(key K) bool {
	return s.shard(key).peek(key, s.ttl, s.tti, cachedtime.UnixNano())
}

// Clear removes all entries.
func (s *Store[K, V]) Clear() {
	for _, sh := range s.shards {
		if n := sh.clear(); n != 0 {
			s.len.Add(-n)
		}
	}
}

// Len is the approximate number of live entries. Lazy expiry means entries
// past their deadline may still be counted until touched or swept.
func (s *Store[K, V]) Len() int64 {
	return s.len.Load()
}

// Range iterates live entries across all shards. fn must be lightweight and
// must not call back into the store.
func (s *Store[K, V]) Range(fn func(K, V) bool) {
	now := cachedtime.UnixNano()
	for _, sh := range s.shards {
		if !sh.walk(s.ttl, s.tti, now, fn) {
			return
		}
	}
}

func (s *Store[K, V]) shard(key K) *shard[K, V] {
	return s.shards[maphash.Comparable(s.seed, key)&shardMask]
}

func (s *Store[K, V]) nextShard() *shard[K, V] {
	return s.shards[s.iter.Add(1)&shardMask]
}

// trimToCapacity pops LRU tails round-robin across shards until the store is
// back within its bound. Bounded spins so one writer never stalls for long.
func (s *Store[K, V]) trimToCapacity() {
	if s.cfg.MaxCapacity == 0 {
		return
	}
	limit := int64(s.cfg.MaxCapacity)
	for spins := numShards * 2; spins > 0 && s.len.Load() > limit; spins-- {
		sh := s.nextShard()
		if _, ok := sh.popTail(); ok {
			s.len.Add(-1)
		}
	}
}

// sweepExpired removes expired entries from up to n shards starting at the
// round-robin cursor. Called by the janitor.
func (s *Store[K, V]) sweepExpired(n int) {
	now := cachedtime.UnixNano()
	for i := 0; i < n; i++ {
		if removed := s.nextShard().sweep(s.ttl, s.tti, now); removed != 0 {
			s.len.Add(-removed)
		}
	}
}
