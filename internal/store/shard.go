package store

import (
	"container/list"
	"sync"
)

// shard is an independent segment of the sharded store. Its LRU list orders
// keys front-to-back from most to least recently used; the flight table keeps
// per-key in-progress loads so concurrent misses share one producer.
type shard[K comparable, V any] struct {
	sync.RWMutex
	items   map[K]*entry[V]
	lru     *list.List // of K
	lidx    map[K]*list.Element
	flights map[K]*flight[V]
}

func newShard[K comparable, V any]() *shard[K, V] {
	return &shard[K, V]{
		items:   make(map[K]*entry[V]),
		lru:     list.New(),
		lidx:    make(map[K]*list.Element),
		flights: make(map[K]*flight[V]),
	}
}

// get returns a live entry. Expired entries are removed on sight so a miss
// after TTL/TTI needs no janitor pass to be observable. dropped reports that
// an expired entry was deleted, so the caller can fix global counters.
func (sh *shard[K, V]) get(key K, ttl, tti, now int64) (e *entry[V], hit, dropped bool) {
	sh.RLock()
	e, hit = sh.items[key]
	if hit && !e.expired(ttl, tti, now) {
		e.touch(now)
		sh.RUnlock()
		sh.touchLRU(key)
		return e, true, false
	}
	sh.RUnlock()

	if hit {
		sh.Lock()
		// re-check: another writer may have replaced the entry meanwhile
		if cur, ok := sh.items[key]; ok && cur == e {
			dropped = sh.removeLocked(key)
		}
		sh.Unlock()
	}
	return nil, false, dropped
}

func (sh *shard[K, V]) peek(key K, ttl, tti, now int64) bool {
	sh.RLock()
	e, hit := sh.items[key]
	alive := hit && !e.expired(ttl, tti, now)
	sh.RUnlock()
	return alive
}

// set inserts or replaces a key and returns the length delta (0 or 1).
func (sh *shard[K, V]) set(key K, e *entry[V]) (lenDelta int64) {
	sh.Lock()
	if _, hit := sh.items[key]; hit {
		sh.items[key] = e
		sh.lruMoveFrontLocked(key)
	} else {
		sh.items[key] = e
		sh.lidx[key] = sh.lru.PushFront(key)
		lenDelta = 1
	}
	sh.Unlock()
	return
}

func (sh *shard[K, V]) remove(key K) bool {
	sh.Lock()
	hit := sh.removeLocked(key)
	sh.Unlock()
	return hit
}

func (sh *shard[K, V]) removeLocked(key K) bool {
	if _, hit := sh.items[key]; !hit {
		return false
	}
	delete(sh.items, key)
	if el := sh.lidx[key]; el != nil {
		sh.lru.Remove(el)
		delete(sh.lidx, key)
	}
	return true
}

// popTail evicts the least recently used key. Returns false on an empty shard.
func (sh *shard[K, V]) popTail() (K, bool) {
	var zero K
	sh.Lock()
	defer sh.Unlock()
	el := sh.lru.Back()
	if el == nil {
		return zero, false
	}
	key := el.Value.(K)
	sh.lru.Remove(el)
	delete(sh.lidx, key)
	if _, hit := sh.items[key]; !hit {
		return zero, false
	}
	delete(sh.items, key)
	return key, true
}

// clear wipes the shard and returns how many items it held.
func (sh *shard[K, V]) clear() int64 {
	sh.Lock()
	n := int64(len(sh.items))
	sh.items = make(map[K]*entry[V])
	sh.lru.Init()
	clear(sh.lidx)
	sh.Unlock()
	return n
}

// sweep removes every expired entry and returns the count removed.
func (sh *shard[K, V]) sweep(ttl, tti, now int64) int64 {
	sh.Lock()
	var removed int64
	for key, e := range sh.items {
		if e.expired(ttl, tti, now) {
			sh.removeLocked(key)
			removed++
		}
	}
	sh.Unlock()
	return removed
}

// walk iterates live entries under the shared lock; fn must be lightweight.
func (sh *shard[K, V]) walk(ttl, tti, now int64, fn func(K, V) bool) bool {
	sh.RLock()
	defer sh.RUnlock()
	for key, e := range sh.items {
		if e.expired(ttl, tti, now) {
			continue
		}
		if !fn(key, e.val) {
			return false
		}
	}
	return true
}

func (sh *shard[K, V]) lruMoveFrontLocked(key K) {
	if el := sh.lidx[key]; el != nil {
		sh.lru.MoveToFront(el)
		return
	}
	sh.lidx[key] = sh.lru.PushFront(key)
}

// touchLRU renews recency opportunistically: a contended lock drops the move
// rather than stalling the read path.
func (sh *shard[K, V]) touchLRU(key K) {
	if sh.TryLock() {
		if el := sh.lidx[key]; el != nil {
			sh.lru.MoveToFront(el)
		}
		sh.Unlock()
	}
}
