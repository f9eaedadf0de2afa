package store

import (
	"sync/atomic"
)

// entry is a stored value plus the timestamps expiry decisions need.
// touchedAt is atomic so reads can renew it under the shard's shared lock.
type entry[V any] struct {
	val       V
	writtenAt int64        // unix nano at insert/update
	touchedAt atomic.Int64 // unix nano at last access
}

func newEntry[V any](val V, now int64) *entry[V] {
	e := &entry[V]{val: val, writtenAt: now}
	e.touchedAt.Store(now)
	return e
}

func (e *entry[V]) touch(now int64) {
	e.touchedAt.Store(now)
}

// expired reports whether the entry is past its TTL (since write) or its
// TTI (since last access). Zero disables the respective bound.
func (e *entry[V]) expired(ttl, tti, now int64) bool {
	if ttl > 0 && now-e.writtenAt > ttl {
		return true
	}
	if tti > 0 && now-e.touchedAt.Load() > tti {
		return true
	}
	return false
}
