package store

import "github.com/groupwarden/go-warden/internal/shared/cachedtime"

// flight is one in-progress load. Waiters block on done and then read val/err;
// both are written exactly once before done is closed.
type flight[V any] struct {
	done chan struct{}
	val  V
	err  error
}

// Do returns the cached value for key, computing it with produce on a miss.
// Concurrent callers for the same missing key share a single produce call.
func (s *Store[K, V]) Do(key K, produce func() V) V {
	v, _ := s.DoErr(key, func() (V, error) { return produce(), nil })
	return v
}

// DoErr is the fallible variant of Do. A producer error is delivered to every
// waiter of that flight and nothing is cached, so the next call retries
// cleanly. The at-most-one-producer guarantee holds per exact key, not per
// hash, so distinct keys never share a flight.
func (s *Store[K, V]) DoErr(key K, produce func() (V, error)) (V, error) {
	sh := s.shard(key)
	now := cachedtime.UnixNano()

	sh.Lock()
	if e, hit := sh.items[key]; hit && !e.expired(s.ttl, s.tti, now) {
		e.touch(now)
		sh.Unlock()
		return e.val, nil
	}
	if f, inFlight := sh.flights[key]; inFlight {
		sh.Unlock()
		<-f.done
		return f.val, f.err
	}
	f := &flight[V]{done: make(chan struct{})}
	sh.flights[key] = f
	sh.Unlock()

	f.val, f.err = produce()

	sh.Lock()
	delete(sh.flights, key)
	sh.Unlock()

	if f.err == nil {
		s.Set(key, f.val)
	}
	close(f.done)
	return f.val, f.err
}
