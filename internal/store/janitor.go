package store

import (
	"context"

	"github.com/groupwarden/go-warden/internal/shared/rate"
)

// Janitor pacing. Each tick sweeps a slice of shards, so a full pass over the
// store takes numShards/sweepShardsPerTick ticks — a few seconds at most,
// fast enough for TTL convergence without hammering shard locks.
const (
	sweepsPerSec       = 64
	sweepShardsPerTick = 8
)

// runJanitor starts the background sweeper for a store. Lazy expiry on Get
// keeps reads correct on its own; the janitor exists so idle entries get
// reclaimed even when nobody asks for them again.
func runJanitor[K comparable, V any](ctx context.Context, s *Store[K, V]) {
	jitter := rate.NewJitter(ctx, sweepsPerSec)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-jitter.Chan():
				if s.Len() == 0 {
					continue
				}
				s.sweepExpired(sweepShardsPerTick)
				s.trimToCapacity()
			}
		}
	}()
}
