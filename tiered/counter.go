package tiered

import (
	"encoding/binary"
	"sync"

	"github.com/zeebo/xxh3"
)

const (
	counterShards = 64
	counterMask   = counterShards - 1
)

// hitCounter tracks exact per-key hit counts for promotion decisions. Counts
// survive TTL eviction of the content tier on purpose: a key that keeps being
// asked for across TTL windows is still hot. They are cleared only on
// deletion or explicit invalidation.
type hitCounter struct {
	shards [counterShards]counterShard
}

type counterShard struct {
	mu   sync.Mutex
	hits map[Key]uint64
}

func newHitCounter() *hitCounter {
	c := &hitCounter{}
	for i := range c.shards {
		c.shards[i].hits = make(map[Key]uint64)
	}
	return c
}

var hasherPool = sync.Pool{New: func() any { return xxh3.New() }}

// shard routes a composite key to its counter shard. Collisions only affect
// lock distribution; counts themselves are keyed by the full composite key.
func (c *hitCounter) shard(k Key) *counterShard {
	hasher := hasherPool.Get().(*xxh3.Hasher)
	hasher.Reset()

	var chat [8]byte
	binary.LittleEndian.PutUint64(chat[:], uint64(k.ChatID))
	_, _ = hasher.Write(chat[:])
	_, _ = hasher.WriteString(k.Name)
	sum := hasher.Sum64()

	hasherPool.Put(hasher)
	return &c.shards[sum&counterMask]
}

// bump increments the key's hit count and returns the new value.
func (c *hitCounter) bump(k Key) uint64 {
	sh := c.shard(k)
	sh.mu.Lock()
	sh.hits[k]++
	n := sh.hits[k]
	sh.mu.Unlock()
	return n
}

// reset starts the key's count over at one (a fresh storage-backed load).
func (c *hitCounter) reset(k Key) {
	sh := c.shard(k)
	sh.mu.Lock()
	sh.hits[k] = 1
	sh.mu.Unlock()
}

// clear forgets the key entirely.
func (c *hitCounter) clear(k Key) {
	sh := c.shard(k)
	sh.mu.Lock()
	delete(sh.hits, k)
	sh.mu.Unlock()
}
