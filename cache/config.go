package cache

import "time"

// Config bounds one named cache. Immutable once handed to Create; different
// named caches may use different configs. Zero TTL/TTI disables the bound.
type Config struct {
	// MaxCapacity is the maximum number of entries before LRU eviction.
	MaxCapacity uint64 `yaml:"max_capacity"`

	// TTL evicts entries this long after they were written.
	TTL time.Duration `yaml:"ttl"`

	// TTI evicts entries not accessed within this duration.
	TTI time.Duration `yaml:"tti"`
}

// DefaultConfig is the general-purpose preset: 10k entries, 5 minute TTL.
func DefaultConfig() Config {
	return Config{MaxCapacity: 10_000, TTL: 5 * time.Minute}
}

// HotData suits per-burst content: most keys are read once or rarely, so a
// short TTL keeps the working set small.
func HotData() Config {
	return Config{MaxCapacity: 50_000, TTL: time.Minute, TTI: 30 * time.Second}
}

// ColdData suits rarely changing reference data.
func ColdData() Config {
	return Config{MaxCapacity: 5_000, TTL: time.Hour}
}

// SessionData suits session-like records with an idle bound.
func SessionData() Config {
	return Config{MaxCapacity: 20_000, TTL: 30 * time.Minute, TTI: 5 * time.Minute}
}

// MessageContext suits per-message hot-path lookups.
func MessageContext() Config {
	return Config{MaxCapacity: 10_000, TTL: 10 * time.Minute}
}

// LazyLoad suits infrequently accessed feature data.
func LazyLoad() Config {
	return Config{MaxCapacity: 2_000, TTL: 5 * time.Minute}
}

// HotPromoted suits frequently hit records promoted out of a short-TTL tier:
// promoted keys are bursty by construction, so they are worth holding longer
// with an idle timeout instead of holding everything that long.
func HotPromoted() Config {
	return Config{MaxCapacity: 5_000, TTL: 10 * time.Minute, TTI: time.Minute}
}
