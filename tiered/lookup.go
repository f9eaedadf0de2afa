// Package tiered implements the hot-promotion lookup pattern used by every
// repository that serves "find by chat + short textual key, usually requested
// repeatedly within a burst": a key-set cache to short-circuit "could anything
// match", a short-TTL content cache, and a smaller long-lived hot cache that
// keys are promoted into after repeated hits.
//
// A key's lifecycle across tiers is cold (absent) -> warm (content cache,
// under threshold) -> hot (hot cache) -> cold again via TTL/idle eviction or
// deletion. There is no path from cold straight to hot.
package tiered

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/groupwarden/go-warden/cache"
)

// PromotionThreshold is the hit count at which a warm key turns hot.
const PromotionThreshold = 3

// Store is the persistent-storage collaborator. Keys returned and accepted
// here are normalized item names; failures propagate to Lookup callers
// unmodified and never mutate any cache tier.
type Store[R any] interface {
	// FindByKey returns the record for (chatID, name), or false if absent.
	FindByKey(ctx context.Context, chatID int64, name string) (R, bool, error)
	// Upsert replaces the record matching its composite key, or inserts it.
	Upsert(ctx context.Context, record R) error
	// DeleteByKey removes the record. True when something was deleted.
	DeleteByKey(ctx context.Context, chatID int64, name string) (bool, error)
	// Keys returns only the item keys for a chat scope.
	Keys(ctx context.Context, chatID int64) ([]string, error)
}

// Names are the registry names of the three tiers.
type Names struct {
	KeySet  string
	Content string
	Hot     string
}

// Config carries the per-tier cache configs.
type Config struct {
	KeySet  cache.Config
	Content cache.Config
	Hot     cache.Config
}

// DefaultConfig mirrors the deployed tuning: the key set is repopulated about
// once an hour, content is cached briefly because most keys are read once or
// rarely, and the hot tier holds promoted keys longer with an idle bound.
func DefaultConfig() Config {
	keySet := cache.ColdData()
	keySet.MaxCapacity = 5_000
	content := cache.HotData()
	content.MaxCapacity = 10_000
	hot := cache.HotPromoted()
	hot.MaxCapacity = 2_000
	return Config{KeySet: keySet, Content: content, Hot: hot}
}

// Lookup is one instance of the tiered pattern bound to a record type and a
// storage collaborator. keyOf derives a record's composite key on writes.
type Lookup[R any] struct {
	store   Store[R]
	keyOf   func(R) Key
	keys    *cache.TypedCache[int64, map[string]struct{}]
	content *cache.TypedCache[Key, R]
	hot     *cache.TypedCache[Key, R]
	hits    *hitCounter
}

// New wires a Lookup against the shared registry. Calling it twice with the
// same names yields handles over the same underlying tiers.
func New[R any](reg *cache.Registry, names Names, cfg Config, store Store[R], keyOf func(R) Key) *Lookup[R] {
	return &Lookup[R]{
		store:   store,
		keyOf:   keyOf,
		keys:    cache.GetOrCreate[int64, map[string]struct{}](reg, names.KeySet, cfg.KeySet),
		content: cache.GetOrCreate[Key, R](reg, names.Content, cfg.Content),
		hot:     cache.GetOrCreate[Key, R](reg, names.Hot, cfg.Hot),
		hits:    newHitCounter(),
	}
}

// GetKeys returns the set of item keys for a chat scope, populating it from
// storage once per TTL window. Concurrent callers racing on a cold chat share
// one storage query.
func (l *Lookup[R]) GetKeys(ctx context.Context, chatID int64) (map[string]struct{}, error) {
	set, err := l.keys.GetOrTryInsertWith(chatID, func() (map[string]struct{}, error) {
		names, err := l.store.Keys(ctx, chatID)
		if err != nil {
			return nil, fmt.Errorf("fetch keys for chat %d: %w", chatID, err)
		}
		set := make(map[string]struct{}, len(names))
		for _, name := range names {
			set[Normalize(name)] = struct{}{}
		}
		return set, nil
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

// GetItem returns the record for (chatID, name). Hot hits return immediately
// with no counter update; warm hits bump the key's counter and promote it at
// the threshold; cold keys fall through to storage. Absence is a normal
// (zero, false, nil) outcome and is never retried by this layer.
func (l *Lookup[R]) GetItem(ctx context.Context, chatID int64, name string) (R, bool, error) {
	k := NewKey(chatID, name)

	if r, ok := l.hot.Get(k); ok {
		return r, true, nil
	}

	if r, ok := l.content.Get(k); ok {
		if n := l.hits.bump(k); n >= PromotionThreshold {
			// promote without evicting from the content tier
			l.hot.Insert(k, r)
			log.Debug().Int64("chat_id", k.ChatID).Str("key", k.Name).Uint64("hits", n).
				Msg("promoted to hot cache")
		}
		return r, true, nil
	}

	r, found, err := l.store.FindByKey(ctx, k.ChatID, k.Name)
	if err != nil {
		var zero R
		return zero, false, fmt.Errorf("fetch %q for chat %d: %w", k.Name, k.ChatID, err)
	}
	if !found {
		var zero R
		return zero, false, nil
	}

	l.content.Insert(k, r)
	l.hits.reset(k)
	return r, true, nil
}

// SaveItem upserts the record in storage, then refreshes the content tier,
// refreshes the hot tier only if the key was already hot (writes never
// promote), and invalidates the chat's key set so the next GetKeys recomputes
// it. Two concurrent writers to the same key interleave last-write-wins;
// there is no version check, which is acceptable for this data.
func (l *Lookup[R]) SaveItem(ctx context.Context, record R) error {
	k := l.keyOf(record)
	if err := l.store.Upsert(ctx, record); err != nil {
		return fmt.Errorf("upsert %q for chat %d: %w", k.Name, k.ChatID, err)
	}

	l.content.Insert(k, record)
	if l.hot.Contains(k) {
		l.hot.Insert(k, record)
	}
	l.keys.Invalidate(k.ChatID)
	return nil
}

// DeleteItem removes the record from storage and, when something was deleted,
// from every tier plus the hit counter, then invalidates the chat's key set.
func (l *Lookup[R]) DeleteItem(ctx context.Context, chatID int64, name string) (bool, error) {
	k := NewKey(chatID, name)
	deleted, err := l.store.DeleteByKey(ctx, k.ChatID, k.Name)
	if err != nil {
		return false, fmt.Errorf("delete %q for chat %d: %w", k.Name, k.ChatID, err)
	}
	if !deleted {
		return false, nil
	}

	l.content.Invalidate(k)
	l.hot.Invalidate(k)
	l.hits.clear(k)
	l.keys.Invalidate(k.ChatID)
	log.Debug().Int64("chat_id", k.ChatID).Str("key", k.Name).Msg("deleted from all tiers")
	return true, nil
}

// Invalidate drops a key from every tier and clears its hit counter without
// touching storage. Administrative use.
func (l *Lookup[R]) Invalidate(chatID int64, name string) {
	k := NewKey(chatID, name)
	l.content.Invalidate(k)
	l.hot.Invalidate(k)
	l.hits.clear(k)
	l.keys.Invalidate(k.ChatID)
}

// IsHot reports whether the key currently sits in the hot tier. Diagnostics.
func (l *Lookup[R]) IsHot(chatID int64, name string) bool {
	return l.hot.Contains(NewKey(chatID, name))
}
