// Package repository binds the tiered lookup pattern to the record types the
// bot persists: auto-reply filters and saved notes. Repositories are thin:
// storage semantics live in the collaborator, caching in the tiered layer.
package repository

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/groupwarden/go-warden/cache"
	"github.com/groupwarden/go-warden/tiered"
)

// ErrEmptyKey rejects writes with a blank item key.
var ErrEmptyKey = errors.New("item key must not be empty")

// MatchType is how a filter trigger matches message text.
type MatchType string

const (
	// MatchKeyword matches anywhere in the message.
	MatchKeyword MatchType = "keyword"
	// MatchExact matches only the entire message.
	MatchExact MatchType = "exact"
	// MatchPrefix matches the start of the message.
	MatchPrefix MatchType = "prefix"
)

// Filter is one auto-reply trigger in a chat.
type Filter struct {
	ChatID      int64
	Trigger     string
	Match       MatchType
	Reply       string
	MediaFileID string
	MediaType   string
	AdminOnly   bool
	UserOnly    bool
	Protect     bool
	ReplyTag    bool
}

// Matches reports whether message text trips this filter.
func (f Filter) Matches(text string) bool {
	msg := strings.ToLower(text)
	trigger := strings.ToLower(f.Trigger)
	switch f.Match {
	case MatchExact:
		return strings.TrimSpace(msg) == trigger
	case MatchPrefix:
		return strings.HasPrefix(msg, trigger)
	default:
		return strings.Contains(msg, trigger)
	}
}

// FilterRepository serves filters through the tiered cache.
type FilterRepository struct {
	lookup *tiered.Lookup[Filter]
}

// NewFilterRepository wires the repository against the shared registry and a
// storage collaborator.
func NewFilterRepository(reg *cache.Registry, store tiered.Store[Filter]) *FilterRepository {
	names := tiered.Names{
		KeySet:  "filter_triggers",
		Content: "filter_content",
		Hot:     "filter_hot",
	}
	return &FilterRepository{
		lookup: tiered.New(reg, names, tiered.DefaultConfig(), store, func(f Filter) tiered.Key {
			return tiered.NewKey(f.ChatID, f.Trigger)
		}),
	}
}

// Triggers returns the trigger set for a chat, cheap enough to consult on
// every message.
func (r *FilterRepository) Triggers(ctx context.Context, chatID int64) (map[string]struct{}, error) {
	return r.lookup.GetKeys(ctx, chatID)
}

// Get returns the filter for (chat, trigger).
func (r *FilterRepository) Get(ctx context.Context, chatID int64, trigger string) (Filter, bool, error) {
	return r.lookup.GetItem(ctx, chatID, trigger)
}

// Save upserts a filter.
func (r *FilterRepository) Save(ctx context.Context, f Filter) error {
	if tiered.Normalize(f.Trigger) == "" {
		return ErrEmptyKey
	}
	return r.lookup.SaveItem(ctx, f)
}

// Delete removes a filter. True when one existed.
func (r *FilterRepository) Delete(ctx context.Context, chatID int64, trigger string) (bool, error) {
	return r.lookup.DeleteItem(ctx, chatID, trigger)
}

// FindMatching returns the first filter tripped by text. The trigger set is
// tested as plain substrings first, so messages that cannot match anything
// never cost a per-key fetch; only candidates are resolved and re-checked
// against their real match type.
func (r *FilterRepository) FindMatching(ctx context.Context, chatID int64, text string) (Filter, bool, error) {
	triggers, err := r.Triggers(ctx, chatID)
	if err != nil {
		return Filter{}, false, err
	}
	if len(triggers) == 0 {
		return Filter{}, false, nil
	}

	msg := strings.ToLower(text)
	candidates := make([]string, 0, len(triggers))
	for trigger := range triggers {
		// containment is implied by all three match types
		if strings.Contains(msg, trigger) {
			candidates = append(candidates, trigger)
		}
	}
	sort.Strings(candidates)

	for _, trigger := range candidates {
		f, found, err := r.Get(ctx, chatID, trigger)
		if err != nil {
			return Filter{}, false, err
		}
		if found && f.Matches(text) {
			return f, true, nil
		}
	}
	return Filter{}, false, nil
}

// IsHot reports whether a trigger currently sits in the hot tier.
func (r *FilterRepository) IsHot(chatID int64, trigger string) bool {
	return r.lookup.IsHot(chatID, trigger)
}
