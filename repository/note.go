package repository

import (
	"context"

	"github.com/groupwarden/go-warden/cache"
	"github.com/groupwarden/go-warden/tiered"
)

// Note is one saved note in a chat, recalled by name.
type Note struct {
	ChatID    int64
	Name      string
	Content   string
	FileID    string
	FileType  string
	Protect   bool
	AdminOnly bool
}

// NoteRepository serves notes through the tiered cache. It is deliberately
// the same shape as FilterRepository: both are instances of the one pattern.
type NoteRepository struct {
	lookup *tiered.Lookup[Note]
}

// NewNoteRepository wires the repository against the shared registry and a
// storage collaborator.
func NewNoteRepository(reg *cache.Registry, store tiered.Store[Note]) *NoteRepository {
	names := tiered.Names{
		KeySet:  "note_names",
		Content: "note_content",
		Hot:     "note_hot",
	}
	return &NoteRepository{
		lookup: tiered.New(reg, names, tiered.DefaultConfig(), store, func(n Note) tiered.Key {
			return tiered.NewKey(n.ChatID, n.Name)
		}),
	}
}

// Names returns the note-name set for a chat.
func (r *NoteRepository) Names(ctx context.Context, chatID int64) (map[string]struct{}, error) {
	return r.lookup.GetKeys(ctx, chatID)
}

// Get returns the note for (chat, name).
func (r *NoteRepository) Get(ctx context.Context, chatID int64, name string) (Note, bool, error) {
	return r.lookup.GetItem(ctx, chatID, name)
}

// Save upserts a note.
func (r *NoteRepository) Save(ctx context.Context, n Note) error {
	if tiered.Normalize(n.Name) == "" {
		return ErrEmptyKey
	}
	return r.lookup.SaveItem(ctx, n)
}

// Delete removes a note. True when one existed.
func (r *NoteRepository) Delete(ctx context.Context, chatID int64, name string) (bool, error) {
	return r.lookup.DeleteItem(ctx, chatID, name)
}

// IsHot reports whether a note currently sits in the hot tier.
func (r *NoteRepository) IsHot(chatID int64, name string) bool {
	return r.lookup.IsHot(chatID, name)
}
