// Package memstore is an in-memory implementation of the persistent-storage
// collaborator. It backs tests and small deployments; a real backend only has
// to satisfy the same tiered.Store contract.
package memstore

import (
	"context"
	"sync"

	"github.com/groupwarden/go-warden/tiered"
)

type compositeKey struct {
	chatID int64
	name   string
}

// Store holds records keyed by (chat scope, normalized item key) with upsert
// semantics. All methods are safe for concurrent use.
type Store[R any] struct {
	mu    sync.RWMutex
	items map[compositeKey]R
	keyOf func(R) (chatID int64, name string)
	err   error
}

// New creates an empty store. keyOf derives a record's composite key.
func New[R any](keyOf func(R) (chatID int64, name string)) *Store[R] {
	return &Store[R]{
		items: make(map[compositeKey]R),
		keyOf: keyOf,
	}
}

// FailWith makes every subsequent call return err; nil restores normal
// operation. Test hook for failure-propagation behavior.
func (s *Store[R]) FailWith(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *Store[R]) key(chatID int64, name string) compositeKey {
	return compositeKey{chatID: chatID, name: tiered.Normalize(name)}
}

// FindByKey returns the record for (chatID, name), or false if absent.
func (s *Store[R]) FindByKey(_ context.Context, chatID int64, name string) (R, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var zero R
	if s.err != nil {
		return zero, false, s.err
	}
	r, ok := s.items[s.key(chatID, name)]
	if !ok {
		return zero, false, nil
	}
	return r, true, nil
}

// Upsert replaces the record matching its composite key, or inserts it.
func (s *Store[R]) Upsert(_ context.Context, record R) error {
	chatID, name := s.keyOf(record)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.items[s.key(chatID, name)] = record
	return nil
}

// DeleteByKey removes the record. True when something was deleted.
func (s *Store[R]) DeleteByKey(_ context.Context, chatID int64, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	k := s.key(chatID, name)
	if _, ok := s.items[k]; !ok {
		return false, nil
	}
	delete(s.items, k)
	return true, nil
}

// Keys returns only the item keys for a chat scope.
func (s *Store[R]) Keys(_ context.Context, chatID int64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	var names []string
	for k := range s.items {
		if k.chatID == chatID {
			names = append(names, k.name)
		}
	}
	return names, nil
}

// Len returns the number of stored records. Diagnostics.
func (s *Store[R]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
