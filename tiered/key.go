package tiered

import "strings"

// Key identifies a record within a chat scope. Name is always stored
// normalized so lookups, writes and deletions agree on identity regardless of
// how the caller spelled the key.
type Key struct {
	ChatID int64
	Name   string
}

// NewKey builds a normalized composite key.
func NewKey(chatID int64, name string) Key {
	return Key{ChatID: chatID, Name: Normalize(name)}
}

// Normalize lowercases and trims an item key.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
