package repository_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/groupwarden/go-warden/cache"
	"github.com/groupwarden/go-warden/repository"
	"github.com/groupwarden/go-warden/storage/memstore"
)

func newFilterRepo(t *testing.T) (*repository.FilterRepository, *memstore.Store[repository.Filter]) {
	t.Helper()
	reg := cache.NewRegistry(t.Context(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	store := memstore.New(func(f repository.Filter) (int64, string) {
		return f.ChatID, f.Trigger
	})
	return repository.NewFilterRepository(reg, store), store
}

func TestFilterMatches(t *testing.T) {
	cases := []struct {
		name    string
		filter  repository.Filter
		text    string
		matches bool
	}{
		{"keyword anywhere", repository.Filter{Trigger: "rules", Match: repository.MatchKeyword}, "read the RULES first", true},
		{"keyword absent", repository.Filter{Trigger: "rules", Match: repository.MatchKeyword}, "hello there", false},
		{"exact match", repository.Filter{Trigger: "hi", Match: repository.MatchExact}, "hi", true},
		{"exact trims whitespace", repository.Filter{Trigger: "hi", Match: repository.MatchExact}, "  Hi ", true},
		{"exact rejects superstring", repository.Filter{Trigger: "hi", Match: repository.MatchExact}, "hi everyone", false},
		{"prefix match", repository.Filter{Trigger: "!ban", Match: repository.MatchPrefix}, "!ban @spammer", true},
		{"prefix not at start", repository.Filter{Trigger: "!ban", Match: repository.MatchPrefix}, "please !ban him", false},
		{"case insensitive trigger", repository.Filter{Trigger: "RULES", Match: repository.MatchKeyword}, "the rules", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.matches, tc.filter.Matches(tc.text))
		})
	}
}

func TestFilterSaveRejectsEmptyTrigger(t *testing.T) {
	repo, _ := newFilterRepo(t)
	err := repo.Save(t.Context(), repository.Filter{ChatID: 1, Trigger: "   "})
	require.ErrorIs(t, err, repository.ErrEmptyKey)
}

func TestFilterSaveGetDelete(t *testing.T) {
	repo, _ := newFilterRepo(t)

	f := repository.Filter{
		ChatID:  1,
		Trigger: "welcome",
		Match:   repository.MatchKeyword,
		Reply:   "hello!",
	}
	require.NoError(t, repo.Save(t.Context(), f))

	got, found, err := repo.Get(t.Context(), 1, "Welcome")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "hello!", got.Reply)

	triggers, err := repo.Triggers(t.Context(), 1)
	require.NoError(t, err)
	require.Contains(t, triggers, "welcome")

	deleted, err := repo.Delete(t.Context(), 1, "welcome")
	require.NoError(t, err)
	require.True(t, deleted)

	_, found, err = repo.Get(t.Context(), 1, "welcome")
	require.NoError(t, err)
	require.False(t, found)
}

func TestFindMatching(t *testing.T) {
	repo, _ := newFilterRepo(t)

	require.NoError(t, repo.Save(t.Context(), repository.Filter{
		ChatID: 1, Trigger: "rules", Match: repository.MatchKeyword, Reply: "rules reply",
	}))
	require.NoError(t, repo.Save(t.Context(), repository.Filter{
		ChatID: 1, Trigger: "!help", Match: repository.MatchPrefix, Reply: "help reply",
	}))

	f, found, err := repo.FindMatching(t.Context(), 1, "where are the rules?")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "rules reply", f.Reply)

	f, found, err = repo.FindMatching(t.Context(), 1, "!help me")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "help reply", f.Reply)

	// contains the prefix trigger but not at the start: substring pre-filter
	// passes, the real match type rejects it
	_, found, err = repo.FindMatching(t.Context(), 1, "I need !help badly")
	require.NoError(t, err)
	require.False(t, found)

	_, found, err = repo.FindMatching(t.Context(), 1, "nothing to see")
	require.NoError(t, err)
	require.False(t, found)
}

func TestFindMatchingEmptyChat(t *testing.T) {
	repo, _ := newFilterRepo(t)
	_, found, err := repo.FindMatching(t.Context(), 1, "anything")
	require.NoError(t, err)
	require.False(t, found)
}

func TestFindMatchingRespectsMatchType(t *testing.T) {
	repo, _ := newFilterRepo(t)

	require.NoError(t, repo.Save(t.Context(), repository.Filter{
		ChatID: 1, Trigger: "hi", Match: repository.MatchExact, Reply: "exact",
	}))

	_, found, err := repo.FindMatching(t.Context(), 1, "hi everyone")
	require.NoError(t, err)
	require.False(t, found, "exact filter must not trip on a superstring")

	f, found, err := repo.FindMatching(t.Context(), 1, "hi")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "exact", f.Reply)
}

func TestFilterHotPromotion(t *testing.T) {
	repo, _ := newFilterRepo(t)

	require.NoError(t, repo.Save(t.Context(), repository.Filter{
		ChatID: 1, Trigger: "faq", Match: repository.MatchKeyword, Reply: "x",
	}))

	for i := 0; i < 3; i++ {
		_, _, err := repo.Get(t.Context(), 1, "faq")
		require.NoError(t, err)
	}
	require.True(t, repo.IsHot(1, "faq"))
}

func TestFilterChatsAreIsolated(t *testing.T) {
	repo, _ := newFilterRepo(t)

	require.NoError(t, repo.Save(t.Context(), repository.Filter{
		ChatID: 1, Trigger: "rules", Match: repository.MatchKeyword, Reply: "chat 1",
	}))

	_, found, err := repo.Get(t.Context(), 2, "rules")
	require.NoError(t, err)
	require.False(t, found)
}
