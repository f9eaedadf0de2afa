package permissions

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/groupwarden/go-warden/cache"
)

// fakeSource serves ChatMember records from a map and counts fetches.
type fakeSource struct {
	members map[memberKey]ChatMember
	err     error
	calls   atomic.Int64
}

func (s *fakeSource) Member(_ context.Context, chatID, userID int64) (ChatMember, error) {
	s.calls.Add(1)
	if s.err != nil {
		return ChatMember{}, s.err
	}
	m, ok := s.members[memberKey{chatID, userID}]
	if !ok {
		return ChatMember{UserID: userID, Status: StatusMember}, nil
	}
	return m, nil
}

func newTestChecker(t *testing.T, source MemberSource, ownerIDs ...int64) *Checker {
	t.Helper()
	reg := cache.NewRegistry(t.Context(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewChecker(reg, source, ownerIDs)
}

func TestBotOwnerBypassesSource(t *testing.T) {
	src := &fakeSource{}
	c := newTestChecker(t, src, 7)

	require.True(t, c.IsBotOwner(7))
	require.False(t, c.IsBotOwner(8))

	r, err := c.Rights(t.Context(), 1, 7)
	require.NoError(t, err)
	require.NotNil(t, r)
	require.True(t, r.IsOwner)
	require.True(t, r.CanRestrictMember)
	require.Zero(t, src.calls.Load(), "owners never hit the platform")
}

func TestChatOwnerGetsFullRights(t *testing.T) {
	src := &fakeSource{members: map[memberKey]ChatMember{
		{1, 10}: {UserID: 10, Status: StatusOwner},
	}}
	c := newTestChecker(t, src)

	ok, err := c.IsOwner(t.Context(), 1, 10)
	require.NoError(t, err)
	require.True(t, ok)

	for _, check := range []func(context.Context, int64, int64) (bool, error){
		c.IsAdmin, c.CanDeleteMessages, c.CanRestrictMembers,
		c.CanPromoteMembers, c.CanChangeInfo, c.CanPinMessages,
	} {
		ok, err := check(t.Context(), 1, 10)
		require.NoError(t, err)
		require.True(t, ok)
	}
}

func TestAdminRightsFollowMemberFlags(t *testing.T) {
	src := &fakeSource{members: map[memberKey]ChatMember{
		{1, 10}: {
			UserID:            10,
			Status:            StatusAdmin,
			CanDeleteMessages: true,
			CanPinMessages:    true,
		},
	}}
	c := newTestChecker(t, src)

	ok, err := c.IsAdmin(t.Context(), 1, 10)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.CanDeleteMessages(t.Context(), 1, 10)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.CanRestrictMembers(t.Context(), 1, 10)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = c.IsOwner(t.Context(), 1, 10)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRightsAreCached(t *testing.T) {
	src := &fakeSource{members: map[memberKey]ChatMember{
		{1, 10}: {UserID: 10, Status: StatusAdmin, CanManageChat: true},
	}}
	c := newTestChecker(t, src)

	for i := 0; i < 5; i++ {
		_, err := c.Rights(t.Context(), 1, 10)
		require.NoError(t, err)
	}
	require.EqualValues(t, 1, src.calls.Load())
}

func TestNonAdminIsCachedToo(t *testing.T) {
	src := &fakeSource{}
	c := newTestChecker(t, src)

	for i := 0; i < 5; i++ {
		ok, err := c.IsAdmin(t.Context(), 1, 10)
		require.NoError(t, err)
		require.False(t, ok)
	}
	require.EqualValues(t, 1, src.calls.Load(), "non-admin result must be cached")
}

func TestRightsPerChatAndUser(t *testing.T) {
	src := &fakeSource{members: map[memberKey]ChatMember{
		{1, 10}: {UserID: 10, Status: StatusAdmin},
	}}
	c := newTestChecker(t, src)

	ok, err := c.IsAdmin(t.Context(), 1, 10)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.IsAdmin(t.Context(), 2, 10)
	require.NoError(t, err)
	require.False(t, ok, "admin in one chat only")

	ok, err = c.IsAdmin(t.Context(), 1, 11)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSourceErrorPropagatesAndIsNotCached(t *testing.T) {
	errDown := errors.New("platform down")
	src := &fakeSource{err: errDown}
	c := newTestChecker(t, src)

	_, err := c.Rights(t.Context(), 1, 10)
	require.ErrorIs(t, err, errDown)

	ok, err := c.IsAdmin(t.Context(), 1, 10)
	require.ErrorIs(t, err, errDown)
	require.False(t, ok)
	require.EqualValues(t, 2, src.calls.Load(), "failures must not be cached")

	// recovery
	src.err = nil
	src.members = map[memberKey]ChatMember{{1, 10}: {UserID: 10, Status: StatusAdmin}}
	ok, err = c.IsAdmin(t.Context(), 1, 10)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestInvalidateForcesRefetch(t *testing.T) {
	src := &fakeSource{}
	c := newTestChecker(t, src)

	ok, err := c.IsAdmin(t.Context(), 1, 10)
	require.NoError(t, err)
	require.False(t, ok)

	// the user got promoted; stale "not admin" must be droppable
	src.members = map[memberKey]ChatMember{{1, 10}: {UserID: 10, Status: StatusAdmin}}
	c.Invalidate(1, 10)

	ok, err = c.IsAdmin(t.Context(), 1, 10)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 2, src.calls.Load())
}

func TestInvalidateAll(t *testing.T) {
	src := &fakeSource{members: map[memberKey]ChatMember{
		{1, 10}: {UserID: 10, Status: StatusAdmin},
		{2, 11}: {UserID: 11, Status: StatusOwner},
	}}
	c := newTestChecker(t, src)

	_, err := c.Rights(t.Context(), 1, 10)
	require.NoError(t, err)
	_, err = c.Rights(t.Context(), 2, 11)
	require.NoError(t, err)

	c.InvalidateAll()

	_, err = c.Rights(t.Context(), 1, 10)
	require.NoError(t, err)
	require.EqualValues(t, 3, src.calls.Load())
}
