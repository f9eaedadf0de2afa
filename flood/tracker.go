// Package flood detects message-rate flooding per chat and per user. It only
// detects: applying a penalty is the caller's job, which records a message,
// inspects the result, acts, and then calls ResetUser.
package flood

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Chat-state bounds. The reference behavior kept per-user entries forever;
// here idle chats age out so tracker memory is bounded by active chats, not
// by every chat ever seen. Losing an expired chat's window history is exactly
// the data the policy no longer needs, though warning counts age out with it.
const (
	maxTrackedChats  = 16_384
	chatStateHorizon = 12 * time.Hour
)

// userWindow is one user's sliding window plus their escalation counter.
// times only ever holds timestamps inside the configured window as of the
// last Record call; warnings is monotonically non-decreasing until ResetUser.
type userWindow struct {
	times    []time.Time
	warnings uint32
}

// chatState is everything tracked for one chat. Its own mutex serializes all
// callers for the same chat (message arrival per chat is serial in practice)
// while different chats never contend.
type chatState struct {
	mu         sync.Mutex
	users      map[int64]*userWindow
	lastUserID int64 // 0 = nobody has spoken yet
}

// Tracker is the concurrent per-chat flood detector.
type Tracker struct {
	mu    sync.Mutex // guards get-or-create on chats
	chats *expirable.LRU[int64, *chatState]
	clock clock.Clock
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock injects a clock. Tests use clock.NewMock for deterministic
// windows.
func WithClock(c clock.Clock) Option {
	return func(t *Tracker) { t.clock = c }
}

// NewTracker creates an empty tracker.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		chats: expirable.NewLRU[int64, *chatState](maxTrackedChats, nil, chatStateHorizon),
		clock: clock.New(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Record notes a message from userID in chatID and reports whether the user
// is flooding, together with their warning count.
//
// The conversation-interrupt rule: when the immediately preceding message in
// this chat came from a different user, every other user's timestamp history
// is cleared (their warning counts survive). The flood window therefore only
// counts consecutive self-talk.
func (t *Tracker) Record(chatID, userID int64, maxMessages int, window time.Duration) (flooding bool, warnings uint32) {
	now := t.clock.Now()
	st := t.chatState(chatID)

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.lastUserID != 0 && st.lastUserID != userID {
		for uid, u := range st.users {
			if uid != userID {
				u.times = u.times[:0]
			}
		}
	}
	st.lastUserID = userID

	u := st.users[userID]
	if u == nil {
		u = &userWindow{}
		st.users[userID] = u
	}

	// prune lazily, then count the new message
	live := u.times[:0]
	for _, ts := range u.times {
		if now.Sub(ts) < window {
			live = append(live, ts)
		}
	}
	u.times = append(live, now)

	flooding = len(u.times) > maxMessages
	if flooding {
		u.warnings++
	}
	return flooding, u.warnings
}

// ResetUser drops all tracked data for the user in that chat. Called after a
// penalty is applied so the next message starts a fresh window with zero
// warnings.
func (t *Tracker) ResetUser(chatID, userID int64) {
	if st, ok := t.chats.Get(chatID); ok {
		st.mu.Lock()
		delete(st.users, userID)
		st.mu.Unlock()
	}
}

// Chats returns the number of chats currently tracked. Diagnostics.
func (t *Tracker) Chats() int {
	return t.chats.Len()
}

func (t *Tracker) chatState(chatID int64) *chatState {
	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.chats.Get(chatID); ok {
		return st
	}
	st := &chatState{users: make(map[int64]*userWindow)}
	t.chats.Add(chatID, st)
	return st
}
