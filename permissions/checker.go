// Package permissions answers "may this user do that in this chat" from a
// cached view of chat membership. Membership lookups against the platform are
// slow and rate-limited, so results — including "not an admin" — are cached
// for a few minutes.
package permissions

import (
	"context"
	"fmt"
	"time"

	"github.com/groupwarden/go-warden/cache"
)

// MemberStatus is a user's standing in a chat.
type MemberStatus string

const (
	StatusOwner      MemberStatus = "owner"
	StatusAdmin      MemberStatus = "administrator"
	StatusMember     MemberStatus = "member"
	StatusRestricted MemberStatus = "restricted"
	StatusLeft       MemberStatus = "left"
	StatusBanned     MemberStatus = "banned"
)

// ChatMember is what the platform collaborator reports for one user in one
// chat. Flag fields only matter for StatusAdmin.
type ChatMember struct {
	UserID            int64
	Status            MemberStatus
	CanDeleteMessages bool
	CanRestrictMember bool
	CanPromoteMembers bool
	CanChangeInfo     bool
	CanInviteUsers    bool
	CanPinMessages    bool
	CanManageChat     bool
}

// MemberSource fetches live membership from the platform. Failures propagate
// to Checker callers unmodified and are never cached.
type MemberSource interface {
	Member(ctx context.Context, chatID, userID int64) (ChatMember, error)
}

// Rights is the cached admin view of a user. A nil *Rights is meaningful: it
// records that the user is not an admin, so repeat checks for regular members
// also skip the platform round-trip.
type Rights struct {
	UserID            int64
	IsOwner           bool
	CanDeleteMessages bool
	CanRestrictMember bool
	CanPromoteMembers bool
	CanChangeInfo     bool
	CanInviteUsers    bool
	CanPinMessages    bool
	CanManageChat     bool
}

func rightsOf(m ChatMember) *Rights {
	switch m.Status {
	case StatusOwner:
		return fullRights(m.UserID, true)
	case StatusAdmin:
		return &Rights{
			UserID:            m.UserID,
			CanDeleteMessages: m.CanDeleteMessages,
			CanRestrictMember: m.CanRestrictMember,
			CanPromoteMembers: m.CanPromoteMembers,
			CanChangeInfo:     m.CanChangeInfo,
			CanInviteUsers:    m.CanInviteUsers,
			CanPinMessages:    m.CanPinMessages,
			CanManageChat:     m.CanManageChat,
		}
	default:
		return nil
	}
}

func fullRights(userID int64, owner bool) *Rights {
	return &Rights{
		UserID:            userID,
		IsOwner:           owner,
		CanDeleteMessages: true,
		CanRestrictMember: true,
		CanPromoteMembers: true,
		CanChangeInfo:     true,
		CanInviteUsers:    true,
		CanPinMessages:    true,
		CanManageChat:     true,
	}
}

type memberKey struct {
	ChatID int64
	UserID int64
}

// CacheName is the registry name of the rights cache.
const CacheName = "admin_permissions"

func cacheConfig() cache.Config {
	return cache.Config{
		MaxCapacity: 10_000,
		TTL:         5 * time.Minute,
		TTI:         2 * time.Minute,
	}
}

// Checker resolves and caches member rights. Bot owners bypass every check.
type Checker struct {
	source MemberSource
	cache  *cache.TypedCache[memberKey, *Rights]
	owners map[int64]struct{}
}

// NewChecker wires a checker against the shared registry. ownerIDs are bot
// owners who hold all permissions in all chats.
func NewChecker(reg *cache.Registry, source MemberSource, ownerIDs []int64) *Checker {
	owners := make(map[int64]struct{}, len(ownerIDs))
	for _, id := range ownerIDs {
		owners[id] = struct{}{}
	}
	return &Checker{
		source: source,
		cache:  cache.GetOrCreate[memberKey, *Rights](reg, CacheName, cacheConfig()),
		owners: owners,
	}
}

// IsBotOwner reports whether the user is a configured bot owner.
func (c *Checker) IsBotOwner(userID int64) bool {
	_, ok := c.owners[userID]
	return ok
}

// Rights returns the user's admin rights in the chat, nil when they are not
// an admin. Concurrent callers for the same (chat, user) share one platform
// fetch; fetch failures reach every waiter and leave the key uncached.
func (c *Checker) Rights(ctx context.Context, chatID, userID int64) (*Rights, error) {
	if c.IsBotOwner(userID) {
		return fullRights(userID, true), nil
	}
	return c.cache.GetOrTryInsertWith(memberKey{chatID, userID}, func() (*Rights, error) {
		member, err := c.source.Member(ctx, chatID, userID)
		if err != nil {
			return nil, fmt.Errorf("fetch member %d in chat %d: %w", userID, chatID, err)
		}
		return rightsOf(member), nil
	})
}

// IsAdmin reports whether the user is an admin or the chat owner.
func (c *Checker) IsAdmin(ctx context.Context, chatID, userID int64) (bool, error) {
	r, err := c.Rights(ctx, chatID, userID)
	return r != nil, err
}

// IsOwner reports whether the user is the chat owner.
func (c *Checker) IsOwner(ctx context.Context, chatID, userID int64) (bool, error) {
	return c.hasRight(ctx, chatID, userID, func(r *Rights) bool { return r.IsOwner })
}

// CanDeleteMessages reports whether the user may delete others' messages.
func (c *Checker) CanDeleteMessages(ctx context.Context, chatID, userID int64) (bool, error) {
	return c.hasRight(ctx, chatID, userID, func(r *Rights) bool { return r.CanDeleteMessages })
}

// CanRestrictMembers reports whether the user may ban, mute or kick.
func (c *Checker) CanRestrictMembers(ctx context.Context, chatID, userID int64) (bool, error) {
	return c.hasRight(ctx, chatID, userID, func(r *Rights) bool { return r.CanRestrictMember })
}

// CanPromoteMembers reports whether the user may promote or demote admins.
func (c *Checker) CanPromoteMembers(ctx context.Context, chatID, userID int64) (bool, error) {
	return c.hasRight(ctx, chatID, userID, func(r *Rights) bool { return r.CanPromoteMembers })
}

// CanChangeInfo reports whether the user may change chat settings.
func (c *Checker) CanChangeInfo(ctx context.Context, chatID, userID int64) (bool, error) {
	return c.hasRight(ctx, chatID, userID, func(r *Rights) bool { return r.CanChangeInfo })
}

// CanPinMessages reports whether the user may pin messages.
func (c *Checker) CanPinMessages(ctx context.Context, chatID, userID int64) (bool, error) {
	return c.hasRight(ctx, chatID, userID, func(r *Rights) bool { return r.CanPinMessages })
}

func (c *Checker) hasRight(ctx context.Context, chatID, userID int64, pick func(*Rights) bool) (bool, error) {
	r, err := c.Rights(ctx, chatID, userID)
	if err != nil || r == nil {
		return false, err
	}
	return pick(r), nil
}

// Invalidate drops the cached rights for one user in one chat. Call when
// their admin status may have changed.
func (c *Checker) Invalidate(chatID, userID int64) {
	c.cache.Invalidate(memberKey{chatID, userID})
}

// InvalidateAll drops every cached entry. Expensive; the per-chat variant
// would need per-chat key tracking, so chat-wide changes fall back to this
// plus the TTL.
func (c *Checker) InvalidateAll() {
	c.cache.InvalidateAll()
}
