package viewmodel

import (
	"fmt"
	"slices"
	"strings"
	"time"

	apisdk "github.com/hilthontt/parley/api-sdk"
	"github.com/hilthontt/parley/internal/client"
	"github.com/hilthontt/parley/internal/querycache"
	"github.com/hilthontt/parley/internal/reconcile"
	"github.com/hilthontt/parley/internal/realtime"
)

// ScrollPolicy decides when a new message moves the viewport to the bottom.
type ScrollPolicy string

const (
	// ScrollSticky follows new messages only while the viewport is at the
	// bottom or the message is the viewer's own. Anything else counts as
	// unread.
	ScrollSticky ScrollPolicy = "sticky"
	// ScrollAlways follows every new message.
	ScrollAlways ScrollPolicy = "always"
)

func ParseScrollPolicy(s string) ScrollPolicy {
	if ScrollPolicy(strings.ToLower(strings.TrimSpace(s))) == ScrollAlways {
		return ScrollAlways
	}
	return ScrollSticky
}

type ScrollAction int

const (
	ScrollNone ScrollAction = iota
	ScrollToBottom
	// ScrollKeepAnchor keeps the distance to the bottom after older
	// messages were prepended.
	ScrollKeepAnchor
)

// Conversation is the open room: its history, who is typing and who is
// online.
type Conversation struct {
	roomID string
	self   apisdk.User
	policy ScrollPolicy
	expiry time.Duration

	room     apisdk.Room
	hasRoom  bool
	members  []apisdk.RoomMember
	list     reconcile.MessageList
	typing   reconcile.Typing
	presence reconcile.Presence

	// early holds message events that arrived before the first page.
	early []realtime.Message

	loaded       bool
	loadingOlder bool
	atBottom     bool
	unread       int
}

func NewConversation(roomID string, self apisdk.User, policy ScrollPolicy, typingExpiry time.Duration) Conversation {
	return Conversation{
		roomID:   roomID,
		self:     self,
		policy:   policy,
		expiry:   typingExpiry,
		atBottom: true,
	}
}

func (c Conversation) RoomID() string { return c.roomID }

// Loaded seeds the conversation from its first page and always scrolls to
// the bottom. Message events received while the page was in flight are
// replayed on top of it in arrival order.
func (c Conversation) Loaded(data ConversationData) (Conversation, ScrollAction) {
	c.room = data.Room
	c.hasRoom = true
	c.members = data.Members

	list := reconcile.SeedMessages(data.Page)
	for _, m := range c.early {
		list, _, _ = reconcile.ApplyMessageEvent(list, m, c.roomID)
	}
	c.list = list
	c.early = nil

	c.loaded = true
	c.atBottom = true
	c.unread = 0
	return c, ScrollToBottom
}

func (c Conversation) IsLoaded() bool { return c.loaded }

func (c Conversation) Room() (apisdk.Room, bool) { return c.room, c.hasRoom }

func (c Conversation) Members() []apisdk.RoomMember { return c.members }

func (c Conversation) Messages() []apisdk.Message { return c.list.Items }

// OlderCursor returns the cursor of the next older page, if one may be
// requested now.
func (c Conversation) OlderCursor() (string, bool) {
	if !c.loaded || c.loadingOlder || !c.list.HasMore {
		return "", false
	}
	return c.list.NextCursor, true
}

func (c Conversation) BeginOlder() Conversation {
	c.loadingOlder = true
	return c
}

func (c Conversation) LoadingOlder() bool { return c.loadingOlder }

func (c Conversation) OlderLoaded(page apisdk.MessagePage) (Conversation, ScrollAction) {
	c.loadingOlder = false
	list, change := c.list.Prepend(page)
	c.list = list
	if change.Kind == reconcile.NoChange {
		return c, ScrollNone
	}
	return c, ScrollKeepAnchor
}

func (c Conversation) OlderFailed() Conversation {
	c.loadingOlder = false
	return c
}

// SetAtBottom records where the viewport is. Reaching the bottom clears the
// unread count.
func (c Conversation) SetAtBottom(at bool) Conversation {
	c.atBottom = at
	if at {
		c.unread = 0
	}
	return c
}

func (c Conversation) Unread() int { return c.unread }

func (c Conversation) Apply(m realtime.Message, now time.Time) (Conversation, reconcile.Effects, ScrollAction, error) {
	switch m.Event {
	case realtime.MessageNew, realtime.MessageUpdated, realtime.MessageDeleted,
		realtime.RoomUserJoinedSystem, realtime.RoomUserLeftSystem:
		list, change, err := reconcile.ApplyMessageEvent(c.list, m, c.roomID)
		if err != nil {
			return c, reconcile.Effects{}, ScrollNone, fmt.Errorf("conversation: %w", err)
		}
		c.list = list
		if !c.loaded {
			c.early = append(slices.Clip(c.early), m)
			return c, reconcile.Effects{}, ScrollNone, nil
		}
		if change.Kind != reconcile.Appended {
			return c, reconcile.Effects{}, ScrollNone, nil
		}
		if !change.Message.IsSystem() && change.Message.Sender.Username != "" {
			c.typing = c.typing.Stop(c.roomID, change.Message.Sender.Username)
		}
		action := c.scrollFor(change.Message)
		if action == ScrollToBottom {
			c.atBottom = true
			c.unread = 0
		} else {
			c.unread++
		}
		return c, reconcile.Effects{}, action, nil

	case realtime.UserTyping, realtime.UserStoppedTyping:
		typing, err := reconcile.ApplyTypingEvent(c.typing, m, reconcile.TypingContext{
			OpenRoomID: c.roomID,
			Self:       c.self.Username,
			Now:        now,
			Expiry:     c.expiry,
		})
		if err != nil {
			return c, reconcile.Effects{}, ScrollNone, fmt.Errorf("conversation: %w", err)
		}
		c.typing = typing
		return c, reconcile.Effects{}, ScrollNone, nil

	case realtime.PresenceUpdate, realtime.UserOnline, realtime.UserOffline:
		presence, err := reconcile.ApplyPresenceEvent(c.presence, m)
		if err != nil {
			return c, reconcile.Effects{}, ScrollNone, fmt.Errorf("conversation: %w", err)
		}
		c.presence = presence
		return c, reconcile.Effects{}, ScrollNone, nil

	case realtime.RoomUpdated:
		patch, err := realtime.Decode[apisdk.RoomPatch](m)
		if err != nil {
			return c, reconcile.Effects{}, ScrollNone, fmt.Errorf("conversation: %w", err)
		}
		if patch.ID == c.roomID && c.hasRoom {
			c.room = patch.Apply(c.room)
		}
		return c, reconcile.Effects{}, ScrollNone, nil

	case realtime.RoomDeleted:
		id, err := realtime.DecodeID(m)
		if err != nil {
			return c, reconcile.Effects{}, ScrollNone, fmt.Errorf("conversation: %w", err)
		}
		if id != c.roomID {
			return c, reconcile.Effects{}, ScrollNone, nil
		}
		return c, reconcile.Effects{
			Refetch:  []querycache.Tag{client.TagRoomLists},
			Navigate: client.RoomsPath,
			Notice:   reconcile.RoomDeletedNotice,
		}, ScrollNone, nil
	}

	return c, reconcile.Effects{}, ScrollNone, nil
}

func (c Conversation) scrollFor(msg apisdk.Message) ScrollAction {
	own := msg.SenderID != "" && msg.SenderID == c.self.ID
	if c.policy == ScrollAlways || own || c.atBottom {
		return ScrollToBottom
	}
	return ScrollNone
}

// Typing returns who is typing in the room, sorted.
func (c Conversation) Typing() []string {
	return c.typing.Names(c.roomID)
}

// Prune drops expired typing entries.
func (c Conversation) Prune(now time.Time) (Conversation, bool) {
	typing, changed := c.typing.Prune(now)
	c.typing = typing
	return c, changed
}

func (c Conversation) Online(userID string) bool {
	return c.presence.Online(userID)
}

func (c Conversation) OnlineCount() int {
	n := 0
	for _, m := range c.members {
		if c.presence.Online(m.UserID) {
			n++
		}
	}
	return n
}

// CanModerate reports whether the viewer may edit the room.
func (c Conversation) CanModerate() bool {
	if c.self.IsAdmin() || (c.hasRoom && c.room.IsCreator) {
		return true
	}
	for _, m := range c.members {
		if m.UserID == c.self.ID {
			return m.Role == apisdk.RoleAdmin
		}
	}
	return false
}
