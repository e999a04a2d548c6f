package reconcile

import (
	"fmt"

	apisdk "github.com/hilthontt/parley/api-sdk"
	"github.com/hilthontt/parley/internal/realtime"
)

// MessageList is the open room's history, oldest first.
type MessageList struct {
	Items      []apisdk.Message
	NextCursor string
	HasMore    bool
}

type ChangeKind int

const (
	NoChange ChangeKind = iota
	Appended
	Replaced
	Removed
	Prepended
)

// MessageChange describes what an apply did, so the owner can decide about
// scrolling.
type MessageChange struct {
	Kind    ChangeKind
	Message apisdk.Message
	Count   int
}

func SeedMessages(page apisdk.MessagePage) MessageList {
	return MessageList{
		Items:      dedupe(page.Messages),
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
	}
}

func (l MessageList) index(id string) int {
	for i, m := range l.Items {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func (l MessageList) Has(id string) bool {
	return l.index(id) >= 0
}

// Append adds msg at the end. A message whose id is already present is
// replaced in place instead, so a duplicate delivery is harmless.
func (l MessageList) Append(msg apisdk.Message) (MessageList, MessageChange) {
	items := append([]apisdk.Message(nil), l.Items...)
	if i := l.index(msg.ID); i >= 0 {
		items[i] = msg
		l.Items = items
		return l, MessageChange{Kind: Replaced, Message: msg, Count: 1}
	}

	l.Items = append(items, msg)
	return l, MessageChange{Kind: Appended, Message: msg, Count: 1}
}

// Replace swaps the message with the same id. Unknown ids are a no-op.
func (l MessageList) Replace(msg apisdk.Message) (MessageList, MessageChange) {
	i := l.index(msg.ID)
	if i < 0 {
		return l, MessageChange{}
	}

	items := append([]apisdk.Message(nil), l.Items...)
	items[i] = msg
	l.Items = items
	return l, MessageChange{Kind: Replaced, Message: msg, Count: 1}
}

// Remove drops the message with id. Unknown ids are a no-op.
func (l MessageList) Remove(id string) (MessageList, MessageChange) {
	i := l.index(id)
	if i < 0 {
		return l, MessageChange{}
	}

	removed := l.Items[i]
	items := make([]apisdk.Message, 0, len(l.Items)-1)
	items = append(items, l.Items[:i]...)
	items = append(items, l.Items[i+1:]...)
	l.Items = items
	return l, MessageChange{Kind: Removed, Message: removed, Count: 1}
}

// Prepend puts an older page in front of the list. Messages already loaded
// are skipped and the relative order of both parts is kept.
func (l MessageList) Prepend(page apisdk.MessagePage) (MessageList, MessageChange) {
	older := make([]apisdk.Message, 0, len(page.Messages))
	seen := make(map[string]struct{}, len(page.Messages))
	for _, m := range page.Messages {
		if _, dup := seen[m.ID]; dup || l.Has(m.ID) {
			continue
		}
		seen[m.ID] = struct{}{}
		older = append(older, m)
	}

	l.Items = append(older, l.Items...)
	l.NextCursor = page.NextCursor
	l.HasMore = page.HasMore

	if len(older) == 0 {
		return l, MessageChange{}
	}
	return l, MessageChange{Kind: Prepended, Count: len(older)}
}

// ApplyMessageEvent folds a message lifecycle event for roomID into l.
// Messages addressed to other rooms are ignored.
func ApplyMessageEvent(l MessageList, m realtime.Message, roomID string) (MessageList, MessageChange, error) {
	switch m.Event {
	case realtime.MessageNew, realtime.RoomUserJoinedSystem, realtime.RoomUserLeftSystem:
		msg, err := realtime.Decode[apisdk.Message](m)
		if err != nil {
			return l, MessageChange{}, err
		}
		if msg.ID == "" {
			return l, MessageChange{}, fmt.Errorf("%s: %w", m.Event, realtime.ErrEmptyID)
		}
		if msg.RoomID != "" && msg.RoomID != roomID {
			return l, MessageChange{}, nil
		}
		if m.Event != realtime.MessageNew {
			msg.Type = apisdk.MessageTypeSystem
			if msg.Action == "" {
				msg.Action = systemAction(m.Event)
			}
		}
		next, change := l.Append(msg)
		return next, change, nil

	case realtime.MessageUpdated:
		msg, err := realtime.Decode[apisdk.Message](m)
		if err != nil {
			return l, MessageChange{}, err
		}
		next, change := l.Replace(msg)
		return next, change, nil

	case realtime.MessageDeleted:
		id, err := realtime.DecodeID(m)
		if err != nil {
			return l, MessageChange{}, err
		}
		next, change := l.Remove(id)
		return next, change, nil
	}

	return l, MessageChange{}, nil
}

func systemAction(ev realtime.Event) string {
	if ev == realtime.RoomUserLeftSystem {
		return "leave"
	}
	return "join"
}

// BottomAnchoredOffset returns the scroll offset that keeps the viewport at
// the same distance from the bottom after the content grew from oldTotal to
// newTotal lines at the top.
func BottomAnchoredOffset(oldOffset, oldTotal, newTotal int) int {
	off := oldOffset + (newTotal - oldTotal)
	if off < 0 {
		return 0
	}
	return off
}
