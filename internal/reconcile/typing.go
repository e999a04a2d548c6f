package reconcile

import (
	"slices"
	"time"

	"github.com/hilthontt/parley/internal/realtime"
)

const DefaultTypingExpiry = 3 * time.Second

// Typing maps room id to the usernames composing there and the time each
// entry expires. The zero value is ready to use.
type Typing struct {
	rooms map[string]map[string]time.Time
}

func (t Typing) clone() Typing {
	rooms := make(map[string]map[string]time.Time, len(t.rooms))
	for room, users := range t.rooms {
		cp := make(map[string]time.Time, len(users))
		for u, exp := range users {
			cp[u] = exp
		}
		rooms[room] = cp
	}
	return Typing{rooms: rooms}
}

// Start adds username to roomID, or pushes back its expiry when already
// present.
func (t Typing) Start(roomID, username string, now time.Time, expiry time.Duration) Typing {
	if roomID == "" || username == "" {
		return t
	}
	out := t.clone()
	if out.rooms[roomID] == nil {
		out.rooms[roomID] = make(map[string]time.Time)
	}
	out.rooms[roomID][username] = now.Add(expiry)
	return out
}

func (t Typing) Stop(roomID, username string) Typing {
	if _, ok := t.rooms[roomID][username]; !ok {
		return t
	}
	out := t.clone()
	delete(out.rooms[roomID], username)
	if len(out.rooms[roomID]) == 0 {
		delete(out.rooms, roomID)
	}
	return out
}

// Prune drops every entry whose expiry is not after now.
func (t Typing) Prune(now time.Time) (Typing, bool) {
	changed := false
	out := t.clone()
	for room, users := range out.rooms {
		for u, exp := range users {
			if !exp.After(now) {
				delete(users, u)
				changed = true
			}
		}
		if len(users) == 0 {
			delete(out.rooms, room)
		}
	}
	if !changed {
		return t, false
	}
	return out, true
}

// Names returns the usernames typing in roomID, sorted.
func (t Typing) Names(roomID string) []string {
	users := t.rooms[roomID]
	names := make([]string, 0, len(users))
	for u := range users {
		names = append(names, u)
	}
	slices.Sort(names)
	return names
}

func (t Typing) Empty() bool {
	return len(t.rooms) == 0
}

// TypingContext tells ApplyTypingEvent how to interpret a payload.
type TypingContext struct {
	OpenRoomID string
	Self       string
	Now        time.Time
	Expiry     time.Duration
}

// ApplyTypingEvent folds user:typing and user:stopped-typing into t. A
// payload without a room id refers to the open room. The viewer's own
// username is ignored.
func ApplyTypingEvent(t Typing, m realtime.Message, c TypingContext) (Typing, error) {
	if m.Event != realtime.UserTyping && m.Event != realtime.UserStoppedTyping {
		return t, nil
	}

	p, err := realtime.Decode[realtime.TypingPayload](m)
	if err != nil {
		return t, err
	}

	room := p.RoomID
	if room == "" {
		room = c.OpenRoomID
	}
	if p.Username == "" || p.Username == c.Self || room == "" {
		return t, nil
	}

	if m.Event == realtime.UserStoppedTyping {
		return t.Stop(room, p.Username), nil
	}

	expiry := c.Expiry
	if expiry <= 0 {
		expiry = DefaultTypingExpiry
	}
	return t.Start(room, p.Username, c.Now, expiry), nil
}
