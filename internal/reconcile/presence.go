package reconcile

import (
	"fmt"
	"maps"

	"github.com/hilthontt/parley/internal/realtime"
)

// Presence maps user id to online state. Only realtime events change it.
type Presence map[string]bool

func (p Presence) Online(userID string) bool {
	return p[userID]
}

func (p Presence) Set(userID string, online bool) Presence {
	if cur, ok := p[userID]; ok && cur == online {
		return p
	}
	out := maps.Clone(p)
	if out == nil {
		out = Presence{}
	}
	out[userID] = online
	return out
}

func ApplyPresenceEvent(p Presence, m realtime.Message) (Presence, error) {
	switch m.Event {
	case realtime.PresenceUpdate:
		pl, err := realtime.Decode[realtime.PresencePayload](m)
		if err != nil {
			return p, err
		}
		if pl.UserID == "" {
			return p, fmt.Errorf("%s: %w", m.Event, realtime.ErrEmptyID)
		}
		return p.Set(pl.UserID, pl.Online), nil

	case realtime.UserOnline, realtime.UserOffline:
		pl, err := realtime.Decode[realtime.UserPayload](m)
		if err != nil {
			return p, err
		}
		if pl.UserID == "" {
			return p, fmt.Errorf("%s: %w", m.Event, realtime.ErrEmptyID)
		}
		return p.Set(pl.UserID, m.Event == realtime.UserOnline), nil
	}

	return p, nil
}
