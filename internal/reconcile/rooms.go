package reconcile

import (
	"fmt"

	apisdk "github.com/hilthontt/parley/api-sdk"
	"github.com/hilthontt/parley/internal/client"
	"github.com/hilthontt/parley/internal/querycache"
	"github.com/hilthontt/parley/internal/realtime"
)

const RoomDeletedNotice = "This room has been deleted by an administrator."

// RoomLists holds the joined and public lists of the room browser.
type RoomLists struct {
	Joined Collection[apisdk.Room]
	Public Collection[apisdk.Room]
}

// Viewer is who is looking at the lists and which room is open, if any.
type Viewer struct {
	UserID     string
	OpenRoomID string
}

// ApplyRoomEvent folds one room lifecycle event into s. Events for rooms
// that are in neither list only insert on creation.
func ApplyRoomEvent(s RoomLists, m realtime.Message, v Viewer) (RoomLists, Effects, error) {
	switch m.Event {
	case realtime.RoomCreated:
		room, err := realtime.Decode[apisdk.Room](m)
		if err != nil {
			return s, Effects{}, err
		}
		if room.ID == "" {
			return s, Effects{}, fmt.Errorf("%s: %w", m.Event, realtime.ErrEmptyID)
		}
		return ApplyRoomCreated(s, room, v), Effects{Refetch: tagsRoomLists()}, nil

	case realtime.RoomUpdated:
		patch, err := realtime.Decode[apisdk.RoomPatch](m)
		if err != nil {
			return s, Effects{}, err
		}
		if patch.ID == "" {
			return s, Effects{}, fmt.Errorf("%s: %w", m.Event, realtime.ErrEmptyID)
		}
		return ApplyRoomUpdated(s, patch), Effects{}, nil

	case realtime.RoomDeleted:
		id, err := realtime.DecodeID(m)
		if err != nil {
			return s, Effects{}, err
		}
		s = ApplyRoomDeleted(s, id)

		eff := Effects{Refetch: tagsRoomLists()}
		if v.OpenRoomID == id {
			eff.Navigate = client.RoomsPath
			eff.Notice = RoomDeletedNotice
		}
		return s, eff, nil
	}

	return s, Effects{}, nil
}

// ApplyRoomCreated inserts room into public when it is not private and into
// joined when the viewer created it or is a member.
func ApplyRoomCreated(s RoomLists, room apisdk.Room, v Viewer) RoomLists {
	if v.UserID != "" && room.CreatedByID == v.UserID {
		room.IsCreator = true
		room.IsMember = true
	}

	if !room.IsPrivate {
		s.Public = s.Public.UpsertFront(room)
	}
	if room.IsMember {
		s.Joined = s.Joined.UpsertFront(room)
	}
	return s
}

// ApplyRoomUpdated merges patch into whichever lists contain the room.
func ApplyRoomUpdated(s RoomLists, patch apisdk.RoomPatch) RoomLists {
	s.Joined = s.Joined.Patch(patch.ID, patch.Apply)
	s.Public = s.Public.Patch(patch.ID, patch.Apply)
	return s
}

func ApplyRoomDeleted(s RoomLists, id string) RoomLists {
	s.Joined = s.Joined.Remove(id)
	s.Public = s.Public.Remove(id)
	return s
}

func tagsRoomLists() []querycache.Tag {
	return []querycache.Tag{client.TagRoomLists}
}
