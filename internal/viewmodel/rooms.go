// Package viewmodel holds the per-screen state of the terminal client. Each
// view model is a value: methods return an updated copy, and the screen that
// owns it is the only writer.
package viewmodel

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"

	apisdk "github.com/hilthontt/parley/api-sdk"
	"github.com/hilthontt/parley/internal/reconcile"
	"github.com/hilthontt/parley/internal/realtime"
)

// RoomEntry is one row of the room browser.
type RoomEntry struct {
	Room   apisdk.Room
	Joined bool
}

// CanJoin reports whether the row offers a join action. Joined rooms only
// offer entry.
func (e RoomEntry) CanJoin() bool { return !e.Joined }

// RoomListSeqs are the collection sequences observed when a fetch starts.
type RoomListSeqs struct {
	Joined uint64
	Public uint64
}

type RoomList struct {
	lists  reconcile.RoomLists
	viewer reconcile.Viewer
	filter string
	loaded bool
}

func NewRoomList(viewer reconcile.Viewer) RoomList {
	return RoomList{viewer: viewer}
}

func (v RoomList) Seqs() RoomListSeqs {
	return RoomListSeqs{Joined: v.lists.Joined.Seq(), Public: v.lists.Public.Seq()}
}

// Loaded folds a completed fetch in, keeping every event applied since the
// fetch started.
func (v RoomList) Loaded(data RoomListData) RoomList {
	v.lists.Joined = v.lists.Joined.Rebase(data.Joined, data.Since.Joined)
	v.lists.Public = v.lists.Public.Rebase(data.Public, data.Since.Public)
	v.loaded = true
	return v
}

func (v RoomList) IsLoaded() bool { return v.loaded }

func (v RoomList) Apply(m realtime.Message) (RoomList, reconcile.Effects, error) {
	lists, eff, err := reconcile.ApplyRoomEvent(v.lists, m, v.viewer)
	if err != nil {
		return v, reconcile.Effects{}, fmt.Errorf("room list: %w", err)
	}
	v.lists = lists
	return v, eff, nil
}

// MarkJoined moves room into the joined list after a successful join.
func (v RoomList) MarkJoined(room apisdk.Room) RoomList {
	room.IsMember = true
	v.lists.Joined = v.lists.Joined.UpsertFront(room)
	v.lists.Public = v.lists.Public.Patch(room.ID, func(r apisdk.Room) apisdk.Room {
		r.IsMember = true
		return r
	})
	return v
}

// MarkLeft drops id from the joined list after a successful leave.
func (v RoomList) MarkLeft(id string) RoomList {
	v.lists.Joined = v.lists.Joined.Remove(id)
	v.lists.Public = v.lists.Public.Patch(id, func(r apisdk.Room) apisdk.Room {
		r.IsMember = false
		return r
	})
	return v
}

func (v RoomList) MarkDeleted(id string) RoomList {
	v.lists = reconcile.ApplyRoomDeleted(v.lists, id)
	return v
}

func (v RoomList) SetFilter(q string) RoomList {
	v.filter = q
	return v
}

func (v RoomList) Filter() string { return v.filter }

// JoinedIDs is the set of rooms the viewer belongs to.
func (v RoomList) JoinedIDs() mapset.Set[string] {
	ids := mapset.NewThreadUnsafeSet[string]()
	for _, r := range v.lists.Joined.Items() {
		ids.Add(r.ID)
	}
	return ids
}

// Joined returns the joined rooms that match the filter.
func (v RoomList) Joined() []RoomEntry {
	var out []RoomEntry
	for _, r := range v.lists.Joined.Filter(v.matches) {
		out = append(out, RoomEntry{Room: r, Joined: true})
	}
	return out
}

// Public returns the public rooms that match the filter. A public room the
// viewer already joined is flagged so that it offers entry only.
func (v RoomList) Public() []RoomEntry {
	joined := v.JoinedIDs()

	var out []RoomEntry
	for _, r := range v.lists.Public.Filter(v.matches) {
		out = append(out, RoomEntry{Room: r, Joined: joined.Contains(r.ID) || r.IsMember})
	}
	return out
}

func (v RoomList) Room(id string) (apisdk.Room, bool) {
	if r, ok := v.lists.Joined.Get(id); ok {
		return r, true
	}
	return v.lists.Public.Get(id)
}

func (v RoomList) matches(r apisdk.Room) bool {
	return r.Matches(v.filter)
}
