package client

import "github.com/hilthontt/parley/internal/querycache"

// Tags provided by cached queries. List tags carry no id so that a change
// to any single room invalidates them too.
var (
	TagMe         = querycache.T(querycache.TagUser, "me")
	TagRoomLists  = querycache.T(querycache.TagRooms)
	TagAdmin      = querycache.T(querycache.TagAdmin)
	TagAdminStats = querycache.T(querycache.TagAdmin, "stats")
	TagAdminUsers = querycache.T(querycache.TagAdmin, "users")
	TagAdminRooms = querycache.T(querycache.TagAdmin, "rooms")
)

func TagRoom(id string) querycache.Tag {
	return querycache.T(querycache.TagRooms, id)
}

func TagMessages(roomID string) querycache.Tag {
	return querycache.T(querycache.TagMessages, roomID)
}

func TagMembers(roomID string) querycache.Tag {
	return querycache.T(querycache.TagMembers, roomID)
}

const (
	keyMe          = "me"
	keyJoinedRooms = "rooms:joined"
	keyPublicRooms = "rooms:public"
	keyAdminStats  = "admin:stats"
	keyAdminUsers  = "admin:users"
	keyAdminRooms  = "admin:rooms"
)

func keyRoom(id string) string        { return "room:" + id }
func keySearch(query string) string   { return "rooms:search:" + query }
func keyMembers(roomID string) string { return "members:" + roomID }
func keyMessages(roomID, cursor string) string {
	return "messages:" + roomID + ":" + cursor
}
