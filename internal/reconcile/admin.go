package reconcile

import (
	"fmt"

	apisdk "github.com/hilthontt/parley/api-sdk"
	"github.com/hilthontt/parley/internal/client"
	"github.com/hilthontt/parley/internal/querycache"
	"github.com/hilthontt/parley/internal/realtime"
)

type AdminState struct {
	Stats    apisdk.AdminStats
	HasStats bool
	Users    Collection[apisdk.AdminUser]
	Rooms    Collection[apisdk.AdminRoom]
}

// ApplyAdminEvent patches the dashboard in place where the payload allows
// it and asks for a refetch where it does not.
func ApplyAdminEvent(s AdminState, m realtime.Message) (AdminState, Effects, error) {
	switch m.Event {
	case realtime.AdminStatsUpdated:
		stats, err := realtime.Decode[apisdk.AdminStats](m)
		if err != nil {
			return s, Effects{}, err
		}
		s.Stats = stats
		s.HasStats = true
		return s, refetch(client.TagAdminUsers), nil

	case realtime.AdminUserStatusChanged:
		p, err := realtime.Decode[realtime.AdminUserStatusPayload](m)
		if err != nil {
			return s, Effects{}, err
		}
		if p.UserID == "" {
			return s, Effects{}, fmt.Errorf("%s: %w", m.Event, realtime.ErrEmptyID)
		}
		s.Users = s.Users.Patch(p.UserID, setUserOnline(p.IsOnline))
		return s, refetch(client.TagAdminStats), nil

	case realtime.UserOnline, realtime.UserOffline:
		p, err := realtime.Decode[realtime.UserPayload](m)
		if err != nil {
			return s, Effects{}, err
		}
		if p.UserID == "" {
			return s, Effects{}, fmt.Errorf("%s: %w", m.Event, realtime.ErrEmptyID)
		}
		s.Users = s.Users.Patch(p.UserID, setUserOnline(m.Event == realtime.UserOnline))
		return s, Effects{}, nil

	case realtime.AdminRoomCreated:
		return s, refetch(client.TagAdminRooms, client.TagAdminStats), nil

	case realtime.AdminRoomDeleted:
		id, err := realtime.DecodeID(m)
		if err != nil {
			return s, Effects{}, err
		}
		s.Rooms = s.Rooms.Remove(id)
		return s, refetch(client.TagAdminStats), nil

	case realtime.AdminRoomUpdated:
		p, err := realtime.Decode[realtime.AdminRoomPatch](m)
		if err != nil {
			return s, Effects{}, err
		}
		if p.ID == "" {
			return s, Effects{}, fmt.Errorf("%s: %w", m.Event, realtime.ErrEmptyID)
		}
		s.Rooms = s.Rooms.Patch(p.ID, func(r apisdk.AdminRoom) apisdk.AdminRoom {
			return ApplyAdminRoomPatch(r, p)
		})
		return s, Effects{}, nil

	case realtime.AdminRoomOnlineUpdated:
		p, err := realtime.Decode[realtime.AdminRoomOnlinePayload](m)
		if err != nil {
			return s, Effects{}, err
		}
		s.Rooms = s.Rooms.Patch(p.RoomID, func(r apisdk.AdminRoom) apisdk.AdminRoom {
			r.OnlineMembers = p.OnlineMembers
			r.TotalMembers = p.TotalMembers
			return r
		})
		return s, Effects{}, nil

	case realtime.AdminRoomMessagesUpdated:
		p, err := realtime.Decode[realtime.AdminRoomMessagesPayload](m)
		if err != nil {
			return s, Effects{}, err
		}
		s.Rooms = s.Rooms.Patch(p.RoomID, func(r apisdk.AdminRoom) apisdk.AdminRoom {
			r.MessagesCount = p.MessagesCount
			return r
		})
		return s, Effects{}, nil
	}

	return s, Effects{}, nil
}

func ApplyAdminRoomPatch(r apisdk.AdminRoom, p realtime.AdminRoomPatch) apisdk.AdminRoom {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Slug != nil {
		r.Slug = *p.Slug
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.IsPrivate != nil {
		r.IsPrivate = *p.IsPrivate
	}
	if p.TotalMembers != nil {
		r.TotalMembers = *p.TotalMembers
	}
	if p.OnlineMembers != nil {
		r.OnlineMembers = *p.OnlineMembers
	}
	if p.MessagesCount != nil {
		r.MessagesCount = *p.MessagesCount
	}
	return r
}

func setUserOnline(online bool) func(apisdk.AdminUser) apisdk.AdminUser {
	return func(u apisdk.AdminUser) apisdk.AdminUser {
		u.IsOnline = online
		return u
	}
}

func refetch(tags ...querycache.Tag) Effects {
	return Effects{Refetch: tags}
}

// UserFilter selects which admin users are listed.
type UserFilter string

const (
	FilterAll     UserFilter = "all"
	FilterOnline  UserFilter = "online"
	FilterOffline UserFilter = "offline"
)

func (f UserFilter) Next() UserFilter {
	switch f {
	case FilterAll:
		return FilterOnline
	case FilterOnline:
		return FilterOffline
	default:
		return FilterAll
	}
}

func FilterUsers(users []apisdk.AdminUser, f UserFilter) []apisdk.AdminUser {
	var out []apisdk.AdminUser
	for _, u := range users {
		switch {
		case f == FilterOnline && !u.IsOnline:
		case f == FilterOffline && u.IsOnline:
		default:
			out = append(out, u)
		}
	}
	return out
}

// UserCounts returns the total, online and offline user counts.
func UserCounts(users []apisdk.AdminUser) (total, online, offline int) {
	for _, u := range users {
		if u.IsOnline {
			online++
		}
	}
	return len(users), online, len(users) - online
}
