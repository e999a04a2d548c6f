package viewmodel

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	apisdk "github.com/hilthontt/parley/api-sdk"
	"github.com/hilthontt/parley/internal/client"
	"github.com/hilthontt/parley/internal/querycache"
)

type RoomQueries interface {
	JoinedRooms(ctx context.Context) ([]apisdk.Room, error)
	PublicRooms(ctx context.Context) ([]apisdk.Room, error)
}

type RoomListData struct {
	Joined []apisdk.Room
	Public []apisdk.Room
	Since  RoomListSeqs
}

// LoadRoomLists fetches both lists in parallel. since is the RoomList.Seqs
// value taken before the call.
func LoadRoomLists(ctx context.Context, q RoomQueries, since RoomListSeqs) (RoomListData, error) {
	data := RoomListData{Since: since}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rooms, err := q.JoinedRooms(ctx)
		if err != nil {
			return fmt.Errorf("joined rooms: %w", err)
		}
		data.Joined = rooms
		return nil
	})
	g.Go(func() error {
		rooms, err := q.PublicRooms(ctx)
		if err != nil {
			return fmt.Errorf("public rooms: %w", err)
		}
		data.Public = rooms
		return nil
	})

	if err := g.Wait(); err != nil {
		return RoomListData{}, err
	}
	return data, nil
}

type ConversationQueries interface {
	Room(ctx context.Context, id string) (*apisdk.Room, error)
	Messages(ctx context.Context, roomID, cursor string) (*apisdk.MessagePage, error)
	Members(ctx context.Context, roomID string) ([]apisdk.RoomMember, error)
}

type ConversationData struct {
	Room    apisdk.Room
	Page    apisdk.MessagePage
	Members []apisdk.RoomMember
}

// LoadConversation fetches the room, its newest page and its members in
// parallel. The members list is optional: a failure there only leaves it
// empty.
func LoadConversation(ctx context.Context, q ConversationQueries, roomID string) (ConversationData, error) {
	var data ConversationData

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		room, err := q.Room(gctx, roomID)
		if err != nil {
			return fmt.Errorf("room %s: %w", roomID, err)
		}
		if room != nil {
			data.Room = *room
		}
		return nil
	})
	g.Go(func() error {
		page, err := q.Messages(gctx, roomID, "")
		if err != nil {
			return fmt.Errorf("messages %s: %w", roomID, err)
		}
		if page != nil {
			data.Page = *page
		}
		return nil
	})
	g.Go(func() error {
		data.Members, _ = q.Members(gctx, roomID)
		return nil
	})

	if err := g.Wait(); err != nil {
		return ConversationData{}, err
	}
	return data, nil
}

type AdminQueries interface {
	AdminStats(ctx context.Context) (*apisdk.AdminStats, error)
	AdminUsers(ctx context.Context) ([]apisdk.AdminUser, error)
	AdminRooms(ctx context.Context) ([]apisdk.AdminRoom, error)
}

type DashboardData struct {
	Stats *apisdk.AdminStats
	Users []apisdk.AdminUser
	Rooms []apisdk.AdminRoom
	Since DashboardSeqs
}

// LoadDashboard fetches the parts of the dashboard selected by tags, all of
// them when tags is empty.
func LoadDashboard(ctx context.Context, q AdminQueries, since DashboardSeqs, tags ...querycache.Tag) (DashboardData, error) {
	data := DashboardData{Since: since}
	want := func(t querycache.Tag) bool {
		return len(tags) == 0 || querycache.Intersects(tags, []querycache.Tag{t})
	}

	g, ctx := errgroup.WithContext(ctx)
	if want(client.TagAdminStats) {
		g.Go(func() error {
			stats, err := q.AdminStats(ctx)
			if err != nil {
				return fmt.Errorf("admin stats: %w", err)
			}
			data.Stats = stats
			return nil
		})
	}
	if want(client.TagAdminUsers) {
		g.Go(func() error {
			users, err := q.AdminUsers(ctx)
			if err != nil {
				return fmt.Errorf("admin users: %w", err)
			}
			if users == nil {
				users = []apisdk.AdminUser{}
			}
			data.Users = users
			return nil
		})
	}
	if want(client.TagAdminRooms) {
		g.Go(func() error {
			rooms, err := q.AdminRooms(ctx)
			if err != nil {
				return fmt.Errorf("admin rooms: %w", err)
			}
			if rooms == nil {
				rooms = []apisdk.AdminRoom{}
			}
			data.Rooms = rooms
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return DashboardData{}, err
	}
	return data, nil
}
