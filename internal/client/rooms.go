package client

import (
	"context"
	"strings"

	apisdk "github.com/hilthontt/parley/api-sdk"
	"github.com/hilthontt/parley/internal/querycache"
)

func (c *Client) JoinedRooms(ctx context.Context) ([]apisdk.Room, error) {
	return querycache.Fetch(ctx, c.cache, keyJoinedRooms, []querycache.Tag{TagRoomLists}, func(ctx context.Context) ([]apisdk.Room, error) {
		return c.sdk.Rooms.Joined(ctx)
	})
}

func (c *Client) PublicRooms(ctx context.Context) ([]apisdk.Room, error) {
	return querycache.Fetch(ctx, c.cache, keyPublicRooms, []querycache.Tag{TagRoomLists}, func(ctx context.Context) ([]apisdk.Room, error) {
		return c.sdk.Rooms.Public(ctx)
	})
}

func (c *Client) SearchRooms(ctx context.Context, query string) ([]apisdk.Room, error) {
	query = strings.TrimSpace(query)
	return querycache.Fetch(ctx, c.cache, keySearch(query), []querycache.Tag{TagRoomLists}, func(ctx context.Context) ([]apisdk.Room, error) {
		return c.sdk.Rooms.Search(ctx, query)
	})
}

func (c *Client) Room(ctx context.Context, id string) (*apisdk.Room, error) {
	return querycache.Fetch(ctx, c.cache, keyRoom(id), []querycache.Tag{TagRoom(id)}, func(ctx context.Context) (*apisdk.Room, error) {
		return c.sdk.Rooms.Get(ctx, id)
	})
}

func (c *Client) CreateRoom(ctx context.Context, params apisdk.RoomNewParams) (*apisdk.Room, error) {
	params.Name = strings.TrimSpace(params.Name)
	if err := c.valid.Struct(params); err != nil {
		return nil, err
	}

	room, err := c.sdk.Rooms.New(ctx, params)
	if err != nil {
		return nil, err
	}
	c.invalidate(TagRoomLists)
	return room, nil
}

func (c *Client) UpdateRoom(ctx context.Context, id string, params apisdk.RoomUpdateParams) (*apisdk.Room, error) {
	if err := c.valid.Struct(params); err != nil {
		return nil, err
	}

	room, err := c.sdk.Rooms.Update(ctx, id, params)
	if err != nil {
		return nil, err
	}
	c.invalidate(TagRoom(id))
	return room, nil
}

func (c *Client) DeleteRoom(ctx context.Context, id string) error {
	if err := c.sdk.Rooms.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(TagRoom(id), TagMessages(id), TagMembers(id))
	return nil
}

func (c *Client) JoinRoom(ctx context.Context, id string) error {
	if err := c.sdk.Rooms.Join(ctx, id); err != nil {
		return err
	}
	c.invalidate(TagRoom(id), TagMembers(id))
	return nil
}

func (c *Client) LeaveRoom(ctx context.Context, id string) error {
	if err := c.sdk.Rooms.Leave(ctx, id); err != nil {
		return err
	}
	c.invalidate(TagRoom(id), TagMembers(id))
	return nil
}

func (c *Client) Members(ctx context.Context, roomID string) ([]apisdk.RoomMember, error) {
	return querycache.Fetch(ctx, c.cache, keyMembers(roomID), []querycache.Tag{TagMembers(roomID)}, func(ctx context.Context) ([]apisdk.RoomMember, error) {
		return c.sdk.Rooms.Members.List(ctx, roomID)
	})
}

func (c *Client) AddMember(ctx context.Context, roomID, userID string) error {
	if err := c.sdk.Rooms.Members.Add(ctx, roomID, userID); err != nil {
		return err
	}
	c.invalidate(TagMembers(roomID), TagRoom(roomID))
	return nil
}

func (c *Client) RemoveMember(ctx context.Context, roomID, memberID string) error {
	if err := c.sdk.Rooms.Members.Remove(ctx, roomID, memberID); err != nil {
		return err
	}
	c.invalidate(TagMembers(roomID), TagRoom(roomID))
	return nil
}

func (c *Client) UpdateMemberRole(ctx context.Context, roomID, memberID string, role apisdk.Role) error {
	if err := c.sdk.Rooms.Members.UpdateRole(ctx, roomID, memberID, role); err != nil {
		return err
	}
	c.invalidate(TagMembers(roomID))
	return nil
}
