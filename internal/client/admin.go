package client

import (
	"context"

	apisdk "github.com/hilthontt/parley/api-sdk"
	"github.com/hilthontt/parley/internal/querycache"
)

func (c *Client) AdminStats(ctx context.Context) (*apisdk.AdminStats, error) {
	return querycache.Fetch(ctx, c.cache, keyAdminStats, []querycache.Tag{TagAdminStats}, func(ctx context.Context) (*apisdk.AdminStats, error) {
		return c.sdk.Admin.Stats(ctx)
	})
}

func (c *Client) AdminUsers(ctx context.Context) ([]apisdk.AdminUser, error) {
	return querycache.Fetch(ctx, c.cache, keyAdminUsers, []querycache.Tag{TagAdminUsers}, func(ctx context.Context) ([]apisdk.AdminUser, error) {
		return c.sdk.Admin.Users(ctx)
	})
}

func (c *Client) AdminRooms(ctx context.Context) ([]apisdk.AdminRoom, error) {
	return querycache.Fetch(ctx, c.cache, keyAdminRooms, []querycache.Tag{TagAdminRooms}, func(ctx context.Context) ([]apisdk.AdminRoom, error) {
		return c.sdk.Admin.Rooms(ctx)
	})
}

func (c *Client) AdminDeleteRoom(ctx context.Context, id string) error {
	if err := c.sdk.Admin.DeleteRoom(ctx, id); err != nil {
		return err
	}
	c.invalidate(TagAdmin, TagRoom(id))
	return nil
}

func (c *Client) AdminUpdateRoom(ctx context.Context, id string, params apisdk.RoomUpdateParams) (*apisdk.AdminRoom, error) {
	if err := c.valid.Struct(params); err != nil {
		return nil, err
	}

	room, err := c.sdk.Admin.UpdateRoom(ctx, id, params)
	if err != nil {
		return nil, err
	}
	c.invalidate(TagAdmin, TagRoom(id))
	return room, nil
}

// Refetch drops the given tags without a mutation, for example when a
// realtime event says the server-side aggregate has changed.
func (c *Client) Refetch(tags ...querycache.Tag) {
	c.invalidate(tags...)
}
