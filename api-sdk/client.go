package apisdk

import (
	"context"
	"net/http"
	"os"
	"slices"

	"github.com/hilthontt/parley/api-sdk/internal/requestconfig"
	"github.com/hilthontt/parley/api-sdk/option"
)

// Client talks to the chat backend. Services share the client options and
// accept per-call overrides.
type Client struct {
	Options  []option.RequestOption
	Auth     *AuthService
	Users    *UserService
	Rooms    *RoomService
	Messages *MessageService
	Admin    *AdminService
	Realtime *RealtimeService
}

func DefaultClientOptions() []option.RequestOption {
	defaults := []option.RequestOption{
		option.WithEnvironmentDev(),
	}
	if o, ok := os.LookupEnv("PARLEY_API_BASE_URL"); ok {
		defaults = append(defaults, option.WithBaseURL(o))
	}
	return defaults
}

func NewClient(opts ...option.RequestOption) *Client {
	opts = append(DefaultClientOptions(), opts...)

	r := &Client{
		Options:  opts,
		Auth:     NewAuthService(opts...),
		Users:    NewUserService(opts...),
		Rooms:    NewRoomService(opts...),
		Messages: NewMessageService(opts...),
		Admin:    NewAdminService(opts...),
		Realtime: NewRealtimeService(opts...),
	}

	return r
}

func (c *Client) Execute(ctx context.Context, method, path string, params, res any, opts ...option.RequestOption) error {
	opts = slices.Concat(c.Options, opts)
	return requestconfig.ExecuteNewRequest(ctx, method, path, params, res, opts...)
}

func (c *Client) Get(ctx context.Context, path string, params, res any, opts ...option.RequestOption) error {
	return c.Execute(ctx, http.MethodGet, path, params, res, opts...)
}

func (c *Client) Post(ctx context.Context, path string, params, res any, opts ...option.RequestOption) error {
	return c.Execute(ctx, http.MethodPost, path, params, res, opts...)
}

func (c *Client) Patch(ctx context.Context, path string, params, res any, opts ...option.RequestOption) error {
	return c.Execute(ctx, http.MethodPatch, path, params, res, opts...)
}

func (c *Client) Delete(ctx context.Context, path string, params, res any, opts ...option.RequestOption) error {
	return c.Execute(ctx, http.MethodDelete, path, params, res, opts...)
}
