package apisdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/hilthontt/parley/api-sdk/internal/apijson"
	"github.com/hilthontt/parley/api-sdk/internal/requestconfig"
	"github.com/hilthontt/parley/api-sdk/option"
)

type AdminStats struct {
	TotalUsers    int `json:"totalUsers"`
	TotalRooms    int `json:"totalRooms"`
	TotalMessages int `json:"totalMessages"`
	MessagesToday int `json:"messagesToday"`
	OnlineUsers   int `json:"onlineUsers"`
}

type AdminUser struct {
	ID          string          `json:"id"`
	Username    string          `json:"username"`
	DisplayName string          `json:"displayName,omitempty"`
	AvatarURL   string          `json:"avatarUrl,omitempty"`
	IsOnline    bool            `json:"isOnline"`
	Rooms       []AdminUserRoom `json:"rooms"`
}

func (u AdminUser) Key() string { return u.ID }

func (u AdminUser) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

type AdminUserRoom struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type AdminRoom struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Slug          string     `json:"slug"`
	Description   string     `json:"description,omitempty"`
	IsPrivate     bool       `json:"isPrivate"`
	TotalMembers  int        `json:"totalMembers"`
	OnlineMembers int        `json:"onlineMembers"`
	MessagesCount int        `json:"messagesCount"`
	LastMessageAt *time.Time `json:"lastMessageAt,omitempty"`
	CreatedByID   string     `json:"createdById"`
	CreatedAt     time.Time  `json:"createdAt,omitzero"`
}

func (r AdminRoom) Key() string { return r.ID }

type AdminService struct {
	Options []option.RequestOption
}

func NewAdminService(opts ...option.RequestOption) *AdminService {
	r := &AdminService{opts}
	return r
}

func (r *AdminService) Stats(ctx context.Context, opts ...option.RequestOption) (*AdminStats, error) {
	opts = slices.Concat(r.Options, opts)
	path := "admin/stats"

	var raw []byte
	if err := requestconfig.ExecuteNewRequest(ctx, http.MethodGet, path, nil, &raw, opts...); err != nil {
		return nil, err
	}

	res := &AdminStats{}
	if err := apijson.UnmarshalData(raw, "stats", res); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *AdminService) Users(ctx context.Context, opts ...option.RequestOption) ([]AdminUser, error) {
	opts = slices.Concat(r.Options, opts)
	path := "admin/users"

	var raw []byte
	if err := requestconfig.ExecuteNewRequest(ctx, http.MethodGet, path, nil, &raw, opts...); err != nil {
		return nil, err
	}

	users := []AdminUser{}
	if err := apijson.UnmarshalData(raw, "users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *AdminService) Rooms(ctx context.Context, opts ...option.RequestOption) ([]AdminRoom, error) {
	opts = slices.Concat(r.Options, opts)
	path := "admin/rooms"

	var raw []byte
	if err := requestconfig.ExecuteNewRequest(ctx, http.MethodGet, path, nil, &raw, opts...); err != nil {
		return nil, err
	}

	rooms := []AdminRoom{}
	if err := apijson.UnmarshalData(raw, "rooms", &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r *AdminService) DeleteRoom(ctx context.Context, id string, opts ...option.RequestOption) error {
	opts = slices.Concat(r.Options, opts)
	if id == "" {
		return ErrMissingIDParameter
	}

	path := fmt.Sprintf("admin/rooms/%s", url.PathEscape(id))
	return requestconfig.ExecuteNewRequest(ctx, http.MethodDelete, path, nil, nil, opts...)
}

func (r *AdminService) UpdateRoom(ctx context.Context, id string, body RoomUpdateParams, opts ...option.RequestOption) (*AdminRoom, error) {
	opts = slices.Concat(r.Options, opts)
	if id == "" {
		return nil, ErrMissingIDParameter
	}

	path := fmt.Sprintf("admin/rooms/%s", url.PathEscape(id))

	var raw []byte
	if err := requestconfig.ExecuteNewRequest(ctx, http.MethodPatch, path, body, &raw, opts...); err != nil {
		return nil, err
	}

	if !apijson.Data(raw, "room").Exists() {
		return nil, nil
	}
	res := &AdminRoom{}
	if err := apijson.UnmarshalData(raw, "room", res); err != nil {
		return nil, err
	}
	return res, nil
}
