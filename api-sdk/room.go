package apisdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/hilthontt/parley/api-sdk/internal/apijson"
	"github.com/hilthontt/parley/api-sdk/internal/apiquery"
	"github.com/hilthontt/parley/api-sdk/internal/requestconfig"
	"github.com/hilthontt/parley/api-sdk/option"
)

type Room struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Slug          string       `json:"slug"`
	Description   string       `json:"description,omitempty"`
	IsPrivate     bool         `json:"isPrivate"`
	CreatedByID   string       `json:"createdById"`
	Creator       *RoomCreator `json:"creator,omitempty"`
	IsMember      bool         `json:"isMember"`
	IsCreator     bool         `json:"isCreator"`
	Count         RoomCount    `json:"_count"`
	OnlineMembers int          `json:"onlineMembers"`
	CreatedAt     time.Time    `json:"createdAt,omitzero"`
	UpdatedAt     time.Time    `json:"updatedAt,omitzero"`
}

func (r Room) Key() string { return r.ID }

// Matches reports whether the case-insensitive needle occurs in the room's
// name, id or description.
func (r Room) Matches(needle string) bool {
	needle = strings.ToLower(strings.TrimSpace(needle))
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.Name), needle) ||
		strings.Contains(strings.ToLower(r.ID), needle) ||
		strings.Contains(strings.ToLower(r.Description), needle)
}

type RoomCount struct {
	Memberships int `json:"memberships"`
	Messages    int `json:"messages"`
}

type RoomCreator struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName,omitempty"`
}

// RoomPatch is a partial room as carried by update events and PATCH bodies.
// Nil fields are left untouched.
type RoomPatch struct {
	ID            string     `json:"id,omitempty"`
	Name          *string    `json:"name,omitempty"`
	Slug          *string    `json:"slug,omitempty"`
	Description   *string    `json:"description,omitempty"`
	IsPrivate     *bool      `json:"isPrivate,omitempty"`
	Count         *RoomCount `json:"_count,omitempty"`
	OnlineMembers *int       `json:"onlineMembers,omitempty"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}

// Apply merges the non-nil fields of p into r.
func (p RoomPatch) Apply(r Room) Room {
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
	if p.Count != nil {
		r.Count = *p.Count
	}
	if p.OnlineMembers != nil {
		r.OnlineMembers = *p.OnlineMembers
	}
	if p.UpdatedAt != nil {
		r.UpdatedAt = *p.UpdatedAt
	}
	return r
}

type RoomService struct {
	Options []option.RequestOption
	Members *MemberService
}

func NewRoomService(opts ...option.RequestOption) *RoomService {
	r := &RoomService{
		Options: opts,
		Members: NewMemberService(opts...),
	}
	return r
}

func (r *RoomService) listRooms(ctx context.Context, path string, params any, opts []option.RequestOption) ([]Room, error) {
	var raw []byte
	if err := requestconfig.ExecuteNewRequest(ctx, http.MethodGet, path, params, &raw, opts...); err != nil {
		return nil, err
	}

	rooms := []Room{}
	if err := apijson.UnmarshalData(raw, "rooms", &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r *RoomService) getRoom(ctx context.Context, method, path string, body any, opts []option.RequestOption) (*Room, error) {
	var raw []byte
	if err := requestconfig.ExecuteNewRequest(ctx, method, path, body, &raw, opts...); err != nil {
		return nil, err
	}

	if !apijson.Data(raw, "room").Exists() {
		return nil, nil
	}
	res := &Room{}
	if err := apijson.UnmarshalData(raw, "room", res); err != nil {
		return nil, err
	}
	return res, nil
}

// Joined lists the rooms the caller is a member of.
func (r *RoomService) Joined(ctx context.Context, opts ...option.RequestOption) ([]Room, error) {
	opts = slices.Concat(r.Options, opts)
	return r.listRooms(ctx, "rooms/joined", nil, opts)
}

// Public lists every non-private room.
func (r *RoomService) Public(ctx context.Context, opts ...option.RequestOption) ([]Room, error) {
	opts = slices.Concat(r.Options, opts)
	return r.listRooms(ctx, "rooms/public", nil, opts)
}

func (r *RoomService) Search(ctx context.Context, query string, opts ...option.RequestOption) ([]Room, error) {
	opts = slices.Concat(r.Options, opts)
	return r.listRooms(ctx, "rooms/search", RoomSearchParams{Query: query}, opts)
}

func (r *RoomService) Get(ctx context.Context, id string, opts ...option.RequestOption) (*Room, error) {
	opts = slices.Concat(r.Options, opts)
	if id == "" {
		return nil, ErrMissingIDParameter
	}

	path := fmt.Sprintf("rooms/%s", url.PathEscape(id))
	return r.getRoom(ctx, http.MethodGet, path, nil, opts)
}

func (r *RoomService) New(ctx context.Context, body RoomNewParams, opts ...option.RequestOption) (*Room, error) {
	opts = slices.Concat(r.Options, opts)
	path := "rooms"

	return r.getRoom(ctx, http.MethodPost, path, body, opts)
}

func (r *RoomService) Update(ctx context.Context, id string, body RoomUpdateParams, opts ...option.RequestOption) (*Room, error) {
	opts = slices.Concat(r.Options, opts)
	if id == "" {
		return nil, ErrMissingIDParameter
	}

	path := fmt.Sprintf("rooms/%s", url.PathEscape(id))
	return r.getRoom(ctx, http.MethodPatch, path, body, opts)
}

func (r *RoomService) Delete(ctx context.Context, id string, opts ...option.RequestOption) error {
	opts = slices.Concat(r.Options, opts)
	if id == "" {
		return ErrMissingIDParameter
	}

	path := fmt.Sprintf("rooms/%s", url.PathEscape(id))
	return requestconfig.ExecuteNewRequest(ctx, http.MethodDelete, path, nil, nil, opts...)
}

func (r *RoomService) Join(ctx context.Context, id string, opts ...option.RequestOption) error {
	opts = slices.Concat(r.Options, opts)
	if id == "" {
		return ErrMissingIDParameter
	}

	path := fmt.Sprintf("rooms/%s/join", url.PathEscape(id))
	return requestconfig.ExecuteNewRequest(ctx, http.MethodPost, path, nil, nil, opts...)
}

func (r *RoomService) Leave(ctx context.Context, id string, opts ...option.RequestOption) error {
	opts = slices.Concat(r.Options, opts)
	if id == "" {
		return ErrMissingIDParameter
	}

	path := fmt.Sprintf("rooms/%s/leave", url.PathEscape(id))
	return requestconfig.ExecuteNewRequest(ctx, http.MethodPost, path, nil, nil, opts...)
}

type RoomNewParams struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description,omitempty" validate:"max=500"`
	IsPrivate   bool   `json:"isPrivate"`
}

type RoomUpdateParams struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	IsPrivate   *bool   `json:"isPrivate,omitempty"`
}

type RoomSearchParams struct {
	Query string `query:"query"`
}

func (p RoomSearchParams) URLQuery() url.Values {
	return apiquery.Marshal(p)
}
