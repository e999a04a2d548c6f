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

type RoomMember struct {
	ID       string      `json:"id"`
	UserID   string      `json:"userId"`
	RoomID   string      `json:"roomId"`
	Role     Role        `json:"role"`
	User     *MemberUser `json:"user,omitempty"`
	JoinedAt time.Time   `json:"joinedAt,omitzero"`
}

func (m RoomMember) Key() string { return m.ID }

type MemberUser struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// MemberService manages the membership sub-resource of a room.
type MemberService struct {
	Options []option.RequestOption
}

func NewMemberService(opts ...option.RequestOption) *MemberService {
	r := &MemberService{opts}
	return r
}

func (r *MemberService) List(ctx context.Context, roomID string, opts ...option.RequestOption) ([]RoomMember, error) {
	opts = slices.Concat(r.Options, opts)
	if roomID == "" {
		return nil, ErrMissingRoomIDParameter
	}

	path := fmt.Sprintf("rooms/%s/members", url.PathEscape(roomID))

	var raw []byte
	if err := requestconfig.ExecuteNewRequest(ctx, http.MethodGet, path, nil, &raw, opts...); err != nil {
		return nil, err
	}

	members := []RoomMember{}
	if err := apijson.UnmarshalData(raw, "members", &members); err != nil {
		return nil, err
	}
	return members, nil
}

func (r *MemberService) Add(ctx context.Context, roomID, userID string, opts ...option.RequestOption) error {
	opts = slices.Concat(r.Options, opts)
	if roomID == "" {
		return ErrMissingRoomIDParameter
	}
	if userID == "" {
		return ErrMissingIDParameter
	}

	path := fmt.Sprintf("rooms/%s/members", url.PathEscape(roomID))
	body := memberAddParams{UserID: userID}

	return requestconfig.ExecuteNewRequest(ctx, http.MethodPost, path, body, nil, opts...)
}

func (r *MemberService) Remove(ctx context.Context, roomID, memberID string, opts ...option.RequestOption) error {
	opts = slices.Concat(r.Options, opts)
	if roomID == "" {
		return ErrMissingRoomIDParameter
	}
	if memberID == "" {
		return ErrMissingMemberIDParameter
	}

	path := fmt.Sprintf("rooms/%s/members/%s", url.PathEscape(roomID), url.PathEscape(memberID))

	return requestconfig.ExecuteNewRequest(ctx, http.MethodDelete, path, nil, nil, opts...)
}

func (r *MemberService) UpdateRole(ctx context.Context, roomID, memberID string, role Role, opts ...option.RequestOption) error {
	opts = slices.Concat(r.Options, opts)
	if roomID == "" {
		return ErrMissingRoomIDParameter
	}
	if memberID == "" {
		return ErrMissingMemberIDParameter
	}

	path := fmt.Sprintf("rooms/%s/members/%s/role", url.PathEscape(roomID), url.PathEscape(memberID))
	body := memberRoleParams{Role: role}

	return requestconfig.ExecuteNewRequest(ctx, http.MethodPatch, path, body, nil, opts...)
}

type memberAddParams struct {
	UserID string `json:"userId"`
}

type memberRoleParams struct {
	Role Role `json:"role"`
}
