package apisdk

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/hilthontt/parley/api-sdk/internal/apijson"
	"github.com/hilthontt/parley/api-sdk/internal/requestconfig"
	"github.com/hilthontt/parley/api-sdk/option"
	"github.com/tidwall/sjson"
)

type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Username      string    `json:"username"`
	DisplayName   string    `json:"displayName"`
	AvatarURL     string    `json:"avatarUrl,omitempty"`
	StatusMessage string    `json:"statusMessage,omitempty"`
	Role          Role      `json:"role"`
	CreatedAt     time.Time `json:"createdAt,omitzero"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Name is the display name, falling back to the username.
func (u User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

type UserService struct {
	Options []option.RequestOption
}

func NewUserService(opts ...option.RequestOption) *UserService {
	r := &UserService{opts}
	return r
}

// Me returns the profile of the authenticated user.
func (r *UserService) Me(ctx context.Context, opts ...option.RequestOption) (*User, error) {
	opts = slices.Concat(r.Options, opts)
	path := "users/me"

	var raw []byte
	if err := requestconfig.ExecuteNewRequest(ctx, http.MethodGet, path, nil, &raw, opts...); err != nil {
		return nil, err
	}

	res := &User{}
	if err := apijson.UnmarshalData(raw, "user", res); err != nil {
		return nil, err
	}
	return res, nil
}

// Update patches the profile. An empty status message is left out of the
// body. The returned user is nil when the server answers without one.
func (r *UserService) Update(ctx context.Context, body UpdateProfileParams, opts ...option.RequestOption) (*User, error) {
	opts = slices.Concat(r.Options, opts)
	path := "users/me"

	payload, err := body.MarshalJSON()
	if err != nil {
		return nil, err
	}

	var raw []byte
	if err := requestconfig.ExecuteNewRequest(ctx, http.MethodPatch, path, payload, &raw, opts...); err != nil {
		return nil, err
	}

	if !apijson.Data(raw, "user").Exists() {
		return nil, nil
	}
	res := &User{}
	if err := apijson.UnmarshalData(raw, "user", res); err != nil {
		return nil, err
	}
	return res, nil
}

// UploadAvatar sends the image at filePath as multipart field "avatar".
func (r *UserService) UploadAvatar(ctx context.Context, filePath string, opts ...option.RequestOption) (*User, error) {
	opts = slices.Concat(r.Options, opts)
	path := "users/me/avatar"

	if filePath == "" {
		return nil, ErrMissingFilePath
	}

	form, err := newMultipartForm("avatar", filePath, nil)
	if err != nil {
		return nil, err
	}
	opts = append(opts, option.WithHeader("Content-Type", form.ContentType))

	var raw []byte
	if err := requestconfig.ExecuteNewRequest(ctx, http.MethodPost, path, form.Body, &raw, opts...); err != nil {
		return nil, err
	}

	res := &User{}
	if err := apijson.UnmarshalData(raw, "user", res); err != nil {
		return nil, err
	}
	return res, nil
}

type UpdateProfileParams struct {
	DisplayName   string `validate:"required,max=64"`
	StatusMessage string `validate:"max=140"`
}

func (p UpdateProfileParams) MarshalJSON() ([]byte, error) {
	body, err := sjson.SetBytes([]byte(`{}`), "displayName", strings.TrimSpace(p.DisplayName))
	if err != nil {
		return nil, err
	}
	if status := strings.TrimSpace(p.StatusMessage); status != "" {
		body, err = sjson.SetBytes(body, "statusMessage", status)
		if err != nil {
			return nil, err
		}
	}
	return body, nil
}
