package apisdk

import (
	"context"
	"net/http"
	"slices"

	"github.com/hilthontt/parley/api-sdk/internal/apijson"
	"github.com/hilthontt/parley/api-sdk/internal/requestconfig"
	"github.com/hilthontt/parley/api-sdk/option"
)

type AuthService struct {
	Options []option.RequestOption
}

func NewAuthService(opts ...option.RequestOption) *AuthService {
	r := &AuthService{opts}
	return r
}

// Login exchanges credentials for an access token.
func (r *AuthService) Login(ctx context.Context, body LoginParams, opts ...option.RequestOption) (*AuthResponse, error) {
	opts = slices.Concat(r.Options, opts)
	path := "auth/login"

	var raw []byte
	if err := requestconfig.ExecuteNewRequest(ctx, http.MethodPost, path, body, &raw, opts...); err != nil {
		return nil, err
	}

	res := &AuthResponse{}
	if err := apijson.UnmarshalData(raw, "", res); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *AuthService) Register(ctx context.Context, body RegisterParams, opts ...option.RequestOption) (*AuthResponse, error) {
	opts = slices.Concat(r.Options, opts)
	path := "auth/register"

	var raw []byte
	if err := requestconfig.ExecuteNewRequest(ctx, http.MethodPost, path, body, &raw, opts...); err != nil {
		return nil, err
	}

	res := &AuthResponse{}
	if err := apijson.UnmarshalData(raw, "", res); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *AuthService) Logout(ctx context.Context, opts ...option.RequestOption) error {
	opts = slices.Concat(r.Options, opts)
	path := "auth/logout"

	return requestconfig.ExecuteNewRequest(ctx, http.MethodPost, path, nil, nil, opts...)
}

func (r *AuthService) ChangePassword(ctx context.Context, body ChangePasswordParams, opts ...option.RequestOption) error {
	opts = slices.Concat(r.Options, opts)
	path := "auth/change-password"

	return requestconfig.ExecuteNewRequest(ctx, http.MethodPost, path, body, nil, opts...)
}

type LoginParams struct {
	EmailOrUsername string `json:"emailOrUsername" validate:"required"`
	Password        string `json:"password" validate:"required"`
}

type RegisterParams struct {
	Email       string `json:"email" validate:"required,email"`
	Username    string `json:"username" validate:"required,min=3,max=32"`
	Password    string `json:"password" validate:"required,min=6"`
	DisplayName string `json:"displayName,omitempty" validate:"omitempty,max=64"`
}

type ChangePasswordParams struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
	// ConfirmPassword is checked locally and never sent.
	ConfirmPassword string `json:"-" validate:"eqfield=NewPassword"`
}

type AuthResponse struct {
	AccessToken string `json:"accessToken"`
	User        *User  `json:"user,omitempty"`
}
