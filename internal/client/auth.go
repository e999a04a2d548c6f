package client

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	apisdk "github.com/hilthontt/parley/api-sdk"
	"github.com/hilthontt/parley/internal/infrastructure/logging"
	"github.com/hilthontt/parley/internal/querycache"
)

// Login exchanges credentials for a token, then loads the profile. Both end
// up in the session store.
func (c *Client) Login(ctx context.Context, params apisdk.LoginParams) (*apisdk.User, error) {
	if err := c.valid.Struct(params); err != nil {
		return nil, err
	}

	res, err := c.sdk.Auth.Login(ctx, params)
	if err != nil {
		return nil, err
	}
	return c.completeSignIn(ctx, res)
}

func (c *Client) Register(ctx context.Context, params apisdk.RegisterParams) (*apisdk.User, error) {
	if err := c.valid.Struct(params); err != nil {
		return nil, err
	}

	res, err := c.sdk.Auth.Register(ctx, params)
	if err != nil {
		return nil, err
	}
	return c.completeSignIn(ctx, res)
}

func (c *Client) completeSignIn(ctx context.Context, res *apisdk.AuthResponse) (*apisdk.User, error) {
	if res.AccessToken == "" {
		return nil, fmt.Errorf("sign in: server returned no token")
	}

	c.cache.Reset()
	c.session.SetToken(res.AccessToken)

	me, err := c.sdk.Users.Me(ctx)
	if err != nil {
		c.session.Clear()
		c.session.MarkInitialized()
		return nil, fmt.Errorf("load profile: %w", err)
	}

	c.session.SetCurrentUser(*me)
	c.cache.Set(keyMe, me, TagMe)

	c.logger.Info(logging.Auth, logging.Login, "signed in", map[logging.ExtraKey]any{
		logging.UserID: me.ID,
	})

	return me, nil
}

// Logout tells the server and then, whatever it answered, clears the session
// and the whole query cache.
func (c *Client) Logout(ctx context.Context) error {
	defer func() {
		c.session.Clear()
		c.session.MarkInitialized()
		c.cache.Reset()
		c.logger.Info(logging.Auth, logging.Logout, "signed out", nil)
	}()

	return c.sdk.Auth.Logout(ctx)
}

// Me returns the profile of the signed-in user, loading it if needed, and
// keeps the session copy current.
func (c *Client) Me(ctx context.Context) (*apisdk.User, error) {
	me, err := querycache.Fetch(ctx, c.cache, keyMe, []querycache.Tag{TagMe}, func(ctx context.Context) (*apisdk.User, error) {
		return c.sdk.Users.Me(ctx)
	})
	if err != nil {
		return nil, err
	}

	c.session.SetCurrentUser(*me)
	return me, nil
}

// Bootstrap resolves the profile for a restored token. A missing token or a
// failed lookup leaves the session anonymous but initialized.
func (c *Client) Bootstrap(ctx context.Context) error {
	if c.session.Token() == "" {
		c.session.MarkInitialized()
		return nil
	}

	if _, err := c.Me(ctx); err != nil {
		c.session.MarkInitialized()
		return err
	}
	return nil
}

func (c *Client) ChangePassword(ctx context.Context, params apisdk.ChangePasswordParams) error {
	if err := c.valid.Struct(params); err != nil {
		return err
	}
	return c.sdk.Auth.ChangePassword(ctx, params)
}

func (c *Client) UpdateProfile(ctx context.Context, params apisdk.UpdateProfileParams) (*apisdk.User, error) {
	if err := c.valid.Struct(params); err != nil {
		return nil, err
	}

	user, err := c.sdk.Users.Update(ctx, params)
	if err != nil {
		return nil, err
	}

	if user != nil {
		c.session.SetCurrentUser(*user)
	} else {
		c.session.UpdateCurrentUser(func(u apisdk.User) apisdk.User {
			u.DisplayName = params.DisplayName
			u.StatusMessage = params.StatusMessage
			return u
		})
	}
	c.invalidate(TagMe)

	current, _ := c.session.CurrentUser()
	return &current, nil
}

// UploadAvatar accepts images only, up to the configured size.
func (c *Client) UploadAvatar(ctx context.Context, path string) (*apisdk.User, error) {
	file, err := apisdk.InspectFile(path)
	if err != nil {
		return nil, err
	}
	if !file.IsImage() {
		return nil, fmt.Errorf("%s: %w", file.Name, ErrNotAnImage)
	}
	if c.limits.MaxAvatarBytes > 0 && file.Size > c.limits.MaxAvatarBytes {
		return nil, fmt.Errorf("%w: avatar must be smaller than %s", ErrFileTooLarge, humanize.IBytes(uint64(c.limits.MaxAvatarBytes)))
	}

	user, err := c.sdk.Users.UploadAvatar(ctx, path)
	if err != nil {
		return nil, err
	}

	if user != nil && user.AvatarURL != "" {
		c.SetAvatar(user.ID, user.AvatarURL)
	}
	c.invalidate(TagMe)

	current, _ := c.session.CurrentUser()
	return &current, nil
}

// SetAvatar patches the session profile when userID is the signed-in user.
func (c *Client) SetAvatar(userID, avatarURL string) bool {
	me, ok := c.session.CurrentUser()
	if !ok || me.ID != userID {
		return false
	}

	c.session.UpdateCurrentUser(func(u apisdk.User) apisdk.User {
		u.AvatarURL = avatarURL
		return u
	})
	return true
}
