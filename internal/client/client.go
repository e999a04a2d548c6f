// Package client is the REST policy layer of the application. It wraps the
// SDK with the session store and the query cache: queries are cached under
// tags, mutations invalidate tags, and any 401 signs the user out.
package client

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	apisdk "github.com/hilthontt/parley/api-sdk"
	"github.com/hilthontt/parley/api-sdk/option"
	"github.com/hilthontt/parley/internal/infrastructure/logging"
	"github.com/hilthontt/parley/internal/querycache"
	"github.com/hilthontt/parley/internal/session"
)

const (
	LoginPath    = "/auth/login"
	RegisterPath = "/auth/register"
	RoomsPath    = "/chat/rooms"
)

var (
	ErrFileTooLarge = errors.New("file is too large")
	ErrNotAnImage   = errors.New("file is not an image")
)

// Navigator exposes the current location of the UI and moves it.
type Navigator interface {
	CurrentPath() string
	Navigate(path string)
}

type Limits struct {
	PageSize           int
	MaxAttachmentBytes int64
	MaxAvatarBytes     int64
}

func DefaultLimits() Limits {
	return Limits{
		PageSize:           15,
		MaxAttachmentBytes: 10 << 20,
		MaxAvatarBytes:     5 << 20,
	}
}

type Client struct {
	sdk     *apisdk.Client
	session *session.Store
	cache   *querycache.Cache
	logger  logging.Logger
	limits  Limits
	valid   inputValidator

	navMu     sync.RWMutex
	navigator Navigator
}

// New builds the SDK client with the session token source, the 401 handler
// and request logging installed ahead of opts.
func New(store *session.Store, cache *querycache.Cache, logger logging.Logger, limits Limits, opts ...option.RequestOption) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	if limits.PageSize <= 0 {
		limits.PageSize = DefaultLimits().PageSize
	}

	c := &Client{
		session: store,
		cache:   cache,
		logger:  logger,
		limits:  limits,
	}

	base := []option.RequestOption{
		option.WithTokenSource(store.Token),
		option.WithMiddleware(c.unauthorizedMiddleware),
		option.WithStatusHook(c.logStatus),
	}
	c.sdk = apisdk.NewClient(append(base, opts...)...)

	return c
}

func (c *Client) SDK() *apisdk.Client      { return c.sdk }
func (c *Client) Session() *session.Store  { return c.session }
func (c *Client) Cache() *querycache.Cache { return c.cache }
func (c *Client) Limits() Limits           { return c.limits }
func (c *Client) Logger() logging.Logger   { return c.logger }

func (c *Client) Navigator() Navigator {
	c.navMu.RLock()
	defer c.navMu.RUnlock()
	return c.navigator
}

// SetNavigator attaches the UI once it exists. Until then a 401 only clears
// the session.
func (c *Client) SetNavigator(nav Navigator) {
	c.navMu.Lock()
	c.navigator = nav
	c.navMu.Unlock()
}

func (c *Client) unauthorizedMiddleware(r *http.Request, next option.MiddlewareNext) (*http.Response, error) {
	resp, err := next(r)
	if resp != nil && resp.StatusCode == http.StatusUnauthorized {
		c.handleUnauthorized(r)
	}
	return resp, err
}

// handleUnauthorized signs the user out and sends the UI to the login page,
// remembering where it was unless it already is on an auth page.
func (c *Client) handleUnauthorized(r *http.Request) {
	c.session.Clear()
	c.session.MarkInitialized()

	nav := c.Navigator()
	path := ""
	if nav != nil {
		path = nav.CurrentPath()
	}

	c.logger.Warn(logging.Auth, logging.Unauthorized, "request rejected, signing out", map[logging.ExtraKey]any{
		logging.Method: r.Method,
		logging.Path:   r.URL.Path,
		logging.Page:   path,
	})

	if path != "" && path != LoginPath && path != RegisterPath {
		c.session.SetRedirectAfterLogin(path)
	}
	if nav != nil && !strings.HasPrefix(path, "/auth") {
		nav.Navigate(LoginPath)
	}
}

func (c *Client) logStatus(r *http.Request, status int, latency time.Duration) {
	extra := map[logging.ExtraKey]any{
		logging.Method:     r.Method,
		logging.Path:       r.URL.Path,
		logging.StatusCode: status,
		logging.Latency:    latency.String(),
		logging.RequestID:  r.Header.Get("X-Request-ID"),
	}

	if status >= http.StatusBadRequest {
		c.logger.Warn(logging.REST, logging.ExternalService, "request failed", extra)
		return
	}
	c.logger.Debug(logging.REST, logging.ExternalService, "request completed", extra)
}

func (c *Client) invalidate(tags ...querycache.Tag) {
	dropped := c.cache.Invalidate(tags...)

	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.String())
	}
	c.logger.Debug(logging.Cache, logging.Invalidate, "invalidated tags", map[logging.ExtraKey]any{
		logging.Tags: strings.Join(names, ","),
		"Dropped":    len(dropped),
	})
}
