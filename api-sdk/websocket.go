package apisdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hilthontt/parley/api-sdk/internal/requestconfig"
	"github.com/hilthontt/parley/api-sdk/option"
)

// Frame is the envelope of every realtime message in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type RealtimeService struct {
	Options []option.RequestOption
}

func NewRealtimeService(opts ...option.RequestOption) *RealtimeService {
	r := &RealtimeService{opts}
	return r
}

// URL derives the realtime endpoint from the REST base URL: the scheme
// becomes ws(s), a trailing /api segment is dropped and path is appended.
func (r *RealtimeService) URL(ctx context.Context, path string, opts ...option.RequestOption) (*url.URL, error) {
	opts = slices.Concat(r.Options, opts)

	cfg, err := requestconfig.NewRequestConfig(ctx, http.MethodGet, "", nil, nil, opts...)
	if err != nil {
		return nil, err
	}

	base := cfg.ResolvedBaseURL()
	if base == nil {
		return nil, fmt.Errorf("realtime: base url is not set")
	}

	return RealtimeURL(base.String(), path)
}

// RealtimeURL converts an http(s) API base into the websocket endpoint.
func RealtimeURL(base, path string) (*url.URL, error) {
	wsURL := base
	if after, ok := strings.CutPrefix(base, "https://"); ok {
		wsURL = "wss://" + after
	} else if after, ok := strings.CutPrefix(base, "http://"); ok {
		wsURL = "ws://" + after
	}

	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("realtime: invalid url: %w", err)
	}

	trimmed := strings.TrimSuffix(u.Path, "/")
	trimmed = strings.TrimSuffix(trimmed, "/api")
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u.Path = trimmed + path

	return u, nil
}

// Dial opens the realtime connection. The token travels both as a bearer
// header and as the token query parameter for servers that read only one.
func (r *RealtimeService) Dial(ctx context.Context, endpoint *url.URL, token string, handshakeTimeout time.Duration) (*websocket.Conn, error) {
	if endpoint == nil {
		return nil, fmt.Errorf("realtime: endpoint is nil")
	}
	if handshakeTimeout <= 0 {
		handshakeTimeout = 10 * time.Second
	}

	u := *endpoint
	header := http.Header{}
	if token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
		header.Set("Authorization", "Bearer "+token)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
		Proxy:            http.ProxyFromEnvironment,
	}

	conn, resp, err := dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, &Error{StatusCode: resp.StatusCode, Message: "unauthorized", Response: resp}
		}
		return nil, fmt.Errorf("failed to connect to websocket: %w", err)
	}

	return conn, nil
}
