package requestconfig

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hilthontt/parley/api-sdk/internal"
	"github.com/hilthontt/parley/api-sdk/internal/apierror"
	"github.com/hilthontt/parley/api-sdk/internal/apiquery"
)

// This interface is primarily used to describe an [*http.Client], but also
// supports custom HTTP implementations.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RequestConfig represents all the state related to one request.
//
// Editing the variables inside RequestConfig directly is unstable api. Prefer
// composing the RequestOption instead if possible.
type RequestConfig struct {
	RequestTimeout time.Duration
	Context        context.Context
	Request        *http.Request
	BaseURL        *url.URL
	// DefaultBaseURL will be used if BaseURL is not explicitly overridden using
	// WithBaseURL.
	DefaultBaseURL *url.URL
	CustomHTTPDoer HTTPDoer
	HTTPClient     *http.Client
	Middlewares    []middleware
	BearerToken    string
	// TokenSource is consulted on every request when BearerToken is empty, so a
	// long-lived client follows session changes.
	TokenSource func() string
	// If ResponseBodyInto not nil, then we will attempt to deserialize into
	// ResponseBodyInto. If Destination is a []byte, then it will return the body as
	// is.
	ResponseBodyInto any
	// ResponseInto copies the \*http.Response of the corresponding request into the
	// given address
	ResponseInto **http.Response
	Body         io.Reader
}

// middleware is exactly the same type as the Middleware type found in the [option] package,
// but it is redeclared here for circular dependency issues.
type middleware = func(*http.Request, middlewareNext) (*http.Response, error)

// middlewareNext is exactly the same type as the MiddlewareNext type found in the [option] package,
// but it is redeclared here for circular dependency issues.
type middlewareNext = func(*http.Request) (*http.Response, error)

type RequestOption interface {
	Apply(*RequestConfig) error
}

type RequestOptionFunc func(*RequestConfig) error
type PreRequestOptionFunc func(*RequestConfig) error

func (s RequestOptionFunc) Apply(r *RequestConfig) error {
	return s(r)
}

func (s PreRequestOptionFunc) Apply(r *RequestConfig) error {
	return s(r)
}

func getDefaultHeaders() map[string]string {
	return map[string]string{
		"User-Agent": fmt.Sprintf("Parley/Client %s", internal.PackageVersion),
	}
}

func getNormalizedOS() string {
	switch runtime.GOOS {
	case "darwin":
		return "MacOS"
	case "windows":
		return "Windows"
	case "freebsd":
		return "FreeBSD"
	case "openbsd":
		return "OpenBSD"
	case "linux":
		return "Linux"
	default:
		return fmt.Sprintf("Other:%s", runtime.GOOS)
	}
}

func getNormalizedArchitecture() string {
	switch runtime.GOARCH {
	case "386":
		return "x32"
	case "amd64":
		return "x64"
	case "arm":
		return "arm"
	case "arm64":
		return "arm64"
	default:
		return fmt.Sprintf("other:%s", runtime.GOARCH)
	}
}

func getPlatformProperties() map[string]string {
	return map[string]string{
		"X-Parley-Lang":            "go",
		"X-Parley-Package-Version": internal.PackageVersion,
		"X-Parley-OS":              getNormalizedOS(),
		"X-Parley-Arch":            getNormalizedArchitecture(),
		"X-Parley-Runtime-Version": runtime.Version(),
	}
}

// NewRequestConfig builds the request for method and path. A GET body that
// implements [apiquery.Queryer] becomes the query string, an [io.Reader] is
// sent verbatim, and anything else is encoded as JSON.
func NewRequestConfig(ctx context.Context, method string, path string, body any, dst any, opts ...RequestOption) (*RequestConfig, error) {
	var reader io.Reader
	contentType := ""

	u, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return nil, err
	}

	switch b := body.(type) {
	case nil:
	case apiquery.Queryer:
		if method == http.MethodGet || method == http.MethodDelete {
			q := u.Query()
			for k, vs := range b.URLQuery() {
				for _, v := range vs {
					q.Add(k, v)
				}
			}
			u.RawQuery = q.Encode()
		} else {
			buf, err := json.Marshal(b)
			if err != nil {
				return nil, err
			}
			reader = bytes.NewReader(buf)
			contentType = "application/json"
		}
	case io.Reader:
		reader = b
	case []byte:
		reader = bytes.NewReader(b)
		contentType = "application/json"
	default:
		buf, err := json.Marshal(b)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(buf)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	for k, v := range getDefaultHeaders() {
		req.Header.Add(k, v)
	}
	for k, v := range getPlatformProperties() {
		req.Header.Add(k, v)
	}

	cfg := RequestConfig{
		HTTPClient:       http.DefaultClient,
		Context:          ctx,
		Request:          req,
		Body:             reader,
		ResponseBodyInto: dst,
	}

	if err := cfg.Apply(opts...); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (cfg *RequestConfig) Apply(opts ...RequestOption) error {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.Apply(cfg); err != nil {
			return err
		}
	}
	return nil
}

func (cfg *RequestConfig) baseURL() *url.URL {
	if cfg.BaseURL != nil {
		return cfg.BaseURL
	}
	return cfg.DefaultBaseURL
}

// ResolvedBaseURL is the base URL requests are resolved against.
func (cfg *RequestConfig) ResolvedBaseURL() *url.URL {
	return cfg.baseURL()
}

func (cfg *RequestConfig) Execute() (err error) {
	base := cfg.baseURL()
	if base == nil {
		return fmt.Errorf("requestconfig: base url is not set")
	}
	cfg.Request.URL = base.ResolveReference(cfg.Request.URL)

	if cfg.BearerToken == "" && cfg.TokenSource != nil {
		cfg.BearerToken = cfg.TokenSource()
	}
	if cfg.BearerToken != "" {
		cfg.Request.Header.Set("Authorization", "Bearer "+cfg.BearerToken)
	}

	if cfg.Body != nil {
		if rc, ok := cfg.Body.(io.ReadCloser); ok {
			cfg.Request.Body = rc
		} else {
			cfg.Request.Body = io.NopCloser(cfg.Body)
		}
		if l, ok := cfg.Body.(interface{ Len() int }); ok {
			cfg.Request.ContentLength = int64(l.Len())
		}
	}

	ctx := cfg.Request.Context()
	if cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.RequestTimeout)
		defer cancel()
	}
	req := cfg.Request.WithContext(ctx)

	handler := cfg.HTTPClient.Do
	if cfg.CustomHTTPDoer != nil {
		handler = cfg.CustomHTTPDoer.Do
	}
	for i := len(cfg.Middlewares) - 1; i >= 0; i-- {
		handler = applyMiddleware(cfg.Middlewares[i], handler)
	}

	res, err := handler(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if cfg.ResponseInto != nil {
		*cfg.ResponseInto = res
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("requestconfig: failed to read response body: %w", err)
	}

	if res.StatusCode >= 400 {
		return apierror.New(req, res, body)
	}

	if cfg.ResponseBodyInto == nil || len(body) == 0 {
		return nil
	}

	switch dst := cfg.ResponseBodyInto.(type) {
	case *[]byte:
		*dst = body
		return nil
	default:
		if err := json.Unmarshal(body, dst); err != nil {
			return fmt.Errorf("error parsing response json: %w", err)
		}
	}

	return nil
}

func applyMiddleware(middleware middleware, next middlewareNext) middlewareNext {
	return func(req *http.Request) (res *http.Response, err error) {
		return middleware(req, next)
	}
}

func ExecuteNewRequest(ctx context.Context, method string, path string, body any, dst any, opts ...RequestOption) error {
	cfg, err := NewRequestConfig(ctx, method, path, body, dst, opts...)
	if err != nil {
		return err
	}
	return cfg.Execute()
}
