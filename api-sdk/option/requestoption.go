package option

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hilthontt/parley/api-sdk/internal/requestconfig"
)

// RequestOption is an option for the requests made by the parley API Client
// which can be supplied to clients, services, and methods.
type RequestOption = requestconfig.RequestOption

// Middleware may mutate the request before it is sent and inspect the
// response. It must call next exactly once unless it returns early.
type Middleware = func(*http.Request, MiddlewareNext) (*http.Response, error)
type MiddlewareNext = func(*http.Request) (*http.Response, error)

// WithBaseURL returns a RequestOption that sets the BaseURL for the client.
func WithBaseURL(base string) RequestOption {
	u, err := url.Parse(base)
	if err == nil && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	return requestconfig.RequestOptionFunc(func(r *requestconfig.RequestConfig) error {
		if err != nil {
			return fmt.Errorf("requestoption: WithBaseURL failed to parse url %s", err)
		}
		r.BaseURL = u
		return nil
	})
}

// WithEnvironmentDev points the client at a locally running backend.
func WithEnvironmentDev() RequestOption {
	return requestconfig.RequestOptionFunc(func(r *requestconfig.RequestConfig) error {
		u, err := url.Parse("http://localhost:5001/api/")
		if err != nil {
			return err
		}
		r.DefaultBaseURL = u
		return nil
	})
}

// WithHTTPClient returns a RequestOption that changes the underlying http
// client used to make this request.
func WithHTTPClient(client *http.Client) RequestOption {
	return requestconfig.RequestOptionFunc(func(r *requestconfig.RequestConfig) error {
		if client == nil {
			return fmt.Errorf("requestoption: custom http client cannot be nil")
		}
		r.HTTPClient = client
		return nil
	})
}

// WithHTTPDoer swaps the transport for anything that can Do a request.
func WithHTTPDoer(doer requestconfig.HTTPDoer) RequestOption {
	return requestconfig.RequestOptionFunc(func(r *requestconfig.RequestConfig) error {
		r.CustomHTTPDoer = doer
		return nil
	})
}

// WithMiddleware returns a RequestOption that applies the given middleware
// to the requests made. Each middleware will execute in the order they were
// given.
func WithMiddleware(middlewares ...Middleware) RequestOption {
	return requestconfig.RequestOptionFunc(func(r *requestconfig.RequestConfig) error {
		r.Middlewares = append(r.Middlewares, middlewares...)
		return nil
	})
}

func WithBearerToken(token string) RequestOption {
	return requestconfig.RequestOptionFunc(func(r *requestconfig.RequestConfig) error {
		r.BearerToken = token
		return nil
	})
}

// WithTokenSource reads the bearer token at send time.
func WithTokenSource(source func() string) RequestOption {
	return requestconfig.RequestOptionFunc(func(r *requestconfig.RequestConfig) error {
		r.TokenSource = source
		return nil
	})
}

// WithHeader returns a RequestOption that sets the header value to the
// associated key. It overwrites any value if there was one already present.
func WithHeader(key, value string) RequestOption {
	return requestconfig.RequestOptionFunc(func(r *requestconfig.RequestConfig) error {
		r.Request.Header.Set(key, value)
		return nil
	})
}

// WithHeaderDel returns a RequestOption that deletes the header value(s)
// associated with the given key.
func WithHeaderDel(key string) RequestOption {
	return requestconfig.RequestOptionFunc(func(r *requestconfig.RequestConfig) error {
		r.Request.Header.Del(key)
		return nil
	})
}

// WithQuery adds a query parameter to the request URL.
func WithQuery(key, value string) RequestOption {
	return requestconfig.RequestOptionFunc(func(r *requestconfig.RequestConfig) error {
		query := r.Request.URL.Query()
		query.Set(key, value)
		r.Request.URL.RawQuery = query.Encode()
		return nil
	})
}

// WithRequestTimeout bounds a single attempt, including reading the body.
func WithRequestTimeout(dur time.Duration) RequestOption {
	return requestconfig.RequestOptionFunc(func(r *requestconfig.RequestConfig) error {
		r.RequestTimeout = dur
		return nil
	})
}

// WithResponseInto stores the raw *http.Response of the request in dst.
func WithResponseInto(dst **http.Response) RequestOption {
	return requestconfig.RequestOptionFunc(func(r *requestconfig.RequestConfig) error {
		r.ResponseInto = dst
		return nil
	})
}
