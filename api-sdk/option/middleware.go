package option

import (
	"net/http"
	"net/http/httputil"
	"regexp"
	"time"
)

var sensitiveHeaderRegex = regexp.MustCompile(`(?i)^(Authorization|Cookie|Set-Cookie|X-Api-Key): .+`)

func redactSensitiveHeaders(s string) string {
	return sensitiveHeaderRegex.ReplaceAllString(s, "$1: [REDACTED]")
}

// Printf is satisfied by log.Printf and by the Debugf method of the app
// logger.
type Printf = func(format string, args ...any)

// WithDebugLog dumps every request and response with credentials redacted.
func WithDebugLog(printf Printf) RequestOption {
	if printf == nil {
		return WithMiddleware()
	}

	return WithMiddleware(func(r *http.Request, next MiddlewareNext) (*http.Response, error) {
		if dump, err := httputil.DumpRequestOut(r, true); err == nil {
			printf("REQUEST:\n%s\n", redactSensitiveHeaders(string(dump)))
		}

		resp, err := next(r)

		if resp != nil {
			if dump, err := httputil.DumpResponse(resp, true); err == nil {
				printf("RESPONSE:\n%s\n", redactSensitiveHeaders(string(dump)))
			}
		}

		if err != nil {
			printf("REQUEST ERROR: %v", err)
		}

		return resp, err
	})
}

// WithStatusHook calls hook with the request and status of every completed
// round trip, after the response has arrived and before the body is read.
func WithStatusHook(hook func(r *http.Request, status int, latency time.Duration)) RequestOption {
	return WithMiddleware(func(r *http.Request, next MiddlewareNext) (*http.Response, error) {
		start := time.Now()
		resp, err := next(r)
		if resp != nil {
			hook(r, resp.StatusCode, time.Since(start))
		}
		return resp, err
	})
}
