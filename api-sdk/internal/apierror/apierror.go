package apierror

import (
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// Error represents a non-2xx response from the API. Message carries the
// server's human-readable explanation when the body had one.
type Error struct {
	StatusCode int
	Message    string
	RawJSON    string
	Request    *http.Request
	Response   *http.Response
}

func (r *Error) Error() string {
	method, path := "", ""
	if r.Request != nil {
		method = r.Request.Method
		path = r.Request.URL.Path
	}
	return fmt.Sprintf("%s %q: %d %s", method, path, r.StatusCode, r.Message)
}

// New builds an Error from a response and its already drained body.
func New(req *http.Request, res *http.Response, body []byte) *Error {
	e := &Error{
		StatusCode: res.StatusCode,
		Request:    req,
		Response:   res,
		RawJSON:    string(body),
	}

	if gjson.ValidBytes(body) {
		if msg := gjson.GetBytes(body, "message"); msg.Exists() && msg.String() != "" {
			e.Message = msg.String()
		} else if msg := gjson.GetBytes(body, "error"); msg.Type == gjson.String {
			e.Message = msg.String()
		}
	}

	if e.Message == "" {
		e.Message = http.StatusText(res.StatusCode)
	}

	return e
}
