package apisdk

import (
	"errors"
	"net/http"

	"github.com/hilthontt/parley/api-sdk/internal/apierror"
)

var (
	ErrMissingIDParameter       = errors.New("missing required id parameter")
	ErrMissingRoomIDParameter   = errors.New("missing required room id parameter")
	ErrMissingMemberIDParameter = errors.New("missing required member id parameter")
	ErrMissingFilePath          = errors.New("missing required file path")
)

// Error is returned for every non-2xx response.
type Error = apierror.Error

func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// StatusCode extracts the HTTP status of an API error, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// ErrorMessage returns the server's explanation for err when there is one, and
// fallback otherwise.
func ErrorMessage(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
