package azdevops

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMalformedResponse is returned when the API answers with a body that does
// not decode into the expected shape.
var ErrMalformedResponse = errors.New("malformed response")

// APIError is a non-2xx answer from Azure DevOps.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

// IsAuthorization reports whether the service rejected the credentials.
func (e *APIError) IsAuthorization() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsAuthorizationError reports whether err is, or wraps, a rejected credential.
func IsAuthorizationError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsAuthorization()
}
