package api

import (
	"errors"
	"fmt"
)

// ErrUnauthorized indicates a missing or rejected bearer token.
var ErrUnauthorized = errors.New("not logged in or token expired; run `speakflow login`")

// APIError is a non-2xx response from the speakflow service, as opposed to
// a transport failure reaching it. Callers distinguish the two with
// errors.As.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("speakflow api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("speakflow api: status %d: %s", e.StatusCode, e.Detail)
}

// IsNotFound reports whether err is a 404 from the service.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}
