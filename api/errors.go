package api

import (
	"errors"
	"fmt"
)

var (
	ErrTimeout            = errors.New("roomboss request timed out")
	ErrMissingCredentials = errors.New("roomboss credentials not configured. Set ROOMBOSS_USERNAME/ROOMBOSS_PASSWORD or run 'roomboss auth login'")
)

// HTTPError is returned for any non-2xx response.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("request failed: %s", e.Status)
	}
	return fmt.Sprintf("request failed: %s: %s", e.Status, e.Body)
}

func IsHTTPStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}
