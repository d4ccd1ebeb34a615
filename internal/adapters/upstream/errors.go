package upstream

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUpstream        = errors.New("statistics api request failed")
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
)

// StatusError is a non-2xx answer from the statistics API.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error: %d %s", e.StatusCode, e.Message)
}

// Unwrap lets errors.Is match ErrNotFound for 404s and ErrUpstream otherwise.
func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return ErrUpstream
}

// Retryable reports whether the same request may succeed later.
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}
