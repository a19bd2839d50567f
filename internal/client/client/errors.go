package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found on server")
	ErrRejected     = errors.New("rejected by server")
)

// RejectedError is a 4xx answer that retrying the same request cannot fix.
type RejectedError struct {
	StatusCode int
	Body       string
}

func (e *RejectedError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("rejected by server: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("rejected by server: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

func (e *RejectedError) Is(target error) bool {
	return target == ErrRejected
}

// mapStatus converts a non-2xx status to the error taxonomy.
func mapStatus(code int, body string) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return ErrUnauthorized
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests, code >= 500:
		return fmt.Errorf("%w: status %d", ErrUnavailable, code)
	default:
		return &RejectedError{StatusCode: code, Body: body}
	}
}
