package transport

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized is returned for 401 responses, after the redirect to login.
	ErrUnauthorized = errors.New("transport: unauthorized")
	// ErrForbidden is returned for 403 responses.
	ErrForbidden = errors.New("transport: forbidden")
	// ErrServer is returned for 5xx responses.
	ErrServer = errors.New("transport: server error")
)

// StatusError is a response the runtime does not treat as a page or a
// validation outcome.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("transport: unexpected status %d %s", e.Code, http.StatusText(e.Code))
}

func (e *StatusError) Unwrap() error {
	switch {
	case e.Code == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.Code == http.StatusForbidden:
		return ErrForbidden
	case e.Code >= 500:
		return ErrServer
	}
	return nil
}
