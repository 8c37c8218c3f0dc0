package session

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidURL       = errors.New("invalid request url")
	ErrMissingLocation  = errors.New("redirect without location header")
	ErrInvalidLocation  = errors.New("redirect with invalid location header")
	ErrTooManyRedirects = errors.New("too many redirects")
	ErrNoResponse       = errors.New("transport returned no response")
)

// TransportError is returned when the transport failed to deliver a request.
// It unwraps to the transport's own error.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("session: %s %s: %s", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RedirectError is returned when a redirect chain cannot be followed. It
// unwraps to ErrMissingLocation, ErrInvalidLocation or ErrTooManyRedirects.
type RedirectError struct {
	StatusCode int
	URL        string
	Location   string
	Err        error
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("session: %d from %s: %s", e.StatusCode, e.URL, e.Err)
}

func (e *RedirectError) Unwrap() error {
	return e.Err
}
