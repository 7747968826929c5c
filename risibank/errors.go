package risibank

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Match them with errors.Is.
var (
	ErrTransport       = errors.New("risibank: transport failure")
	ErrRateLimited     = errors.New("risibank: rate limited")
	ErrInvalidResponse = errors.New("risibank: invalid response")
)

// Error is returned by Client.Search.
type Error struct {
	Kind       error // One of ErrTransport, ErrRateLimited, ErrInvalidResponse
	StatusCode int   // HTTP status, 0 when no response was received
	Err        error // Underlying cause, may be nil
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s (status=%d): %v", e.Kind, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s (status=%d %s)", e.Kind, e.StatusCode, http.StatusText(e.StatusCode))
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.Error()
	}
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func transportError(err error) *Error {
	return &Error{Kind: ErrTransport, Err: err}
}

func statusError(code int) *Error {
	if code == http.StatusTooManyRequests {
		return &Error{Kind: ErrRateLimited, StatusCode: code}
	}
	return &Error{Kind: ErrInvalidResponse, StatusCode: code}
}

func decodeError(code int, err error) *Error {
	return &Error{Kind: ErrInvalidResponse, StatusCode: code, Err: err}
}

// status returns the metric label for the outcome of a search.
func status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrInvalidResponse):
		return "invalid_response"
	default:
		return "transport"
	}
}
