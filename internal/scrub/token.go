// Package scrub removes the bot token from errors before they reach logs.
package scrub

import (
	"strings"

	"github.com/ptondereau/risibot/tg"
)

// TokenFromError removes the bot token from error messages.
// http.Client.Do() includes the request URL, and so the token, in its error
// strings. The original error stays reachable through Unwrap().
func TokenFromError(err error, token tg.SecretToken) error {
	if err == nil || token.IsEmpty() {
		return err
	}
	msg := err.Error()
	if !strings.Contains(msg, token.Value()) {
		return err
	}
	return &scrubbedError{msg: token.Redact(msg), err: err}
}

type scrubbedError struct {
	msg string
	err error
}

func (e *scrubbedError) Error() string { return e.msg }
func (e *scrubbedError) Unwrap() error { return e.err }
