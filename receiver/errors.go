package receiver

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	ErrWebhookURLRequired = errors.New("risibot/receiver: webhook URL required")

	// Webhook errors
	ErrUnauthorized     = errors.New("risibot/receiver: unauthorized")
	ErrMethodNotAllowed = errors.New("risibot/receiver: method not allowed")
	ErrBodyTooLarge     = errors.New("risibot/receiver: request body too large")
)

// WebhookError represents an HTTP error response.
type WebhookError struct {
	Code    int
	Message string
	Err     error
}

func (e *WebhookError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("webhook error %d: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("webhook error %d: %s", e.Code, e.Message)
}

func (e *WebhookError) Unwrap() error {
	return e.Err
}
