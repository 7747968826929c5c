package tg

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors - use with errors.Is()
var (
	// API errors
	ErrUnauthorized    = errors.New("risibot: unauthorized (invalid token)")
	ErrForbidden       = errors.New("risibot: forbidden")
	ErrNotFound        = errors.New("risibot: not found")
	ErrTooManyRequests = errors.New("risibot: too many requests")

	// Inline query errors
	ErrQueryTooOld      = errors.New("risibot: inline query is too old")
	ErrResultIDInvalid  = errors.New("risibot: invalid inline result id")
	ErrDuplicateResults = errors.New("risibot: duplicate inline result id")
	ErrWebhookRejected  = errors.New("risibot: webhook rejected")

	// Client errors
	ErrCircuitOpen      = errors.New("risibot: circuit breaker open")
	ErrResponseTooLarge = errors.New("risibot: response too large")

	// Validation errors
	ErrInvalidToken  = errors.New("risibot: invalid bot token format")
	ErrInvalidConfig = errors.New("risibot: invalid configuration")
)

// ResponseParameters contains information about why a request was unsuccessful.
type ResponseParameters struct {
	MigrateToChatID int64 `json:"migrate_to_chat_id,omitempty"`
	RetryAfter      int   `json:"retry_after,omitempty"`
}

// APIError represents an error response from Telegram API.
// Use errors.As() to extract details, errors.Is() to match sentinels.
type APIError struct {
	Code        int
	Description string
	RetryAfter  time.Duration
	Method      string // API method that failed
	cause       error  // Underlying sentinel for errors.Is()
}

func (e *APIError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("risibot: %s failed: %s (code=%d, retry_after=%s)",
			e.Method, e.Description, e.Code, e.RetryAfter)
	}
	return fmt.Sprintf("risibot: %s failed: %s (code=%d)", e.Method, e.Description, e.Code)
}

// Unwrap returns the underlying sentinel error for errors.Is() support.
func (e *APIError) Unwrap() error { return e.cause }

// IsServerError reports a 5xx failure on Telegram's side.
func (e *APIError) IsServerError() bool {
	return e.Code >= 500 && e.Code <= 599
}

// NewAPIError creates an APIError with automatic sentinel detection.
func NewAPIError(method string, code int, description string) *APIError {
	return &APIError{
		Code:        code,
		Description: description,
		Method:      method,
		cause:       DetectSentinel(code, description),
	}
}

// NewAPIErrorWithRetry creates an APIError with retry information.
func NewAPIErrorWithRetry(method string, code int, description string, retryAfter time.Duration) *APIError {
	err := NewAPIError(method, code, description)
	err.RetryAfter = retryAfter
	return err
}

// DetectSentinel maps Telegram error codes/descriptions to sentinel errors.
// Description-based detection wins over the HTTP status code.
func DetectSentinel(code int, desc string) error {
	descLower := strings.ToLower(desc)
	switch {
	case strings.Contains(descLower, "query is too old"),
		strings.Contains(descLower, "query id is invalid"):
		return ErrQueryTooOld
	case strings.Contains(descLower, "result_id_invalid"):
		return ErrResultIDInvalid
	case strings.Contains(descLower, "result_id_duplicate"):
		return ErrDuplicateResults
	case strings.Contains(descLower, "bad webhook"):
		return ErrWebhookRejected
	}

	switch code {
	case 401:
		return ErrUnauthorized
	case 403:
		return ErrForbidden
	case 404:
		return ErrNotFound
	case 429:
		return ErrTooManyRequests
	}

	return nil
}

// ValidationError represents a request validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("risibot: validation: %s - %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Key     string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("risibot: config: %s - %s", e.Key, e.Message)
}

// Unwrap lets callers match any configuration problem with ErrInvalidConfig.
func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

// NewConfigError creates a new ConfigError.
func NewConfigError(key, message string) *ConfigError {
	return &ConfigError{Key: key, Message: message}
}
