package tg

import (
	"log/slog"
	"strings"
)

const redacted = "[REDACTED]"

// SecretToken wraps a bot token to prevent accidental logging.
// Implements fmt.Stringer, fmt.GoStringer, slog.LogValuer, and encoding.TextMarshaler.
type SecretToken string

// Value returns the actual token value.
// Only use this when building Bot API URLs.
func (s SecretToken) Value() string { return string(s) }

// String returns a redacted placeholder (fmt.Stringer).
func (s SecretToken) String() string { return redacted }

// GoString returns redacted for %#v (fmt.GoStringer).
func (s SecretToken) GoString() string { return `tg.SecretToken("[REDACTED]")` }

// LogValue returns a redacted value for slog (slog.LogValuer).
func (s SecretToken) LogValue() slog.Value {
	return slog.StringValue(redacted)
}

// MarshalText returns redacted bytes (encoding.TextMarshaler).
func (s SecretToken) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}

// IsEmpty returns true if the token is empty.
func (s SecretToken) IsEmpty() bool {
	return s == ""
}

// Redact replaces every occurrence of the token in text.
// Bot API URLs embed the token in the path, so anything derived from a
// request URL goes through here before it is logged or returned.
func (s SecretToken) Redact(text string) string {
	if s.IsEmpty() {
		return text
	}
	return strings.ReplaceAll(text, string(s), redacted)
}

// LooksValid reports whether the token has the "<bot id>:<secret>" shape.
func (s SecretToken) LooksValid() bool {
	id, secret, ok := strings.Cut(string(s), ":")
	if !ok || id == "" || secret == "" {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
