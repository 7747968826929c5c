package receiver

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/ptondereau/risibot/tg"
)

// SecretHeader carries the secret_token registered with setWebhook.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// Config holds receiver configuration.
type Config struct {
	// Webhook registration
	WebhookURL         string
	WebhookSecret      string
	AllowedUpdates     []string
	DropPendingUpdates bool

	// Inbound limits
	RateLimitRequests float64 // Requests per second
	RateLimitBurst    int     // Burst size
	MaxBodySize       int64   // Max webhook body size

	// Hand-off to the dispatcher. An update that cannot be queued within
	// the timeout is dropped and still acknowledged.
	UpdateBufferSize      int
	UpdateDeliveryTimeout time.Duration
	OnUpdateDropped       func(updateID int, reason string)

	// Circuit breaker
	BreakerMaxRequests uint32
	BreakerInterval    time.Duration
	BreakerTimeout     time.Duration
	BreakerThreshold   uint32

	// Server timeouts
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		AllowedUpdates:        []string{string(tg.UpdateInlineQuery)},
		DropPendingUpdates:    true,
		RateLimitRequests:     50,
		RateLimitBurst:        100,
		MaxBodySize:           1 << 20, // 1MB
		UpdateBufferSize:      100,
		UpdateDeliveryTimeout: time.Second,
		BreakerMaxRequests:    5,
		BreakerInterval:       2 * time.Minute,
		BreakerTimeout:        30 * time.Second,
		BreakerThreshold:      5,
		ReadTimeout:           10 * time.Second,
		ReadHeaderTimeout:     2 * time.Second,
		WriteTimeout:          15 * time.Second,
		IdleTimeout:           120 * time.Second,
	}
}

// GenerateSecret returns a random 64 character hex secret token.
func GenerateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// ValidateSecret checks the Bot API constraints on secret_token:
// 1-256 characters from A-Z, a-z, 0-9, _ and -.
func ValidateSecret(secret string) error {
	if secret == "" || len(secret) > 256 {
		return tg.NewConfigError("WEBHOOK_SECRET", "must be 1-256 characters")
	}
	for _, r := range secret {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return tg.NewConfigError("WEBHOOK_SECRET", "only A-Z, a-z, 0-9, _ and - are allowed")
		}
	}
	return nil
}

// WebhookPath returns the path Telegram posts updates to for rawURL, "/"
// when the URL has none. The path is served as a literal route, so it may
// only hold unreserved characters, sub-delimiters, ':', '@' and '/' and
// must already be clean.
func WebhookPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return "", tg.NewConfigError("WEBHOOK_URL", "must be an absolute URL")
	}
	if u.RawPath != "" {
		return "", tg.NewConfigError("WEBHOOK_URL", "path must not be percent-encoded")
	}
	p := u.Path
	if p == "" {
		return "/", nil
	}
	for _, r := range p {
		if !isPathChar(r) {
			return "", tg.NewConfigError("WEBHOOK_URL", fmt.Sprintf("path character %q is not allowed", r))
		}
	}
	clean := path.Clean(p)
	if strings.HasSuffix(p, "/") && clean != "/" {
		clean += "/"
	}
	if clean != p {
		return "", tg.NewConfigError("WEBHOOK_URL", "path must be clean")
	}
	return p, nil
}

func isPathChar(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("/-._~!$&'()*+,;=:@", r)
}
