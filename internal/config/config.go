// Package config loads the bot configuration.
//
// Values are layered, later sources winning: built-in defaults, the
// Secrets.toml secret store, the .env file, then the process environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ptondereau/risibot/receiver"
	"github.com/ptondereau/risibot/risibank"
	"github.com/ptondereau/risibot/sender"
	"github.com/ptondereau/risibot/tg"
)

// Configuration keys.
const (
	KeyToken           = "TELOXIDE_TOKEN"
	KeyWebhookURL      = "WEBHOOK_URL"
	KeyPort            = "PORT"
	KeyWebhookSecret   = "WEBHOOK_SECRET"
	KeyRisibankURL     = "RISIBANK_BASE_URL"
	KeyTelegramURL     = "TELEGRAM_API_BASE_URL"
	KeyLogLevel        = "LOG_LEVEL"
	KeyLogFormat       = "LOG_FORMAT"
	KeyShutdownTimeout = "SHUTDOWN_TIMEOUT"
	KeySecretsFile     = "SECRETS_FILE"
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config holds the bot configuration.
type Config struct {
	Token           tg.SecretToken
	WebhookURL      *url.URL
	Port            int
	WebhookSecret   string
	SecretGenerated bool // WebhookSecret was generated at startup

	RisibankBaseURL string
	TelegramBaseURL string

	LogLevel  slog.Level
	LogFormat string

	ShutdownTimeout time.Duration
}

// Sources tells Load where to read values from.
type Sources struct {
	SecretsFile string
	DotEnvFile  string
	LookupEnv   func(key string) (string, bool)
}

// DefaultSources reads Secrets.toml (or SECRETS_FILE), .env and the process
// environment.
func DefaultSources() Sources {
	secrets := "Secrets.toml"
	if v, ok := os.LookupEnv(KeySecretsFile); ok && v != "" {
		secrets = v
	}
	return Sources{
		SecretsFile: secrets,
		DotEnvFile:  ".env",
		LookupEnv:   os.LookupEnv,
	}
}

// Load reads the configuration from the default sources.
func Load() (*Config, error) {
	return LoadFrom(DefaultSources())
}

// LoadFrom reads the configuration from src.
func LoadFrom(src Sources) (*Config, error) {
	values := map[string]string{
		KeyPort:            "8080",
		KeyRisibankURL:     risibank.DefaultBaseURL,
		KeyTelegramURL:     sender.DefaultBaseURL,
		KeyLogLevel:        "info",
		KeyLogFormat:       FormatText,
		KeyShutdownTimeout: "5s",
	}

	if src.SecretsFile != "" {
		secrets, err := readSecrets(src.SecretsFile)
		if err != nil {
			return nil, err
		}
		for k, v := range secrets {
			values[k] = v
		}
	}

	if src.DotEnvFile != "" {
		dotenv, err := readDotEnv(src.DotEnvFile)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", src.DotEnvFile, err)
		}
		for k, v := range dotenv {
			values[k] = v
		}
	}

	if src.LookupEnv != nil {
		for _, key := range []string{
			KeyToken, KeyWebhookURL, KeyPort, KeyWebhookSecret, KeyRisibankURL,
			KeyTelegramURL, KeyLogLevel, KeyLogFormat, KeyShutdownTimeout,
		} {
			if v, ok := src.LookupEnv(key); ok && v != "" {
				values[key] = v
			}
		}
	}

	return parse(values)
}

func parse(values map[string]string) (*Config, error) {
	cfg := &Config{
		Token:           tg.SecretToken(strings.TrimSpace(values[KeyToken])),
		WebhookSecret:   values[KeyWebhookSecret],
		RisibankBaseURL: strings.TrimRight(values[KeyRisibankURL], "/"),
		TelegramBaseURL: strings.TrimRight(values[KeyTelegramURL], "/"),
		LogFormat:       strings.ToLower(values[KeyLogFormat]),
	}

	if cfg.Token.IsEmpty() {
		return nil, tg.NewConfigError(KeyToken, "required")
	}
	if !cfg.Token.LooksValid() {
		return nil, tg.NewConfigError(KeyToken, "must look like <bot id>:<secret>")
	}

	webhookURL, err := parseWebhookURL(values[KeyWebhookURL])
	if err != nil {
		return nil, err
	}
	cfg.WebhookURL = webhookURL

	port, err := strconv.Atoi(values[KeyPort])
	if err != nil || port < 1 || port > 65535 {
		return nil, tg.NewConfigError(KeyPort, "must be a port number between 1 and 65535")
	}
	cfg.Port = port

	if cfg.WebhookSecret == "" {
		secret, err := receiver.GenerateSecret()
		if err != nil {
			return nil, fmt.Errorf("generate webhook secret: %w", err)
		}
		cfg.WebhookSecret = secret
		cfg.SecretGenerated = true
	} else if err := receiver.ValidateSecret(cfg.WebhookSecret); err != nil {
		return nil, err
	}

	for key, base := range map[string]string{KeyRisibankURL: cfg.RisibankBaseURL, KeyTelegramURL: cfg.TelegramBaseURL} {
		u, err := url.Parse(base)
		if err != nil || !u.IsAbs() || u.Host == "" {
			return nil, tg.NewConfigError(key, "must be an absolute URL")
		}
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(values[KeyLogLevel])); err != nil {
		return nil, tg.NewConfigError(KeyLogLevel, "must be debug, info, warn or error")
	}

	switch cfg.LogFormat {
	case FormatText, FormatJSON:
	default:
		return nil, tg.NewConfigError(KeyLogFormat, "must be 'text' or 'json'")
	}

	timeout, err := time.ParseDuration(values[KeyShutdownTimeout])
	if err != nil || timeout <= 0 {
		return nil, tg.NewConfigError(KeyShutdownTimeout, "must be a positive duration")
	}
	cfg.ShutdownTimeout = timeout

	return cfg, nil
}

func parseWebhookURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, tg.NewConfigError(KeyWebhookURL, "required")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, tg.NewConfigError(KeyWebhookURL, "must be an absolute URL")
	}
	if u.Scheme != "https" {
		return nil, tg.NewConfigError(KeyWebhookURL, "must start with https://")
	}
	if _, err := receiver.WebhookPath(raw); err != nil {
		return nil, err
	}
	return u, nil
}

// readSecrets decodes a flat TOML table of string, integer or boolean values.
// A missing file is not an error.
func readSecrets(path string) (map[string]string, error) {
	raw := make(map[string]any)
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	values := make(map[string]string, len(raw))
	for k, v := range raw {
		switch v := v.(type) {
		case string:
			values[k] = v
		case int64, bool, float64:
			values[k] = fmt.Sprint(v)
		default:
			return nil, tg.NewConfigError(k, fmt.Sprintf("unsupported value type %T in %s", v, path))
		}
	}
	return values, nil
}

// ListenAddr is the loopback address the webhook server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("127.0.0.1:%d", c.Port)
}

// NewLogger builds the process logger from the configured level and format.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
