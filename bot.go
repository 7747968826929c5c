package risibot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/ptondereau/risibot/inline"
	"github.com/ptondereau/risibot/internal/httpclient"
	"github.com/ptondereau/risibot/internal/metrics"
	"github.com/ptondereau/risibot/receiver"
	"github.com/ptondereau/risibot/risibank"
	"github.com/ptondereau/risibot/sender"
	"github.com/ptondereau/risibot/tg"
)

// Bot answers inline queries received over a Telegram webhook with stickers
// from the RisiBank catalog.
type Bot struct {
	token    tg.SecretToken
	logger   *slog.Logger
	metrics  *metrics.Metrics
	telegram *http.Client
	sender   *sender.Client
	catalog  *risibank.Client
	webhook  *receiver.WebhookHandler
	health   *receiver.HealthHandler
	dispatch *dispatcher
	updates  chan tg.Update
	config   botConfig
}

type botConfig struct {
	// Webhook settings
	webhookURL      string
	webhookSecret   string
	webhookPath     string
	listenAddr      string
	deleteOnStop    bool
	receiverConfig  receiver.Config
	telegramBaseURL string

	// Catalog settings
	catalogOptions []risibank.Option

	// Sender settings
	senderOptions []sender.Option

	// Lifecycle
	handlerTimeout  time.Duration
	shutdownTimeout time.Duration

	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures the Bot.
type Option func(*botConfig)

// WithWebhook sets the public webhook URL and the secret_token Telegram
// echoes back on every delivery.
func WithWebhook(url, secret string) Option {
	return func(c *botConfig) {
		c.webhookURL = url
		c.webhookSecret = secret
	}
}

// WithListenAddr sets the address Run binds to.
func WithListenAddr(addr string) Option {
	return func(c *botConfig) {
		c.listenAddr = addr
	}
}

// WithTelegramBaseURL sets the Bot API base URL.
func WithTelegramBaseURL(url string) Option {
	return func(c *botConfig) {
		c.telegramBaseURL = strings.TrimRight(url, "/")
	}
}

// WithCatalogBaseURL sets the RisiBank API base URL.
func WithCatalogBaseURL(url string) Option {
	return WithCatalogOptions(risibank.WithBaseURL(url))
}

// WithCatalogOptions passes options to the catalog client.
func WithCatalogOptions(opts ...risibank.Option) Option {
	return func(c *botConfig) {
		c.catalogOptions = append(c.catalogOptions, opts...)
	}
}

// WithSenderOptions passes options to the Bot API client.
func WithSenderOptions(opts ...sender.Option) Option {
	return func(c *botConfig) {
		c.senderOptions = append(c.senderOptions, opts...)
	}
}

// WithReceiverConfig replaces the webhook receiver settings.
func WithReceiverConfig(cfg receiver.Config) Option {
	return func(c *botConfig) {
		c.receiverConfig = cfg
	}
}

// WithHandlerTimeout bounds the work done for a single inline query.
func WithHandlerTimeout(d time.Duration) Option {
	return func(c *botConfig) {
		c.handlerTimeout = d
	}
}

// WithShutdownTimeout sets both the HTTP shutdown timeout and the window
// in-flight queries get to finish.
func WithShutdownTimeout(d time.Duration) Option {
	return func(c *botConfig) {
		c.shutdownTimeout = d
	}
}

// WithDeleteWebhookOnStop removes the webhook registration on shutdown.
func WithDeleteWebhookOnStop(enabled bool) Option {
	return func(c *botConfig) {
		c.deleteOnStop = enabled
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *botConfig) {
		c.logger = logger
	}
}

// WithMetrics sets the collectors served on /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *botConfig) {
		c.metrics = m
	}
}

// New creates a Bot. WithWebhook is required.
func New(token string, opts ...Option) (*Bot, error) {
	secretToken := tg.SecretToken(token)
	if secretToken.IsEmpty() {
		return nil, tg.ErrInvalidToken
	}

	cfg := botConfig{
		listenAddr:      "127.0.0.1:8080",
		receiverConfig:  receiver.DefaultConfig(),
		telegramBaseURL: sender.DefaultBaseURL,
		handlerTimeout:  10 * time.Second,
		shutdownTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.webhookURL == "" {
		return nil, receiver.ErrWebhookURLRequired
	}
	path, err := receiver.WebhookPath(cfg.webhookURL)
	if err != nil {
		return nil, err
	}
	cfg.webhookPath = path
	if cfg.webhookSecret != "" {
		if err := receiver.ValidateSecret(cfg.webhookSecret); err != nil {
			return nil, err
		}
	}
	cfg.receiverConfig.WebhookURL = cfg.webhookURL
	cfg.receiverConfig.WebhookSecret = cfg.webhookSecret

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	m := cfg.metrics
	if m == nil {
		m = metrics.NewDefault()
	}

	telegram := httpclient.New(httpclient.TelegramConfig())

	senderOpts := append([]sender.Option{
		sender.WithBaseURL(cfg.telegramBaseURL),
		sender.WithHTTPClient(telegram),
		sender.WithLogger(logger),
		sender.WithBreakerStateHook(m.RecordBreakerState),
	}, cfg.senderOptions...)
	senderClient, err := sender.New(token, senderOpts...)
	if err != nil {
		return nil, err
	}

	catalogOpts := append([]risibank.Option{
		risibank.WithLogger(logger),
		risibank.WithMetrics(m),
	}, cfg.catalogOptions...)
	catalog := risibank.New(catalogOpts...)

	handler := inline.NewHandler(catalog, senderClient,
		inline.WithLogger(logger),
		inline.WithMetrics(m),
	)

	updates := make(chan tg.Update, max(cfg.receiverConfig.UpdateBufferSize, 1))

	return &Bot{
		token:    secretToken,
		logger:   logger,
		metrics:  m,
		telegram: telegram,
		sender:   senderClient,
		catalog:  catalog,
		webhook:  receiver.NewWebhookHandler(logger, updates, cfg.receiverConfig, receiver.WithWebhookMetrics(m)),
		health:   receiver.NewHealthHandler(),
		dispatch: newDispatcher(handler, logger, m, cfg.handlerTimeout),
		updates:  updates,
		config:   cfg,
	}, nil
}

// Run binds the listen address and serves until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", b.config.listenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", b.config.listenAddr, err)
	}
	return b.Serve(ctx, ln)
}

// Serve validates the token, registers the webhook and handles deliveries
// on ln until ctx is cancelled. It then stops accepting requests, lets
// in-flight queries finish within the shutdown timeout and returns nil.
// Startup failures are returned as errors. Serve closes ln.
func (b *Bot) Serve(ctx context.Context, ln net.Listener) error {
	defer b.close()

	me, err := b.sender.GetMe(ctx)
	if err != nil {
		ln.Close()
		return fmt.Errorf("getMe: %w", err)
	}
	if !me.SupportsInlineQueries {
		b.logger.Warn("inline mode is disabled for this bot, enable it with @BotFather", "username", me.Username)
	}

	srv := b.server()
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	stop := make(chan struct{})
	dispatched := make(chan struct{})
	go func() {
		defer close(dispatched)
		b.dispatch.run(b.updates, stop)
	}()

	shutdown := func() {
		b.shutdown(srv, stop, dispatched)
	}

	err = receiver.SetWebhook(ctx, b.telegram, b.config.telegramBaseURL, b.token, receiver.WebhookParams{
		URL:                b.config.webhookURL,
		SecretToken:        b.config.webhookSecret,
		AllowedUpdates:     b.config.receiverConfig.AllowedUpdates,
		DropPendingUpdates: b.config.receiverConfig.DropPendingUpdates,
	})
	if err != nil {
		shutdown()
		return fmt.Errorf("setWebhook: %w", err)
	}

	b.health.SetReady(true)
	b.logger.Info("bot started",
		"username", me.Username,
		"listen", ln.Addr().String(),
		"webhook_path", b.config.webhookPath,
	)

	select {
	case <-ctx.Done():
		b.logger.Info("shutting down", "reason", context.Cause(ctx))
	case err := <-serveErr:
		shutdown()
		return fmt.Errorf("serve: %w", err)
	}

	shutdown()

	if b.config.deleteOnStop {
		delCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.config.shutdownTimeout)
		defer cancel()
		if err := receiver.DeleteWebhook(delCtx, b.telegram, b.config.telegramBaseURL, b.token, false); err != nil {
			b.logger.Warn("failed to delete webhook", "error", err)
		}
	}

	b.logger.Info("bot stopped")
	return nil
}

func (b *Bot) shutdown(srv *http.Server, stop chan struct{}, dispatched <-chan struct{}) {
	b.health.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), b.config.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		b.logger.Warn("http shutdown incomplete", "error", err)
	}

	close(stop)
	<-dispatched
	b.dispatch.drain(b.config.shutdownTimeout)
}

func (b *Bot) close() {
	b.sender.Close()
	b.catalog.Close()
	httpclient.CloseIdle(b.telegram)
}

func (b *Bot) server() *http.Server {
	rc := b.config.receiverConfig
	return &http.Server{
		Handler:           b.Handler(),
		ReadTimeout:       rc.ReadTimeout,
		ReadHeaderTimeout: rc.ReadHeaderTimeout,
		WriteTimeout:      rc.WriteTimeout,
		IdleTimeout:       rc.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(b.logger.Handler(), slog.LevelWarn),
	}
}

// Handler routes the webhook path, the health probes and /metrics.
func (b *Bot) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", b.health.LivenessHandler())
	mux.HandleFunc("GET /readyz", b.health.ReadinessHandler())
	mux.Handle("GET /metrics", b.metrics.Handler())

	pattern := b.config.webhookPath
	if strings.HasSuffix(pattern, "/") {
		pattern += "{$}"
	}
	mux.Handle(pattern, b.webhook)
	return mux
}
