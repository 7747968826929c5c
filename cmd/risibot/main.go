package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ptondereau/risibot"
	"github.com/ptondereau/risibot/internal/config"
	"github.com/ptondereau/risibot/internal/metrics"
)

func main() {
	// Setup logging before config so that config errors are reported
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	if cfg.SecretGenerated {
		logger.Info("no WEBHOOK_SECRET set, generated one for this run")
	}

	bot, err := risibot.New(cfg.Token.Value(),
		risibot.WithWebhook(cfg.WebhookURL.String(), cfg.WebhookSecret),
		risibot.WithListenAddr(cfg.ListenAddr()),
		risibot.WithTelegramBaseURL(cfg.TelegramBaseURL),
		risibot.WithCatalogBaseURL(cfg.RisibankBaseURL),
		risibot.WithShutdownTimeout(cfg.ShutdownTimeout),
		risibot.WithMetrics(metrics.NewDefault()),
		risibot.WithLogger(logger),
	)
	if err != nil {
		logger.Error("failed to create bot", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("risibot starting",
		"listen", cfg.ListenAddr(),
		"webhook_url", cfg.WebhookURL.Redacted(),
		"catalog", cfg.RisibankBaseURL,
	)

	if err := bot.Run(ctx); err != nil {
		logger.Error("bot failed", "error", err)
		stop()
		os.Exit(1)
	}
}
