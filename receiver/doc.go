// Package receiver accepts Telegram updates over a webhook.
//
// WebhookHandler verifies the secret token header, decodes the update and
// queues it on a channel, answering Telegram with an empty 200 before any
// processing happens:
//
//	updates := make(chan tg.Update, cfg.UpdateBufferSize)
//	mux.Handle("/", receiver.NewWebhookHandler(logger, updates, cfg))
//
// SetWebhook and DeleteWebhook manage the registration with the Bot API.
//
// # Features
//
//   - Rate limiting of inbound requests
//   - Circuit breaker that sheds load while the queue stays full
//   - Constant-time secret token check
//   - Liveness and readiness probes
package receiver
