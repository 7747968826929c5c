// Package risibot is an inline Telegram bot that searches the RisiBank
// sticker catalog.
//
// A user types "@bot <query>" in any chat; Telegram delivers the inline
// query to the webhook, the bot searches RisiBank and answers with up to 15
// stickers, each sent as a GIF or a photo result.
//
// # Quick Start
//
//	bot, err := risibot.New(token,
//	    risibot.WithWebhook("https://bot.example.com/hook", secret),
//	    risibot.WithListenAddr("127.0.0.1:8080"),
//	)
//	if err != nil {
//	    return err
//	}
//	return bot.Run(ctx)
//
// Run registers the webhook, serves it together with /healthz, /readyz and
// /metrics, and shuts down gracefully when ctx is cancelled.
//
// # Packages
//
//   - risibank: catalog client with timeout, retry and circuit breaker
//   - inline: result mapping and the inline query handler
//   - receiver: webhook intake and setWebhook registration
//   - sender: Bot API client (getMe, answerInlineQuery)
//   - tg: Telegram wire types
package risibot
