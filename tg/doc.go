// Package tg provides the Telegram Bot API types shared by receiver and sender.
//
// Only the subset of the Bot API that an inline bot touches is modelled:
//   - Update and its kinds (InlineQuery is the one the bot acts on)
//   - InlineQueryResult union (photo and gif results)
//   - Error types and sentinel errors
//   - SecretToken for safe token handling
//
// # Usage
//
//	import "github.com/ptondereau/risibot/tg"
//
//	var u tg.Update
//	if u.Kind() == tg.UpdateInlineQuery {
//	    _ = u.InlineQuery.Query
//	}
package tg
