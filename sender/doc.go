// Package sender submits Bot API calls on behalf of the bot.
//
// The client covers what an inline-only bot needs: getMe to validate the
// token at startup and answerInlineQuery to reply to users. Calls are never
// retried. A circuit breaker opens after consecutive server or network
// failures and fails fast with tg.ErrCircuitOpen until it half-opens.
//
// # Usage
//
//	client, err := sender.New(token)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.AnswerInlineQuery(ctx, sender.AnswerInlineQueryRequest{
//	    InlineQueryID: q.ID,
//	    Results:       results,
//	})
package sender
