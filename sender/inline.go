package sender

import (
	"context"

	"github.com/ptondereau/risibot/tg"
)

// MaxInlineResults is the Bot API limit on results per answer.
const MaxInlineResults = 50

// AnswerInlineQueryRequest represents an answerInlineQuery request.
// CacheTime is always sent so that zero disables client-side caching.
type AnswerInlineQueryRequest struct {
	InlineQueryID string                 `json:"inline_query_id"`
	Results       []tg.InlineQueryResult `json:"results"`
	CacheTime     int                    `json:"cache_time"`
}

// AnswerInlineQuery sends answers to an inline query. An empty result list
// is valid and tells the client there is nothing to show.
func (c *Client) AnswerInlineQuery(ctx context.Context, req AnswerInlineQueryRequest) error {
	if req.InlineQueryID == "" {
		return tg.NewValidationError("inline_query_id", "required")
	}
	if len(req.Results) > MaxInlineResults {
		return tg.NewValidationError("results", "at most 50 results allowed")
	}
	if req.CacheTime < 0 {
		return tg.NewValidationError("cache_time", "must not be negative")
	}
	if req.Results == nil {
		req.Results = []tg.InlineQueryResult{}
	}

	return c.callJSON(ctx, "answerInlineQuery", req, nil)
}
