package inline

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"github.com/ptondereau/risibot/internal/metrics"
	"github.com/ptondereau/risibot/internal/telemetry"
	"github.com/ptondereau/risibot/risibank"
	"github.com/ptondereau/risibot/sender"
	"github.com/ptondereau/risibot/tg"
)

// Searcher looks up stickers. Implemented by *risibank.Client.
type Searcher interface {
	Search(ctx context.Context, query string) (*risibank.SearchResult, error)
}

// Answerer submits inline answers. Implemented by *sender.Client.
type Answerer interface {
	AnswerInlineQuery(ctx context.Context, req sender.AnswerInlineQueryRequest) error
}

// Handler answers inline queries with catalog search results.
type Handler struct {
	searcher Searcher
	answerer Answerer
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures the Handler.
type Option func(*Handler)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithMetrics records query outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// NewHandler creates a Handler.
func NewHandler(searcher Searcher, answerer Answerer, opts ...Option) *Handler {
	h := &Handler{
		searcher: searcher,
		answerer: answerer,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

// Handle answers q. An empty query is ignored without any outbound call.
// A failed search is logged and answered with an empty result list, and a
// failed answer is logged and dropped. Handle never returns an error: every
// inline query is independent and nothing is propagated to the caller.
func (h *Handler) Handle(ctx context.Context, q *tg.InlineQuery) {
	if q == nil || q.Query == "" {
		h.metrics.RecordInlineQuery(metrics.OutcomeEmptyQuery, 0)
		return
	}

	ctx, span := telemetry.StartInlineQuerySpan(ctx, q.ID, q.Query)
	defer span.End()

	logger := h.logger.With("query_id", q.ID)

	results := []tg.InlineQueryResult{}
	outcome := metrics.OutcomeNoResults

	res, err := h.searcher.Search(ctx, q.Query)
	switch {
	case err != nil:
		logger.Error("catalog search failed",
			"query_length", utf8.RuneCountInString(q.Query),
			"error", err,
		)
		logger.Debug("failed search query", "query", q.Query)
		outcome = metrics.OutcomeSearchError
	case res == nil || len(res.Stickers) == 0:
		logger.Debug("no stickers found", "query", q.Query)
	default:
		results = Results(res)
		outcome = metrics.OutcomeResults
	}
	h.metrics.RecordInlineQuery(outcome, len(results))

	answerCtx, answerSpan := telemetry.StartAnswerSpan(ctx, len(results))
	err = h.answerer.AnswerInlineQuery(answerCtx, sender.AnswerInlineQueryRequest{
		InlineQueryID: q.ID,
		Results:       results,
		CacheTime:     0,
	})
	telemetry.EndSpan(answerSpan, err)
	if err != nil {
		h.metrics.RecordAnswerError()
		logger.Error("failed to answer inline query",
			"results", len(results),
			"error", err,
		)
		return
	}

	logger.Debug("answered inline query", "results", len(results))
}
