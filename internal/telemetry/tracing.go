// Package telemetry holds the OpenTelemetry span helpers of the bot.
//
// Spans are created from the global tracer provider, which is a no-op until
// the host process installs one. Custom attributes use the `risibot.` prefix.
package telemetry

import (
	"context"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/ptondereau/risibot"
)

// Tracer returns the package-level tracer.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartInlineQuerySpan creates the parent span for one inline query.
func StartInlineQuerySpan(ctx context.Context, queryID, query string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "inline.query",
		trace.WithAttributes(
			attribute.String("risibot.query_id", queryID),
			attribute.Int("risibot.query_length", utf8.RuneCountInString(query)),
		),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// StartSearchSpan creates a child span for a catalog search.
func StartSearchSpan(ctx context.Context, query string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "risibank.search",
		trace.WithAttributes(
			attribute.String("risibot.search_query", query),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// StartAnswerSpan creates a child span for answerInlineQuery.
func StartAnswerSpan(ctx context.Context, results int) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "telegram.answer_inline_query",
		trace.WithAttributes(
			attribute.Int("risibot.result_count", results),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
