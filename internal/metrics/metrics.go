// Package metrics defines the Prometheus collectors exported on /metrics.
//
// Metric naming follows Prometheus conventions:
//   - risibot_ prefix for all custom metrics
//   - _total suffix for counters
//   - _seconds suffix for duration histograms
//
// A nil *Metrics is valid and records nothing, so components can take one
// optionally.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Inline query outcomes.
const (
	OutcomeEmptyQuery  = "empty_query"
	OutcomeResults     = "results"
	OutcomeNoResults   = "no_results"
	OutcomeSearchError = "search_error"
)

// Metrics holds every collector of the bot.
type Metrics struct {
	registry prometheus.Gatherer

	InlineQueriesTotal      *prometheus.CounterVec
	InlineAnswerErrorsTotal prometheus.Counter
	InlineResults           prometheus.Histogram
	InflightHandlers        prometheus.Gauge
	CatalogRequestsTotal    *prometheus.CounterVec
	CatalogRetriesTotal     prometheus.Counter
	CatalogDurationSeconds  prometheus.Histogram
	BreakerState            *prometheus.GaugeVec
	WebhookUpdatesTotal     *prometheus.CounterVec
	WebhookDroppedTotal     prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,

		InlineQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "risibot_inline_queries_total",
				Help: "Inline queries handled, by outcome.",
			},
			[]string{"outcome"},
		),
		InlineAnswerErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "risibot_inline_answer_errors_total",
				Help: "answerInlineQuery calls that failed.",
			},
		),
		InlineResults: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "risibot_inline_results",
				Help:    "Number of results sent per inline answer.",
				Buckets: []float64{0, 1, 5, 10, 15},
			},
		),
		InflightHandlers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "risibot_inflight_handlers",
				Help: "Inline query handlers currently running.",
			},
		),
		CatalogRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "risibot_catalog_requests_total",
				Help: "Catalog searches by final status.",
			},
			[]string{"status"},
		),
		CatalogRetriesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "risibot_catalog_retries_total",
				Help: "Catalog attempts repeated after a transient failure.",
			},
		),
		CatalogDurationSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "risibot_catalog_request_duration_seconds",
				Help:    "Duration of catalog searches including retries.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4},
			},
		),
		BreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "risibot_circuit_breaker_state",
				Help: "Circuit breaker state (0 closed, 1 half-open, 2 open).",
			},
			[]string{"name"},
		),
		WebhookUpdatesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "risibot_webhook_updates_total",
				Help: "Updates accepted by the webhook, by kind.",
			},
			[]string{"kind"},
		),
		WebhookDroppedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "risibot_webhook_dropped_total",
				Help: "Updates acknowledged but dropped because the dispatcher was saturated.",
			},
		),
	}

	reg.MustRegister(
		m.InlineQueriesTotal,
		m.InlineAnswerErrorsTotal,
		m.InlineResults,
		m.InflightHandlers,
		m.CatalogRequestsTotal,
		m.CatalogRetriesTotal,
		m.CatalogDurationSeconds,
		m.BreakerState,
		m.WebhookUpdatesTotal,
		m.WebhookDroppedTotal,
	)

	return m
}

// NewDefault creates a fresh registry with the Go and process collectors
// plus the bot collectors.
func NewDefault() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return New(reg)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordInlineQuery records the outcome of one handled inline query.
func (m *Metrics) RecordInlineQuery(outcome string, results int) {
	if m == nil {
		return
	}
	m.InlineQueriesTotal.WithLabelValues(outcome).Inc()
	if outcome != OutcomeEmptyQuery {
		m.InlineResults.Observe(float64(results))
	}
}

// RecordAnswerError records a failed answerInlineQuery call.
func (m *Metrics) RecordAnswerError() {
	if m == nil {
		return
	}
	m.InlineAnswerErrorsTotal.Inc()
}

// HandlerStarted marks an inline handler as running.
func (m *Metrics) HandlerStarted() {
	if m == nil {
		return
	}
	m.InflightHandlers.Inc()
}

// HandlerFinished marks an inline handler as done.
func (m *Metrics) HandlerFinished() {
	if m == nil {
		return
	}
	m.InflightHandlers.Dec()
}

// RecordCatalogSearch records one catalog search, retries included.
func (m *Metrics) RecordCatalogSearch(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.CatalogRequestsTotal.WithLabelValues(status).Inc()
	m.CatalogDurationSeconds.Observe(d.Seconds())
}

// RecordCatalogRetry records one repeated catalog attempt.
func (m *Metrics) RecordCatalogRetry() {
	if m == nil {
		return
	}
	m.CatalogRetriesTotal.Inc()
}

// RecordBreakerState records a circuit breaker transition. The signature
// matches the breaker state hooks of the clients.
func (m *Metrics) RecordBreakerState(name, _, to string) {
	if m == nil {
		return
	}
	var v float64
	switch to {
	case "half-open":
		v = 1
	case "open":
		v = 2
	}
	m.BreakerState.WithLabelValues(name).Set(v)
}

// RecordUpdate records an update accepted by the webhook.
func (m *Metrics) RecordUpdate(kind string) {
	if m == nil {
		return
	}
	m.WebhookUpdatesTotal.WithLabelValues(kind).Inc()
}

// RecordDropped records an update that could not be queued.
func (m *Metrics) RecordDropped() {
	if m == nil {
		return
	}
	m.WebhookDroppedTotal.Inc()
}
