package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ptondereau/risibot/internal/metrics"
)

func newMetrics(t *testing.T) *metrics.Metrics {
	t.Helper()
	return metrics.New(prometheus.NewRegistry())
}

func TestRecordInlineQuery(t *testing.T) {
	m := newMetrics(t)

	m.RecordInlineQuery(metrics.OutcomeResults, 15)
	m.RecordInlineQuery(metrics.OutcomeResults, 3)
	m.RecordInlineQuery(metrics.OutcomeEmptyQuery, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.InlineQueriesTotal.WithLabelValues(metrics.OutcomeResults)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InlineQueriesTotal.WithLabelValues(metrics.OutcomeEmptyQuery)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.InlineResults))
}

func TestRecordCatalogSearch(t *testing.T) {
	m := newMetrics(t)

	m.RecordCatalogSearch("ok", 120*time.Millisecond)
	m.RecordCatalogSearch("transport", 2*time.Second)
	m.RecordCatalogRetry()
	m.RecordCatalogRetry()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CatalogRequestsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CatalogRequestsTotal.WithLabelValues("transport")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CatalogRetriesTotal))
}

func TestRecordBreakerState(t *testing.T) {
	m := newMetrics(t)

	m.RecordBreakerState("risibank", "closed", "open")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BreakerState.WithLabelValues("risibank")))

	m.RecordBreakerState("risibank", "open", "half-open")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BreakerState.WithLabelValues("risibank")))

	m.RecordBreakerState("risibank", "half-open", "closed")
	assert.Equal(t, 0.0, testutil.ToFloat64(m.BreakerState.WithLabelValues("risibank")))
}

func TestInflightHandlers(t *testing.T) {
	m := newMetrics(t)

	m.HandlerStarted()
	m.HandlerStarted()
	m.HandlerFinished()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.InflightHandlers))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.RecordInlineQuery(metrics.OutcomeResults, 1)
		m.RecordAnswerError()
		m.HandlerStarted()
		m.HandlerFinished()
		m.RecordCatalogSearch("ok", time.Millisecond)
		m.RecordCatalogRetry()
		m.RecordBreakerState("x", "closed", "open")
		m.RecordUpdate("inline_query")
		m.RecordDropped()
	})
}

func TestRecordUpdateAndDropped(t *testing.T) {
	m := newMetrics(t)

	m.RecordUpdate("inline_query")
	m.RecordUpdate("message")
	m.RecordDropped()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.WebhookUpdatesTotal.WithLabelValues("inline_query")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WebhookUpdatesTotal.WithLabelValues("message")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WebhookDroppedTotal))
}

func TestHandler_Exposition(t *testing.T) {
	m := metrics.NewDefault()
	m.RecordUpdate("inline_query")

	server := httptest.NewServer(m.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.True(t, strings.Contains(text, `risibot_webhook_updates_total{kind="inline_query"} 1`))
	assert.Contains(t, text, "go_goroutines")
}
