package receiver_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ptondereau/risibot/internal/metrics"
	"github.com/ptondereau/risibot/internal/testutil"
	"github.com/ptondereau/risibot/receiver"
	"github.com/ptondereau/risibot/tg"
)

func testConfig() receiver.Config {
	cfg := receiver.DefaultConfig()
	cfg.WebhookSecret = testutil.TestWebhookSecret
	cfg.RateLimitRequests = 1000 // High limit for tests
	cfg.RateLimitBurst = 100
	cfg.UpdateDeliveryTimeout = 10 * time.Millisecond
	return cfg
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func post(body []byte, secret string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(receiver.SecretHeader, secret)
	}
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// ==================== Method Validation ====================

func TestWebhook_NonPOST_Returns405(t *testing.T) {
	updates := make(chan tg.Update, 10)
	handler := receiver.NewWebhookHandler(testLogger(), updates, testConfig())

	methods := []string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodPatch}

	for _, method := range methods {
		t.Run(method, func(t *testing.T) {
			req := httptest.NewRequest(method, "/webhook", nil)
			req.Header.Set(receiver.SecretHeader, testutil.TestWebhookSecret)

			rec := serve(handler, req)

			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
			assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
		})
	}
	assert.Empty(t, updates)
}

func TestWebhook_POST_AcknowledgesWithEmptyBody(t *testing.T) {
	updates := make(chan tg.Update, 10)
	handler := receiver.NewWebhookHandler(testLogger(), updates, testConfig())

	rec := serve(handler, post(testutil.InlineQueryUpdate(1, "Q1", "boomer"), testutil.TestWebhookSecret))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

// ==================== Secret Token Validation ====================

func TestWebhook_SecretToken(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong", "wrong-secret", http.StatusUnauthorized},
		{"prefix", testutil.TestWebhookSecret[:5], http.StatusUnauthorized},
		{"correct", testutil.TestWebhookSecret, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updates := make(chan tg.Update, 10)
			handler := receiver.NewWebhookHandler(testLogger(), updates, testConfig())

			rec := serve(handler, post(testutil.InlineQueryUpdate(7, "Q7", "x"), tt.secret))

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusOK {
				assert.Len(t, updates, 1)
			} else {
				assert.Empty(t, updates)
			}
		})
	}
}

func TestWebhook_NoSecretConfigured_AcceptsAll(t *testing.T) {
	updates := make(chan tg.Update, 10)
	cfg := testConfig()
	cfg.WebhookSecret = ""
	handler := receiver.NewWebhookHandler(testLogger(), updates, cfg)

	rec := serve(handler, post(testutil.InlineQueryUpdate(789, "Q", "x"), ""))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhook_UnauthorizedDoesNotOpenBreaker(t *testing.T) {
	updates := make(chan tg.Update, 100)
	cfg := testConfig()
	cfg.BreakerThreshold = 2
	handler := receiver.NewWebhookHandler(testLogger(), updates, cfg)

	for range 10 {
		rec := serve(handler, post(testutil.InlineQueryUpdate(1, "Q", "x"), "nope"))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := serve(handler, post(testutil.InlineQueryUpdate(2, "Q", "x"), testutil.TestWebhookSecret))
	assert.Equal(t, http.StatusOK, rec.Code)
}

// ==================== JSON Validation ====================

func TestWebhook_InvalidBody_Returns400(t *testing.T) {
	bodies := map[string]string{
		"not json": "not valid json",
		"empty":    "",
		"array":    "[]",
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			updates := make(chan tg.Update, 10)
			handler := receiver.NewWebhookHandler(testLogger(), updates, testConfig())

			rec := serve(handler, post([]byte(body), testutil.TestWebhookSecret))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, updates)
		})
	}
}

// ==================== Update Forwarding ====================

func TestWebhook_InlineQuery_ForwardsToChannel(t *testing.T) {
	updates := make(chan tg.Update, 10)
	handler := receiver.NewWebhookHandler(testLogger(), updates, testConfig())

	rec := serve(handler, post(testutil.InlineQueryUpdate(100, "Q100", "chat noir"), testutil.TestWebhookSecret))
	require.Equal(t, http.StatusOK, rec.Code)

	select {
	case received := <-updates:
		assert.Equal(t, 100, received.UpdateID)
		assert.Equal(t, tg.UpdateInlineQuery, received.Kind())
		require.NotNil(t, received.InlineQuery)
		assert.Equal(t, "Q100", received.InlineQuery.ID)
		assert.Equal(t, "chat noir", received.InlineQuery.Query)
	default:
		t.Fatal("expected update to be forwarded to channel")
	}
}

func TestWebhook_NonInlineUpdate_AcknowledgedAndForwarded(t *testing.T) {
	updates := make(chan tg.Update, 10)
	handler := receiver.NewWebhookHandler(testLogger(), updates, testConfig())

	rec := serve(handler, post(testutil.MessageUpdate(5, "/start"), testutil.TestWebhookSecret))

	assert.Equal(t, http.StatusOK, rec.Code)
	received := <-updates
	assert.Equal(t, tg.UpdateMessage, received.Kind())
}

func TestWebhook_ChannelFull_DropsAndReturns200(t *testing.T) {
	updates := make(chan tg.Update) // Unbuffered and never read
	cfg := testConfig()

	var mu sync.Mutex
	var droppedID int
	var droppedReason string
	cfg.OnUpdateDropped = func(id int, reason string) {
		mu.Lock()
		defer mu.Unlock()
		droppedID, droppedReason = id, reason
	}

	m := metrics.New(prometheus.NewRegistry())
	handler := receiver.NewWebhookHandler(testLogger(), updates, cfg, receiver.WithWebhookMetrics(m))

	rec := serve(handler, post(testutil.InlineQueryUpdate(200, "Q", "x"), testutil.TestWebhookSecret))

	assert.Equal(t, http.StatusOK, rec.Code)
	mu.Lock()
	assert.Equal(t, 200, droppedID)
	assert.Equal(t, "queue full", droppedReason)
	mu.Unlock()
	assert.Equal(t, 1.0, promtest.ToFloat64(m.WebhookDroppedTotal))
}

func TestWebhook_ChannelFull_WaitsForConsumer(t *testing.T) {
	updates := make(chan tg.Update)
	cfg := testConfig()
	cfg.UpdateDeliveryTimeout = 5 * time.Second
	handler := receiver.NewWebhookHandler(testLogger(), updates, cfg)

	done := make(chan tg.Update, 1)
	go func() { done <- <-updates }()

	rec := serve(handler, post(testutil.InlineQueryUpdate(201, "Q", "x"), testutil.TestWebhookSecret))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 201, (<-done).UpdateID)
}

func TestWebhook_SustainedDrops_OpenBreaker(t *testing.T) {
	updates := make(chan tg.Update)
	cfg := testConfig()
	cfg.UpdateDeliveryTimeout = time.Millisecond
	cfg.BreakerThreshold = 2
	cfg.BreakerTimeout = time.Minute
	handler := receiver.NewWebhookHandler(testLogger(), updates, cfg)

	for i := range 2 {
		rec := serve(handler, post(testutil.InlineQueryUpdate(i, "Q", "x"), testutil.TestWebhookSecret))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := serve(handler, post(testutil.InlineQueryUpdate(3, "Q", "x"), testutil.TestWebhookSecret))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestWebhook_RecordsUpdateKinds(t *testing.T) {
	updates := make(chan tg.Update, 10)
	m := metrics.New(prometheus.NewRegistry())
	handler := receiver.NewWebhookHandler(testLogger(), updates, testConfig(), receiver.WithWebhookMetrics(m))

	serve(handler, post(testutil.InlineQueryUpdate(1, "Q", "x"), testutil.TestWebhookSecret))
	serve(handler, post(testutil.InlineQueryUpdate(2, "Q", "y"), testutil.TestWebhookSecret))
	serve(handler, post(testutil.MessageUpdate(3, "hi"), testutil.TestWebhookSecret))

	assert.Equal(t, 2.0, promtest.ToFloat64(m.WebhookUpdatesTotal.WithLabelValues("inline_query")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.WebhookUpdatesTotal.WithLabelValues("message")))
}

// ==================== Body Size Limit ====================

func TestWebhook_OversizedBody_Returns413(t *testing.T) {
	updates := make(chan tg.Update, 10)
	cfg := testConfig()
	cfg.MaxBodySize = 100
	handler := receiver.NewWebhookHandler(testLogger(), updates, cfg)

	body := `{"update_id":1,"message":{"message_id":1,"date":0,"chat":{"id":1,"type":"private"},"text":"` +
		strings.Repeat("a", 200) + `"}}`

	rec := serve(handler, post([]byte(body), testutil.TestWebhookSecret))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, updates)
}

func TestWebhookOption_WithWebhookMaxBodySize(t *testing.T) {
	updates := make(chan tg.Update, 10)
	handler := receiver.NewWebhookHandler(testLogger(), updates, testConfig(), receiver.WithWebhookMaxBodySize(50))

	rec := serve(handler, post(testutil.InlineQueryUpdate(123, "Q", strings.Repeat("x", 60)), testutil.TestWebhookSecret))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

// ==================== Rate Limiting ====================

func TestWebhook_RateLimitExceeded_Returns429(t *testing.T) {
	updates := make(chan tg.Update, 100)
	cfg := testConfig()
	cfg.RateLimitRequests = 1
	cfg.RateLimitBurst = 1
	handler := receiver.NewWebhookHandler(testLogger(), updates, cfg)

	rec1 := serve(handler, post(testutil.InlineQueryUpdate(1, "Q", "x"), testutil.TestWebhookSecret))
	assert.Equal(t, http.StatusOK, rec1.Code)

	rec2 := serve(handler, post(testutil.InlineQueryUpdate(2, "Q", "x"), testutil.TestWebhookSecret))
	assert.Equal(t, http.StatusTooManyRequests, rec2.Code)
}

func TestWebhookOption_WithWebhookRateLimit(t *testing.T) {
	updates := make(chan tg.Update, 10)
	handler := receiver.NewWebhookHandler(testLogger(), updates, testConfig(), receiver.WithWebhookRateLimit(1, 1))

	rec1 := serve(handler, post(testutil.InlineQueryUpdate(1, "Q", "x"), testutil.TestWebhookSecret))
	assert.Equal(t, http.StatusOK, rec1.Code)

	rec2 := serve(handler, post(testutil.InlineQueryUpdate(2, "Q", "x"), testutil.TestWebhookSecret))
	assert.Equal(t, http.StatusTooManyRequests, rec2.Code)
}

// ==================== Health Handlers ====================

func TestHealthHandler_LivenessHandler_AlwaysOK(t *testing.T) {
	health := receiver.NewHealthHandler()

	rec := serve(health.LivenessHandler(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestHealthHandler_SetReady_Toggle(t *testing.T) {
	health := receiver.NewHealthHandler()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	// Not ready by default
	rec := serve(health.ReadinessHandler(), req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Not Ready", rec.Body.String())

	health.SetReady(true)
	rec = serve(health.ReadinessHandler(), req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ready", rec.Body.String())

	health.SetReady(false)
	rec = serve(health.ReadinessHandler(), req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
