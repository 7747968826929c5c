package receiver

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/ptondereau/risibot/internal/metrics"
	"github.com/ptondereau/risibot/internal/resilience"
	"github.com/ptondereau/risibot/tg"
)

var _ http.Handler = (*WebhookHandler)(nil)

var errDropped = errors.New("risibot/receiver: update dropped")

// WebhookHandler implements http.Handler for Telegram webhook callbacks.
// Accepted updates are queued on the updates channel and acknowledged with
// an empty 200 response; processing happens on the consumer side.
type WebhookHandler struct {
	logger        *slog.Logger
	metrics       *metrics.Metrics
	webhookSecret string
	updates       chan<- tg.Update

	limiter         *rate.Limiter
	breaker         *gobreaker.CircuitBreaker[struct{}]
	maxBodySize     int64
	deliveryTimeout time.Duration
	onDropped       func(int, string)
}

// WebhookOption configures the WebhookHandler.
type WebhookOption func(*WebhookHandler)

// WithWebhookRateLimit sets rate limiting parameters.
func WithWebhookRateLimit(rps float64, burst int) WebhookOption {
	return func(h *WebhookHandler) {
		h.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithWebhookMaxBodySize sets the maximum request body size.
func WithWebhookMaxBodySize(size int64) WebhookOption {
	return func(h *WebhookHandler) {
		h.maxBodySize = size
	}
}

// WithWebhookMetrics records accepted and dropped updates.
func WithWebhookMetrics(m *metrics.Metrics) WebhookOption {
	return func(h *WebhookHandler) {
		h.metrics = m
	}
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(
	logger *slog.Logger,
	updates chan<- tg.Update,
	cfg Config,
	opts ...WebhookOption,
) *WebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}

	h := &WebhookHandler{
		logger:          logger,
		webhookSecret:   cfg.WebhookSecret,
		updates:         updates,
		limiter:         rate.NewLimiter(rate.Limit(cfg.RateLimitRequests), cfg.RateLimitBurst),
		maxBodySize:     cfg.MaxBodySize,
		deliveryTimeout: cfg.UpdateDeliveryTimeout,
		onDropped:       cfg.OnUpdateDropped,
	}

	for _, opt := range opts {
		opt(h)
	}

	// Only a saturated dispatcher counts against the breaker; bad requests
	// from the outside must not be able to open it.
	breakerCfg := resilience.DefaultBreakerConfig("webhook")
	breakerCfg.MaxRequests = cfg.BreakerMaxRequests
	breakerCfg.Interval = cfg.BreakerInterval
	breakerCfg.Timeout = cfg.BreakerTimeout
	breakerCfg.Threshold = cfg.BreakerThreshold
	breakerCfg.MinRequests = 0
	breakerCfg.IsSuccessful = func(err error) bool {
		return !errors.Is(err, errDropped)
	}
	breakerCfg.OnStateChange = func(name, from, to string) {
		h.logger.Warn("circuit breaker state changed", "name", name, "from", from, "to", to)
		h.metrics.RecordBreakerState(name, from, to)
	}
	h.breaker = resilience.NewBreaker[struct{}](breakerCfg)

	return h
}

// ServeHTTP implements http.Handler.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow() {
		h.fail(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	_, err := h.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, h.accept(w, r)
	})

	switch {
	case err == nil:
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, errDropped):
		// Acknowledged anyway so Telegram does not redeliver into a full queue.
		w.WriteHeader(http.StatusOK)
	case resilience.IsRejected(err):
		h.fail(w, "service unavailable", http.StatusServiceUnavailable)
	case errors.Is(err, ErrUnauthorized):
		h.fail(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, ErrMethodNotAllowed):
		w.Header().Set("Allow", http.MethodPost)
		h.fail(w, "method not allowed", http.StatusMethodNotAllowed)
	case errors.Is(err, ErrBodyTooLarge):
		h.fail(w, "request entity too large", http.StatusRequestEntityTooLarge)
	default:
		var webhookErr *WebhookError
		if errors.As(err, &webhookErr) {
			h.fail(w, webhookErr.Message, webhookErr.Code)
		} else {
			h.fail(w, "internal error", http.StatusInternalServerError)
		}
	}
}

func (h *WebhookHandler) accept(w http.ResponseWriter, r *http.Request) error {
	// Secret validation (constant-time comparison)
	if h.webhookSecret != "" {
		secret := r.Header.Get(SecretHeader)
		if subtle.ConstantTimeCompare([]byte(secret), []byte(h.webhookSecret)) != 1 {
			return ErrUnauthorized
		}
	}

	if r.Method != http.MethodPost {
		return ErrMethodNotAllowed
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return ErrBodyTooLarge
		}
		return &WebhookError{Code: http.StatusBadRequest, Message: "failed to read body", Err: err}
	}

	var update tg.Update
	if err := json.Unmarshal(body, &update); err != nil {
		return &WebhookError{Code: http.StatusBadRequest, Message: "invalid JSON", Err: err}
	}

	return h.deliver(update)
}

func (h *WebhookHandler) deliver(update tg.Update) error {
	kind := update.Kind()

	select {
	case h.updates <- update:
		h.metrics.RecordUpdate(string(kind))
		h.logger.Debug("update forwarded", "update_id", update.UpdateID, "kind", kind)
		return nil
	default:
	}

	timer := time.NewTimer(h.deliveryTimeout)
	defer timer.Stop()

	select {
	case h.updates <- update:
		h.metrics.RecordUpdate(string(kind))
		h.logger.Debug("update forwarded", "update_id", update.UpdateID, "kind", kind)
		return nil
	case <-timer.C:
		h.metrics.RecordDropped()
		h.logger.Warn("update dropped", "update_id", update.UpdateID, "kind", kind, "reason", "queue full")
		if h.onDropped != nil {
			h.onDropped(update.UpdateID, "queue full")
		}
		return errDropped
	}
}

func (h *WebhookHandler) fail(w http.ResponseWriter, msg string, code int) {
	h.logger.Warn("webhook request rejected", "reason", msg, "code", code)
	http.Error(w, msg, code)
}

// HealthHandler returns HTTP handlers for health checks.
type HealthHandler struct {
	ready atomic.Bool
}

// NewHealthHandler creates health check handlers.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// SetReady marks the service as ready.
func (h *HealthHandler) SetReady(ready bool) {
	h.ready.Store(ready)
}

// LivenessHandler returns the liveness probe handler.
func (h *HealthHandler) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}
}

// ReadinessHandler returns the readiness probe handler.
func (h *HealthHandler) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.ready.Load() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("Ready"))
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("Not Ready"))
		}
	}
}
