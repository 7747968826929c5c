package risibank

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/ptondereau/risibot/internal/httpclient"
	"github.com/ptondereau/risibot/internal/metrics"
	"github.com/ptondereau/risibot/internal/resilience"
	"github.com/ptondereau/risibot/internal/telemetry"
)

const (
	// DefaultBaseURL is the public catalog API.
	DefaultBaseURL = "https://risibank.fr/api/v0"

	maxResponseSize = 4 << 20 // 4MB
)

// Client searches the catalog. It is safe for concurrent use; the
// connection pool is shared by every call.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
	retry      resilience.RetryConfig
	breakerCfg resilience.BreakerConfig
	breaker    *gobreaker.CircuitBreaker[*SearchResult]
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL overrides the catalog base URL (useful for testing).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics records searches and breaker transitions.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithSleeper sets the sleeper used between retries (useful for testing).
func WithSleeper(s resilience.Sleeper) Option {
	return func(c *Client) {
		c.retry.Sleeper = s
	}
}

// WithRetry overrides the attempt budget and the backoff schedule.
func WithRetry(maxAttempts int, baseWait, maxWait time.Duration) Option {
	return func(c *Client) {
		c.retry.MaxAttempts = maxAttempts
		c.retry.BaseWait = baseWait
		c.retry.MaxWait = maxWait
	}
}

// WithBreaker overrides the circuit breaker thresholds.
func WithBreaker(threshold uint32, timeout time.Duration) Option {
	return func(c *Client) {
		c.breakerCfg.Threshold = threshold
		c.breakerCfg.Timeout = timeout
	}
}

// New creates a catalog client.
func New(opts ...Option) *Client {
	breakerCfg := resilience.DefaultBreakerConfig("risibank")
	breakerCfg.MaxRequests = 1
	breakerCfg.Timeout = 10 * time.Second
	breakerCfg.MinRequests = 0

	c := &Client{
		baseURL:    DefaultBaseURL,
		retry:      resilience.DefaultRetryConfig(),
		breakerCfg: breakerCfg,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.httpClient == nil {
		c.httpClient = httpclient.New(httpclient.CatalogConfig())
	}

	c.retry.Retryable = isTransient
	c.retry.OnRetry = func(attempt int, err error, wait time.Duration) {
		c.metrics.RecordCatalogRetry()
		c.logger.Debug("retrying catalog search",
			"attempt", attempt,
			"wait", wait,
			"error", err,
		)
	}

	c.breakerCfg.IsSuccessful = func(err error) bool { return !isTransient(err) }
	c.breakerCfg.OnStateChange = func(name, from, to string) {
		c.logger.Warn("circuit breaker state changed",
			"name", name,
			"from", from,
			"to", to,
		)
		c.metrics.RecordBreakerState(name, from, to)
	}
	c.breaker = resilience.NewBreaker[*SearchResult](c.breakerCfg)

	return c
}

// Close releases idle connections.
func (c *Client) Close() {
	httpclient.CloseIdle(c.httpClient)
}

// Search queries the catalog for stickers matching query.
func (c *Client) Search(ctx context.Context, query string) (*SearchResult, error) {
	ctx, span := telemetry.StartSearchSpan(ctx, query)
	start := time.Now()

	res, err := resilience.Retry(ctx, c.retry, func() (*SearchResult, error) {
		return c.attempt(ctx, query)
	})

	c.metrics.RecordCatalogSearch(status(err), time.Since(start))
	telemetry.EndSpan(span, err)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) attempt(ctx context.Context, query string) (*SearchResult, error) {
	res, err := c.breaker.Execute(func() (*SearchResult, error) {
		return c.do(ctx, query)
	})
	if resilience.IsRejected(err) {
		return nil, transportError(err)
	}
	return res, err
}

func (c *Client) do(ctx context.Context, query string) (*SearchResult, error) {
	endpoint := c.baseURL + "/search?" + url.Values{"search": {query}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, transportError(err)
	}

	resp, err := httpclient.DoJSON(ctx, c.httpClient, req)
	if err != nil {
		return nil, transportError(err)
	}
	defer func() {
		// Drain so the connection goes back to the pool
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp.StatusCode)
	}

	var result SearchResult
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize))
	if err := dec.Decode(&result); err != nil {
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			// Body read hit the request deadline
			return nil, transportError(err)
		}
		return nil, decodeError(resp.StatusCode, err)
	}
	return &result, nil
}

// isTransient reports whether a failed attempt may succeed if repeated:
// network failures other than an open breaker, and 5xx responses.
func isTransient(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	switch {
	case errors.Is(e.Kind, ErrTransport):
		return !resilience.IsRejected(e.Err) &&
			!errors.Is(e.Err, context.Canceled)
	case errors.Is(e.Kind, ErrInvalidResponse):
		return e.StatusCode >= 500 && e.StatusCode <= 599
	default:
		return false
	}
}
