package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/ptondereau/risibot/internal/httpclient"
	"github.com/ptondereau/risibot/internal/resilience"
	"github.com/ptondereau/risibot/internal/scrub"
	"github.com/ptondereau/risibot/tg"
)

const (
	maxResponseSize = 1 << 20 // 1MB
)

// Client submits Bot API calls. Calls are never retried; a circuit breaker
// fails fast while the API is returning server errors.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
	breaker    *gobreaker.CircuitBreaker[*apiResponse]
	onState    func(name, from, to string)
	closeOnce  sync.Once
}

type apiResponse struct {
	OK          bool                   `json:"ok"`
	Result      json.RawMessage        `json:"result,omitempty"`
	ErrorCode   int                    `json:"error_code,omitempty"`
	Description string                 `json:"description,omitempty"`
	Parameters  *tg.ResponseParameters `json:"parameters,omitempty"`
}

// Option configures the Client.
type Option func(*Client)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithBaseURL sets the API base URL (useful for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.config.BaseURL = strings.TrimRight(url, "/")
	}
}

// WithBreaker overrides the circuit breaker thresholds.
func WithBreaker(maxRequests, threshold uint32, timeout time.Duration) Option {
	return func(c *Client) {
		c.config.BreakerMaxRequests = maxRequests
		c.config.BreakerThreshold = threshold
		c.config.BreakerTimeout = timeout
	}
}

// WithBreakerStateHook registers a callback for breaker state transitions.
func WithBreakerStateHook(fn func(name, from, to string)) Option {
	return func(c *Client) {
		c.onState = fn
	}
}

// New creates a new Client with the given token and options.
func New(token string, opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	cfg.Token = tg.SecretToken(token)
	return NewFromConfig(cfg, opts...)
}

// NewFromConfig creates a Client from a Config.
func NewFromConfig(cfg Config, opts ...Option) (*Client, error) {
	if cfg.Token.IsEmpty() {
		return nil, tg.ErrInvalidToken
	}

	c := &Client{config: cfg}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.httpClient == nil {
		c.httpClient = httpclient.New(c.config.HTTP)
	}

	breakerCfg := resilience.DefaultBreakerConfig("telegram")
	breakerCfg.MaxRequests = c.config.BreakerMaxRequests
	breakerCfg.Interval = c.config.BreakerInterval
	breakerCfg.Timeout = c.config.BreakerTimeout
	breakerCfg.Threshold = c.config.BreakerThreshold
	breakerCfg.IsSuccessful = isBreakerSuccess
	breakerCfg.OnStateChange = func(name, from, to string) {
		c.logger.Info("circuit breaker state changed",
			"name", name,
			"from", from,
			"to", to,
		)
		if c.onState != nil {
			c.onState(name, from, to)
		}
	}
	c.breaker = resilience.NewBreaker[*apiResponse](breakerCfg)

	return c, nil
}

// Close releases idle connections. Safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		httpclient.CloseIdle(c.httpClient)
	})
	return nil
}

func (c *Client) executeRequest(ctx context.Context, method string, payload any) (*apiResponse, error) {
	resp, err := c.breaker.Execute(func() (*apiResponse, error) {
		return c.doRequest(ctx, method, payload)
	})
	if resilience.IsRejected(err) {
		return nil, fmt.Errorf("%w: %s", tg.ErrCircuitOpen, method)
	}
	return resp, err
}

func (c *Client) doRequest(ctx context.Context, method string, payload any) (*apiResponse, error) {
	url := fmt.Sprintf("%s/bot%s/%s", c.config.BaseURL, c.config.Token.Value(), method)

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", scrub.TokenFromError(err, c.config.Token))
	}

	resp, err := httpclient.DoJSON(ctx, c.httpClient, req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", scrub.TokenFromError(err, c.config.Token))
	}
	defer resp.Body.Close()

	// Read one byte past the limit to detect overflow
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", scrub.TokenFromError(err, c.config.Token))
	}
	if int64(len(body)) > maxResponseSize {
		return nil, tg.ErrResponseTooLarge
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, tg.NewAPIError(method, resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if !apiResp.OK {
		code := apiResp.ErrorCode
		if code == 0 {
			code = resp.StatusCode
		}
		if retryAfter := parseRetryAfter(&apiResp, resp); retryAfter > 0 {
			return nil, tg.NewAPIErrorWithRetry(method, code, apiResp.Description, retryAfter)
		}
		return nil, tg.NewAPIError(method, code, apiResp.Description)
	}

	return &apiResp, nil
}

// isBreakerSuccess determines if an error should count as a circuit breaker failure.
// Only server errors (5xx) and network errors trip the breaker.
func isBreakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	var apiErr *tg.APIError
	if errors.As(err, &apiErr) {
		return !apiErr.IsServerError()
	}
	// Context cancellation is not a service failure
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return false
}

// parseRetryAfter extracts retry_after from JSON body (primary) or HTTP header (fallback).
func parseRetryAfter(apiResp *apiResponse, httpResp *http.Response) time.Duration {
	if apiResp.Parameters != nil && apiResp.Parameters.RetryAfter > 0 {
		return time.Duration(apiResp.Parameters.RetryAfter) * time.Second
	}

	if httpResp != nil {
		if retryHeader := httpResp.Header.Get("Retry-After"); retryHeader != "" {
			if seconds, err := strconv.Atoi(retryHeader); err == nil && seconds > 0 {
				return time.Duration(seconds) * time.Second
			}
		}
	}

	return 0
}
