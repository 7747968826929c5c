package receiver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ptondereau/risibot/internal/httpclient"
	"github.com/ptondereau/risibot/internal/scrub"
	"github.com/ptondereau/risibot/tg"
)

const maxResponseSize = 64 << 10

// WebhookParams are the setWebhook arguments.
type WebhookParams struct {
	URL                string   `json:"url"`
	SecretToken        string   `json:"secret_token,omitempty"`
	AllowedUpdates     []string `json:"allowed_updates,omitempty"`
	DropPendingUpdates bool     `json:"drop_pending_updates,omitempty"`
	MaxConnections     int      `json:"max_connections,omitempty"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
}

// SetWebhook registers a webhook URL with Telegram.
func SetWebhook(ctx context.Context, client *http.Client, baseURL string, token tg.SecretToken, params WebhookParams) error {
	if params.URL == "" {
		return ErrWebhookURLRequired
	}
	return call(ctx, client, baseURL, token, "setWebhook", params)
}

// DeleteWebhook removes the webhook from Telegram.
func DeleteWebhook(ctx context.Context, client *http.Client, baseURL string, token tg.SecretToken, dropPending bool) error {
	payload := map[string]any{"drop_pending_updates": dropPending}
	return call(ctx, client, baseURL, token, "deleteWebhook", payload)
}

func call(ctx context.Context, client *http.Client, baseURL string, token tg.SecretToken, method string, payload any) error {
	if client == nil {
		client = http.DefaultClient
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	apiURL := fmt.Sprintf("%s/bot%s/%s", strings.TrimRight(baseURL, "/"), token.Value(), method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", scrub.TokenFromError(err, token))
	}

	resp, err := httpclient.DoJSON(ctx, client, req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", method, scrub.TokenFromError(err, token))
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	var result apiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&result); err != nil {
		if resp.StatusCode >= http.StatusInternalServerError {
			return tg.NewAPIError(method, resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		return fmt.Errorf("%s: failed to decode response: %w", method, err)
	}

	if !result.OK {
		code := result.ErrorCode
		if code == 0 {
			code = resp.StatusCode
		}
		return tg.NewAPIError(method, code, result.Description)
	}

	return nil
}
