package sender

import (
	"context"
	"encoding/json"
	"fmt"
)

// callJSON is the unified internal helper for all API calls.
// It wraps executeRequest() and decodes the result into out, if given.
func (c *Client) callJSON(ctx context.Context, method string, payload any, out any) error {
	resp, err := c.executeRequest(ctx, method, payload)
	if err != nil {
		return err
	}
	if out == nil {
		return nil // For methods that return bool/void
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("risibot: %s: failed to parse response: %w", method, err)
	}
	return nil
}

// callJSONResult is a generic version for cleaner call sites.
//
//	user, err := callJSONResult[tg.User](c, ctx, "getMe", struct{}{})
func callJSONResult[T any](c *Client, ctx context.Context, method string, payload any) (T, error) {
	var result T
	if err := c.callJSON(ctx, method, payload, &result); err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
