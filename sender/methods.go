package sender

import (
	"context"

	"github.com/ptondereau/risibot/tg"
)

// GetMe returns basic information about the bot.
func (c *Client) GetMe(ctx context.Context) (*tg.User, error) {
	user, err := callJSONResult[tg.User](c, ctx, "getMe", struct{}{})
	if err != nil {
		return nil, err
	}
	return &user, nil
}
