package sender_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ptondereau/risibot/internal/testutil"
	"github.com/ptondereau/risibot/tg"
)

func TestCallJSON_ViaGetMe(t *testing.T) {
	server := testutil.NewMockServer(t)
	server.OnBot("getMe", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyUser(w)
	})

	client := testutil.NewTestClient(t, server.BaseURL())

	user, err := client.GetMe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testutil.TestBotID, user.ID)
	assert.True(t, user.IsBot)
	assert.Equal(t, testutil.TestBotUsername, user.Username)
	assert.True(t, user.SupportsInlineQueries)

	cap := server.LastCapture()
	cap.AssertMethod(t, http.MethodPost)
	cap.AssertPath(t, testutil.BotPath("getMe"))
	cap.AssertHeader(t, "Content-Type", "application/json")
}

func TestCallJSON_Unauthorized(t *testing.T) {
	server := testutil.NewMockServer(t)
	server.OnBot("getMe", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyError(w, 401, "Unauthorized", nil)
	})

	client := testutil.NewTestClient(t, server.BaseURL())

	_, err := client.GetMe(context.Background())
	require.Error(t, err)

	var apiErr *tg.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 401, apiErr.Code)
	assert.Equal(t, "getMe", apiErr.Method)
	assert.ErrorIs(t, err, tg.ErrUnauthorized)
}

func TestCallJSON_RetryAfterFromHeader(t *testing.T) {
	server := testutil.NewMockServer(t)
	server.OnBot("getMe", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		testutil.ReplyError(w, 429, "Too Many Requests", nil)
	})

	client := testutil.NewTestClient(t, server.BaseURL())

	_, err := client.GetMe(context.Background())

	var apiErr *tg.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 7.0, apiErr.RetryAfter.Seconds())
	assert.ErrorIs(t, err, tg.ErrTooManyRequests)
}

func TestCallJSON_MalformedBody(t *testing.T) {
	server := testutil.NewMockServer(t)
	server.OnBot("getMe", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	})

	client := testutil.NewTestClient(t, server.BaseURL())

	_, err := client.GetMe(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse response")
}

func TestCallJSON_BadGatewayHTML(t *testing.T) {
	server := testutil.NewMockServer(t)
	server.OnBot("getMe", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyStatus(w, http.StatusBadGateway)
	})

	client := testutil.NewTestClient(t, server.BaseURL())

	_, err := client.GetMe(context.Background())

	var apiErr *tg.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.IsServerError())
}
