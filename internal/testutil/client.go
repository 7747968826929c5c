package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ptondereau/risibot/sender"
)

// NewTestClient creates a sender client pointed at baseURL.
func NewTestClient(t *testing.T, baseURL string, opts ...sender.Option) *sender.Client {
	t.Helper()

	defaultOpts := []sender.Option{
		sender.WithBaseURL(baseURL),
	}

	client, err := sender.New(TestToken, append(defaultOpts, opts...)...)
	require.NoError(t, err)

	t.Cleanup(func() { client.Close() })
	return client
}

// NewBreakerTestClient creates a sender client whose breaker trips after
// two consecutive failures and stays open for two seconds.
func NewBreakerTestClient(t *testing.T, baseURL string, opts ...sender.Option) *sender.Client {
	t.Helper()

	defaultOpts := []sender.Option{
		sender.WithBreaker(1, 2, 2*time.Second),
	}
	return NewTestClient(t, baseURL, append(defaultOpts, opts...)...)
}
