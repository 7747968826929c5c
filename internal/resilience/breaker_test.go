package resilience_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ptondereau/risibot/internal/resilience"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBreaker_TripsOnConsecutiveFailures(t *testing.T) {
	cfg := resilience.DefaultBreakerConfig("test")
	cfg.Threshold = 2
	cb := resilience.NewBreaker[int](cfg)

	boom := errors.New("boom")
	for range 2 {
		_, err := cb.Execute(func() (int, error) { return 0, boom })
		require.ErrorIs(t, err, boom)
	}

	assert.Equal(t, gobreaker.StateOpen, cb.State())

	_, err := cb.Execute(func() (int, error) { return 1, nil })
	assert.True(t, resilience.IsRejected(err))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestNewBreaker_IsSuccessfulExcludesErrors(t *testing.T) {
	permanent := errors.New("not found")
	cfg := resilience.DefaultBreakerConfig("test")
	cfg.Threshold = 1
	cfg.IsSuccessful = func(err error) bool { return err == nil || errors.Is(err, permanent) }
	cb := resilience.NewBreaker[int](cfg)

	for range 5 {
		_, err := cb.Execute(func() (int, error) { return 0, permanent })
		require.ErrorIs(t, err, permanent)
	}

	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestNewBreaker_OnStateChange(t *testing.T) {
	var mu sync.Mutex
	var transitions []string

	cfg := resilience.DefaultBreakerConfig("catalog")
	cfg.Threshold = 1
	cfg.Timeout = time.Hour
	cfg.OnStateChange = func(name, from, to string) {
		mu.Lock()
		defer mu.Unlock()
		transitions = append(transitions, name+":"+from+"->"+to)
	}
	cb := resilience.NewBreaker[int](cfg)

	_, _ = cb.Execute(func() (int, error) { return 0, errors.New("boom") })

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"catalog:closed->open"}, transitions)
}

func TestIsRejected(t *testing.T) {
	assert.True(t, resilience.IsRejected(gobreaker.ErrOpenState))
	assert.True(t, resilience.IsRejected(gobreaker.ErrTooManyRequests))
	assert.False(t, resilience.IsRejected(errors.New("other")))
	assert.False(t, resilience.IsRejected(nil))
}
