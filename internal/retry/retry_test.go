package retry

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fast() Config {
	return Config{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: 2 * time.Millisecond, Multiplier: 2}
}

func TestDoRetriesTransientErrors(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fast(), func() error {
		calls++
		if calls < 3 {
			return Retryable(errors.New("flaky"))
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	permanent := errors.New("bad request")
	calls := 0
	err := Do(context.Background(), fast(), func() error {
		calls++
		return permanent
	})
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestDoWithResultGivesUp(t *testing.T) {
	calls := 0
	_, err := DoWithResult(context.Background(), fast(), func() (int, error) {
		calls++
		return 0, Retryable(errors.New("still down"))
	})
	assert.True(t, IsRetryable(err))
	assert.Equal(t, 3, calls)
}

func TestDoHonorsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Do(ctx, fast(), func() error { return Retryable(errors.New("x")) })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackoff(t *testing.T) {
	cfg := Config{InitialWait: 100 * time.Millisecond, MaxWait: time.Second, Multiplier: 2}
	assert.Equal(t, 100*time.Millisecond, cfg.Backoff(1))
	assert.Equal(t, 400*time.Millisecond, cfg.Backoff(3))
	assert.Equal(t, time.Second, cfg.Backoff(10))
	assert.Nil(t, Retryable(nil))
	assert.Nil(t, RetryAfter(nil, time.Second))
}

func TestRetryAfterRaisesWaitUpToMax(t *testing.T) {
	cfg := Config{InitialWait: time.Millisecond, MaxWait: 50 * time.Millisecond, Multiplier: 2}
	assert.Equal(t, time.Millisecond, cfg.wait(1, Retryable(errors.New("x"))))
	assert.Equal(t, 20*time.Millisecond, cfg.wait(1, RetryAfter(errors.New("x"), 20*time.Millisecond)))
	assert.Equal(t, 50*time.Millisecond, cfg.wait(1, RetryAfter(errors.New("x"), time.Minute)))
}

func TestOnRetryIsCalledBeforeEachWait(t *testing.T) {
	cfg := fast()
	var attempts []int
	cfg.OnRetry = func(attempt int, err error, wait time.Duration) {
		attempts = append(attempts, attempt)
	}
	_ = Do(context.Background(), cfg, func() error { return Retryable(errors.New("down")) })
	assert.Equal(t, []int{1, 2}, attempts, "no wait after the last attempt")
}

func TestTemporaryStatus(t *testing.T) {
	for code, want := range map[int]bool{
		http.StatusOK:                  false,
		http.StatusNotFound:            false,
		http.StatusRequestTimeout:      true,
		http.StatusTooManyRequests:     true,
		http.StatusInternalServerError: true,
		http.StatusServiceUnavailable:  true,
	} {
		assert.Equal(t, want, TemporaryStatus(code), "status %d", code)
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 3*time.Second, ParseRetryAfter("3", now))
	assert.Equal(t, 90*time.Second, ParseRetryAfter(now.Add(90*time.Second).Format(http.TimeFormat), now))
	assert.Zero(t, ParseRetryAfter("", now))
	assert.Zero(t, ParseRetryAfter("soon", now))
	assert.Zero(t, ParseRetryAfter(now.Add(-time.Minute).Format(http.TimeFormat), now))
}
