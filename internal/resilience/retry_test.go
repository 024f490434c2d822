package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestDo_SuccessOnFirstAttempt(t *testing.T) {
	var calls int
	err := Do(context.Background(), DefaultRetryConfig(), func(_ context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_SuccessAfterRetry(t *testing.T) {
	var calls int
	var retried []int
	cfg := fastConfig()
	cfg.OnRetry = func(attempt int, _ error) { retried = append(retried, attempt) }

	err := Do(context.Background(), cfg, func(_ context.Context) error {
		calls++
		if calls < 3 {
			return &StatusError{Endpoint: "analyze", StatusCode: 503}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestDo_ExhaustsRetries(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastConfig(), func(_ context.Context) error {
		calls++
		return &StatusError{Endpoint: "analyze", StatusCode: 500}
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_NonTransientNoRetry(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastConfig(), func(_ context.Context) error {
		calls++
		return &StatusError{Endpoint: "analyze", StatusCode: 400}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelledStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	err := Do(ctx, fastConfig(), func(_ context.Context) error {
		calls++
		cancel()
		return &StatusError{Endpoint: "analyze", StatusCode: 503}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_CustomShouldRetry(t *testing.T) {
	var calls int
	cfg := fastConfig()
	cfg.ShouldRetry = func(error) bool { return true }
	err := Do(context.Background(), cfg, func(_ context.Context) error {
		calls++
		return errors.New("anything")
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoVal_ReturnsValue(t *testing.T) {
	var calls int
	v, err := DoVal(context.Background(), fastConfig(), func(_ context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", &StatusError{Endpoint: "compare-indexes", StatusCode: 429}
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(5, 100, 2000)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.InitialBackoff)
	assert.Equal(t, 2*time.Second, cfg.MaxBackoff)

	def := FromConfig(0, 0, 0)
	assert.Equal(t, DefaultRetryConfig().MaxAttempts, def.MaxAttempts)
}

func TestComputeBackoff_Capped(t *testing.T) {
	cfg := applyDefaults(RetryConfig{InitialBackoff: time.Second, MaxBackoff: 3 * time.Second, Multiplier: 2})
	assert.Equal(t, time.Second, computeBackoff(0, cfg))
	assert.Equal(t, 2*time.Second, computeBackoff(1, cfg))
	assert.Equal(t, 3*time.Second, computeBackoff(5, cfg))
}
