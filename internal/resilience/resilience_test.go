package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(eris.New("disk full")))

	assert.True(t, IsTransient(NewAutomationFault("click send", eris.New("missed"))))
	assert.True(t, IsTransient(eris.Wrap(NewAutomationFault("x", eris.New("y")), "outer")))
	assert.True(t, IsTransient(eris.New("cannot find element: #download")))
	assert.True(t, IsTransient(eris.New("target closed")))
	assert.True(t, IsTransient(eris.New("net::ERR_CONNECTION_RESET")))
}

func TestAutomationFaultMessage(t *testing.T) {
	err := NewAutomationFault("locate download link", eris.New("no candidates matched"))
	assert.Equal(t, "locate download link: no candidates matched", err.Error())
}

func TestDoStopsOnPermanentError(t *testing.T) {
	calls := 0
	err := Do(context.Background(), RetryConfig{MaxAttempts: 3}, func(context.Context) error {
		calls++
		return eris.New("permanent")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesTransientUntilSuccess(t *testing.T) {
	calls := 0
	cfg := RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}
	err := Do(context.Background(), cfg, func(context.Context) error {
		calls++
		if calls < 3 {
			return NewAutomationFault("step", eris.New("flaky"))
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustsBudget(t *testing.T) {
	calls := 0
	retries := 0
	cfg := RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
		OnRetry:        func(int, error) { retries++ },
	}
	err := Do(context.Background(), cfg, func(context.Context) error {
		calls++
		return NewAutomationFault("step", eris.New("never works"))
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, retries)
}

func TestDoHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	cfg := RetryConfig{MaxAttempts: 5, InitialBackoff: time.Minute}
	err := Do(ctx, cfg, func(context.Context) error {
		calls++
		cancel()
		return NewAutomationFault("step", eris.New("flaky"))
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestComputeBackoffBounded(t *testing.T) {
	cfg := applyDefaults(RetryConfig{InitialBackoff: time.Second, MaxBackoff: 4 * time.Second, JitterFraction: -1})
	assert.Equal(t, time.Second, computeBackoff(0, cfg))
	assert.Equal(t, 2*time.Second, computeBackoff(1, cfg))
	assert.Equal(t, 4*time.Second, computeBackoff(5, cfg))
}
