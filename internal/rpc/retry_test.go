package rpc

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"
	"time"

	"github.com/goran-ethernal/ModerationIndexor/internal/common"
	"github.com/goran-ethernal/ModerationIndexor/pkg/config"
	"github.com/stretchr/testify/require"
)

// mockNetError implements net.Error for testing
type mockNetError struct {
	msg     string
	timeout bool
}

func (e *mockNetError) Error() string   { return e.msg }
func (e *mockNetError) Timeout() bool   { return e.timeout }
func (e *mockNetError) Temporary() bool { return false }

func testRetryConfig(attempts int) *config.RetryConfig {
	return &config.RetryConfig{
		MaxAttempts:       attempts,
		InitialBackoff:    common.NewDuration(time.Millisecond),
		MaxBackoff:        common.NewDuration(5 * time.Millisecond),
		BackoffMultiplier: 2,
	}
}

func TestRetryableError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{name: "nil error", err: nil, retryable: false},
		{name: "network error", err: &mockNetError{msg: "network timeout", timeout: true}, retryable: true},
		{name: "connection refused", err: syscall.ECONNREFUSED, retryable: true},
		{name: "wrapped connection reset", err: fmt.Errorf("dial: %w", syscall.ECONNRESET), retryable: true},
		{name: "timeout string", err: errors.New("operation timeout"), retryable: true},
		{name: "rate limited", err: errors.New("HTTP 429 Too Many Requests"), retryable: true},
		{name: "gateway", err: errors.New("502 Bad Gateway"), retryable: true},
		{name: "unexpected eof", err: errors.New("unexpected EOF"), retryable: true},
		{name: "cancelled", err: context.Canceled, retryable: false},
		{name: "invalid params", err: errors.New("invalid argument 0: hex string without 0x prefix"), retryable: false},
		{name: "too many results", err: errors.New("query returned more than 10000 results"), retryable: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.retryable, retryableError(tt.err))
		})
	}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := &config.RetryConfig{
		MaxAttempts:       10,
		InitialBackoff:    common.NewDuration(100 * time.Millisecond),
		MaxBackoff:        common.NewDuration(time.Second),
		BackoffMultiplier: 2,
	}

	require.Zero(t, calculateBackoff(1, cfg))

	tests := []struct {
		attempt int
		base    time.Duration
	}{
		{attempt: 2, base: 100 * time.Millisecond},
		{attempt: 3, base: 200 * time.Millisecond},
		{attempt: 4, base: 400 * time.Millisecond},
		{attempt: 8, base: time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt %d", tt.attempt), func(t *testing.T) {
			got := calculateBackoff(tt.attempt, cfg)
			require.GreaterOrEqual(t, got, tt.base*3/4)
			require.LessOrEqual(t, got, tt.base*5/4)
		})
	}
}

func TestRetryWithBackoff(t *testing.T) {
	t.Run("success after transient errors", func(t *testing.T) {
		calls := 0
		err := retryWithBackoff(context.Background(), testRetryConfig(5), "op", func() error {
			calls++
			if calls < 3 {
				return errors.New("503 service unavailable")
			}
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, 3, calls)
	})

	t.Run("non-retryable error stops immediately", func(t *testing.T) {
		calls := 0
		errBad := errors.New("execution reverted")
		err := retryWithBackoff(context.Background(), testRetryConfig(5), "op", func() error {
			calls++
			return errBad
		})
		require.ErrorIs(t, err, errBad)
		require.ErrorContains(t, err, "non-retryable")
		require.Equal(t, 1, calls)
	})

	t.Run("attempts exhausted", func(t *testing.T) {
		calls := 0
		err := retryWithBackoff(context.Background(), testRetryConfig(3), "op", func() error {
			calls++
			return errors.New("request timeout")
		})
		require.ErrorContains(t, err, "all 3 attempts failed")
		require.Equal(t, 3, calls)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		calls := 0
		err := retryWithBackoff(ctx, testRetryConfig(3), "op", func() error {
			calls++
			return nil
		})
		require.ErrorIs(t, err, context.Canceled)
		require.Zero(t, calls)
	})

	t.Run("nil config runs once", func(t *testing.T) {
		calls := 0
		err := retryWithBackoff(context.Background(), nil, "op", func() error {
			calls++
			return errors.New("request timeout")
		})
		require.Error(t, err)
		require.Equal(t, 1, calls)
	})
}
