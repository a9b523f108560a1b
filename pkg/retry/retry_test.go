package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func fast(opts ...Option) *Retrier {
	base := []Option{WithInitialDelay(0), WithJitter(0)}
	return New(append(base, opts...)...)
}

func TestDo_RetriesRetryableUntilSuccess(t *testing.T) {
	calls := 0
	err := fast(WithMaxAttempts(3)).Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return Retryable(errBoom)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ReturnsUnwrappedErrorAfterLastAttempt(t *testing.T) {
	calls := 0
	err := fast(WithMaxAttempts(2)).Do(context.Background(), func(context.Context) error {
		calls++
		return Retryable(errBoom)
	})

	assert.Equal(t, 2, calls)
	assert.Same(t, errBoom, err)
}

func TestDo_PlainErrorIsNotRetriedByDefault(t *testing.T) {
	calls := 0
	err := fast().Do(context.Background(), func(context.Context) error {
		calls++
		return errBoom
	})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, errBoom)
}

func TestDo_PermanentStopsCustomPolicy(t *testing.T) {
	calls := 0
	r := fast(WithMaxAttempts(5), WithRetryIf(func(error) bool { return true }))
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return Permanent(errBoom)
	})

	assert.Equal(t, 1, calls)
	assert.Same(t, errBoom, err)
}

func TestDo_OnRetryCallback(t *testing.T) {
	var attempts []int
	r := fast(WithMaxAttempts(3), WithOnRetry(func(attempt int, _ error, _ time.Duration) {
		attempts = append(attempts, attempt)
	}))
	_ = r.Do(context.Background(), func(context.Context) error { return Retryable(errBoom) })

	assert.Equal(t, []int{1, 2}, attempts)
}

func TestDo_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := fast().Do(ctx, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDoWithData(t *testing.T) {
	calls := 0
	v, err := DoWithData(context.Background(), fast(), func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, Retryable(errBoom)
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestCalculateDelay_Capped(t *testing.T) {
	r := New(WithInitialDelay(100*time.Millisecond), WithMaxDelay(300*time.Millisecond), WithJitter(0))

	assert.Equal(t, 100*time.Millisecond, r.calculateDelay(1))
	assert.Equal(t, 200*time.Millisecond, r.calculateDelay(2))
	assert.Equal(t, 300*time.Millisecond, r.calculateDelay(5))
}

func TestConnectRetrier_RetriesPlainErrors(t *testing.T) {
	var seen []error
	r := ConnectRetrier(func(_ int, err error, _ time.Duration) { seen = append(seen, err) })
	r.s.initial, r.s.jitter = 0, 0

	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		if calls == 4 {
			return Permanent(errBoom)
		}
		return errBoom
	})

	assert.Equal(t, 4, calls)
	assert.Same(t, errBoom, err)
	assert.Equal(t, []error{errBoom, errBoom, errBoom}, seen)
}
