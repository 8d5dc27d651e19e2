package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "pixgallery/pkg/errors"
	"pixgallery/pkg/logger"
)

func fastConfig(max int) *Config {
	return &Config{
		MaxAttempts: max,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		Logger:      logger.NewTestLogger(),
	}
}

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   time.Second,
		Multiplier: 2.0,
	}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 0},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second},
		{9, time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, backoff.NextDelay(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestExponentialBackoffJitterBounds(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.3,
	}
	for i := 0; i < 50; i++ {
		d := backoff.NextDelay(2)
		assert.GreaterOrEqual(t, d, 140*time.Millisecond)
		assert.LessOrEqual(t, d, 260*time.Millisecond)
	}
}

func TestDoRetriesTransientErrors(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errs.New(errs.ErrorTypeNetwork, 0, "reset", nil)
		}
		return nil
	}, fastConfig(5))

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoStopsAtMaxAttempts(t *testing.T) {
	attempts := 0
	cfg := fastConfig(3)
	var retried []int
	cfg.OnRetry = func(attempt int, _ error, _ time.Duration) { retried = append(retried, attempt) }

	err := Do(context.Background(), func() error {
		attempts++
		return errs.New(errs.ErrorTypeServerError, 503, "unavailable", nil)
	}, cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retry attempts (3) exceeded")
	assert.Equal(t, errs.ErrorTypeServerError, errs.TypeOf(err))
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestDoDoesNotRetryPermanentErrors(t *testing.T) {
	for _, e := range []error{
		errs.New(errs.ErrorTypeNotFound, 404, "gone", nil),
		errors.New("disk full"),
		context.Canceled,
	} {
		attempts := 0
		err := Do(context.Background(), func() error {
			attempts++
			return e
		}, fastConfig(5))
		assert.ErrorIs(t, err, e)
		assert.Equal(t, 1, attempts)
	}
}

func TestDoHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig(0)
	cfg.Backoff = &ConstantBackoff{Delay: time.Hour}
	cfg.OnRetry = func(int, error, time.Duration) { cancel() }

	err := Do(ctx, func() error {
		return errs.New(errs.ErrorTypeRateLimit, 429, "slow down", nil)
	}, cfg)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestErrorTypeBackoff(t *testing.T) {
	etb := NewErrorTypeBackoff()

	assert.Same(t, etb.Network, etb.For(errs.New(errs.ErrorTypeNetwork, 0, "", nil)))
	assert.Same(t, etb.RateLimit, etb.For(errs.New(errs.ErrorTypeRateLimit, 429, "", nil)))
	assert.Same(t, etb.Server, etb.For(errs.New(errs.ErrorTypeServerError, 500, "", nil)))
	assert.Same(t, etb.Default, etb.For(errors.New("other")))
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	data, err := DoWithResult(context.Background(), func() ([]byte, error) {
		attempts++
		if attempts == 1 {
			return nil, errs.New(errs.ErrorTypeNetwork, 0, "reset", nil)
		}
		return []byte("jpeg"), nil
	}, fastConfig(3))

	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), data)
}
