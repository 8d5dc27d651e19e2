package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestTokenBucket(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	tb := NewTokenBucket(5, time.Second)
	tb.now = clock.Now
	tb.lastRefill = clock.Now()

	for i := 0; i < 5; i++ {
		assert.True(t, tb.Allow(), "token %d", i+1)
	}
	assert.False(t, tb.Allow())
	assert.Equal(t, 0, tb.Remaining())

	clock.Advance(time.Second)
	assert.Equal(t, 5, tb.Remaining())
	assert.True(t, tb.Allow())

	tb.Reset()
	assert.Equal(t, 5, tb.Remaining())
}

func TestSlidingWindow(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	sw := NewSlidingWindow(3, time.Minute)
	sw.now = clock.Now

	for i := 0; i < 3; i++ {
		require.True(t, sw.Allow())
		clock.Advance(10 * time.Second)
	}
	assert.False(t, sw.Allow())
	assert.Equal(t, 0, sw.Remaining())

	// first request was at t=0; at t=60s it leaves the window
	clock.Advance(30 * time.Second)
	assert.Equal(t, 1, sw.Remaining())
	assert.True(t, sw.Allow())
	assert.False(t, sw.Allow())

	sw.Reset()
	assert.Equal(t, 3, sw.Remaining())
}

func TestWaitHonorsContext(t *testing.T) {
	sw := NewSlidingWindow(1, time.Hour)
	require.True(t, sw.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := sw.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestWaitReturnsWhenSlotFrees(t *testing.T) {
	tb := NewTokenBucket(1, 50*time.Millisecond)
	require.True(t, tb.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, tb.Wait(ctx))
}

func TestLimitersImplementInterface(t *testing.T) {
	var _ Limiter = NewTokenBucket(1, time.Second)
	var _ Limiter = NewSlidingWindow(1, time.Second)
}
