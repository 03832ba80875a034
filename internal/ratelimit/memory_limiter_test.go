package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterBoundary(t *testing.T) {
	l := NewMemoryLimiter(120, 15*time.Minute)
	ctx := context.Background()
	key := Key("inv-1", "10.0.0.1")

	for i := 0; i < 120; i++ {
		d, err := l.Allow(ctx, key)
		require.NoError(t, err)
		require.True(t, d.Allowed, "request %d should pass", i+1)
	}

	d, err := l.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, d.Allowed, "121st request must be rejected")
	assert.Greater(t, d.RetryAfter, time.Duration(0))
}

func TestMemoryLimiterWindowReset(t *testing.T) {
	l := NewMemoryLimiter(2, time.Minute)
	now := time.Unix(1700000000, 0)
	l.SetClock(func() time.Time { return now })

	ctx := context.Background()
	key := Key("inv-1", "10.0.0.1")

	for i := 0; i < 2; i++ {
		d, err := l.Allow(ctx, key)
		require.NoError(t, err)
		require.True(t, d.Allowed)
	}

	d, _ := l.Allow(ctx, key)
	require.False(t, d.Allowed)
	assert.Equal(t, time.Minute, d.RetryAfter)

	// One second before the boundary: still limited.
	now = now.Add(time.Minute - time.Second)
	d, _ = l.Allow(ctx, key)
	require.False(t, d.Allowed)
	assert.Equal(t, time.Second, d.RetryAfter)

	// Exactly at the boundary the window resets.
	now = now.Add(time.Second)
	d, _ = l.Allow(ctx, key)
	assert.True(t, d.Allowed)
}

func TestMemoryLimiterKeysAreIndependent(t *testing.T) {
	l := NewMemoryLimiter(1, time.Minute)
	ctx := context.Background()

	d, _ := l.Allow(ctx, Key("inv-1", "10.0.0.1"))
	require.True(t, d.Allowed)
	d, _ = l.Allow(ctx, Key("inv-1", "10.0.0.1"))
	require.False(t, d.Allowed)

	// Same invitation, different address: separate bucket.
	d, _ = l.Allow(ctx, Key("inv-1", "10.0.0.2"))
	assert.True(t, d.Allowed)
	d, _ = l.Allow(ctx, Key("inv-2", "10.0.0.1"))
	assert.True(t, d.Allowed)
}

func TestMemoryLimiterConcurrentCharging(t *testing.T) {
	l := NewMemoryLimiter(50, time.Minute)
	ctx := context.Background()
	key := Key("inv-1", "10.0.0.1")

	var wg sync.WaitGroup
	allowed := make(chan bool, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := l.Allow(ctx, key)
			assert.NoError(t, err)
			allowed <- d.Allowed
		}()
	}
	wg.Wait()
	close(allowed)

	n := 0
	for ok := range allowed {
		if ok {
			n++
		}
	}
	assert.Equal(t, 50, n, "exactly the limit must be admitted under concurrency")
}
