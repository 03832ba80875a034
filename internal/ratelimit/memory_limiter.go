package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter is the in-process implementation, used by tests and
// single-node deployments without Redis. Same fixed-window semantics as
// RedisLimiter.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*window
	limit   int
	span    time.Duration
	now     func() time.Time
}

type window struct {
	count   int
	started time.Time
}

func NewMemoryLimiter(limit int, span time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		buckets: make(map[string]*window),
		limit:   limit,
		span:    span,
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.buckets[key]
	if !ok || now.Sub(w.started) >= l.span {
		w = &window{started: now}
		l.buckets[key] = w
	}

	if w.count < l.limit {
		w.count++
		return Decision{Allowed: true}, nil
	}
	return Decision{RetryAfter: w.started.Add(l.span).Sub(now)}, nil
}

// SetClock overrides the time source for tests.
func (l *MemoryLimiter) SetClock(now func() time.Time) { l.now = now }
