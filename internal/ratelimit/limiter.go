package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of one rate-slot acquisition. RetryAfter is only
// meaningful when Allowed is false.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter hands out request slots from a fixed time window per key. Both
// implementations count atomically so concurrent duplicate submissions are
// charged correctly.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// Key builds the throttling key for an interview request.
func Key(invitationID, clientIP string) string {
	return invitationID + ":" + clientIP
}
