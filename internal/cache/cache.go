package cache

import (
	"context"
	"time"
)

// Cache is a small JSON read-through layer; the invitation service uses it
// to keep hot invitation rows off Postgres during an active interview.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}
