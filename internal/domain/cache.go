package domain

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss means the key holds no value. It is not a failure.
var ErrCacheMiss = errors.New("cache miss")

// Cache is the key/value store behind the embedding cache. Values are opaque
// encoded strings.
type Cache interface {
	// Get returns ErrCacheMiss for an absent or expired key.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key for ttl; a zero ttl never expires.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Ping(ctx context.Context) error
}
