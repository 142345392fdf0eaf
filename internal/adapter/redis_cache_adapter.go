package adapter

import (
	"context"
	"errors"
	"time"

	"service-hub/internal/domain"

	"github.com/redis/go-redis/v9"
)

// RedisCacheAdapter stores embedding cache entries as plain Redis strings.
type RedisCacheAdapter struct {
	client redis.UniversalClient
}

// NewRedisCacheAdapter wraps a client that has already been pinged.
func NewRedisCacheAdapter(client redis.UniversalClient) domain.Cache {
	return &RedisCacheAdapter{client: client}
}

func (r *RedisCacheAdapter) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return "", domain.ErrCacheMiss
	case err != nil:
		return "", err
	}
	return val, nil
}

func (r *RedisCacheAdapter) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// Ping backs the redis entry of the health endpoint.
func (r *RedisCacheAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
