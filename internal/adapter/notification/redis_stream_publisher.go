package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"service-hub/internal/domain"

	"github.com/redis/go-redis/v9"
)

// MessageTypeProviderMatch tags intents telling a provider about a matching request.
const MessageTypeProviderMatch = "provider_match"

// RedisStreamPublisher hands notification intents to a Redis stream consumed
// by the delivery workers (email / SMS). Delivery is not tracked here.
type RedisStreamPublisher struct {
	client redis.UniversalClient
	stream string
	maxLen int64
}

// NewRedisStreamPublisher creates a publisher. maxLen caps the stream with
// approximate trimming; zero leaves it unbounded.
func NewRedisStreamPublisher(client redis.UniversalClient, stream string, maxLen int64) *RedisStreamPublisher {
	return &RedisStreamPublisher{client: client, stream: stream, maxLen: maxLen}
}

func (p *RedisStreamPublisher) Publish(ctx context.Context, intent *domain.NotificationIntent) error {
	if intent == nil {
		return fmt.Errorf("%w: nil intent", domain.ErrNotificationDispatchFailed)
	}

	payload, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("%w: encode intent: %w", domain.ErrNotificationDispatchFailed, err)
	}

	args := p.xaddArgs(intent, payload)
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("%w: xadd %s: %w", domain.ErrNotificationDispatchFailed, p.stream, err)
	}
	return nil
}

func (p *RedisStreamPublisher) xaddArgs(intent *domain.NotificationIntent, payload []byte) *redis.XAddArgs {
	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: []interface{}{
			"type", MessageTypeProviderMatch,
			"intent_id", intent.ID,
			"provider_id", intent.ProviderID,
			"payload", string(payload),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	return args
}
