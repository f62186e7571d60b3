package notify

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/hotelops/hotel-backend/internal/queue"
)

// RedisPublisher publishes events on a pub/sub channel.  A nil client turns
// Emit into a no-op.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

func NewRedisPublisher(rdb *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: channel}
}

func (p *RedisPublisher) Emit(ctx context.Context, ev queue.Event) error {
	if p.rdb == nil {
		return nil
	}
	body, err := encode(ev)
	if err != nil {
		return fmt.Errorf("redis: marshal event: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, body).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", ev.Name, err)
	}
	return nil
}
