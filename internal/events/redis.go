package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher publishes events to a Redis pub/sub channel, for an
// external collaborator process (an HTTP status API, a messaging bot) to
// subscribe to independently of this orchestrator's own lifecycle.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher builds a Publisher over an existing Redis client.
func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = "taskflow:events"
	}
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, evt Event) error {
	raw, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, raw).Err()
}
