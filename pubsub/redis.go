// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package pubsub

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Channel carries poll ids whose live views are stale
const Channel = "quickly-poll:poll-changed"

// RedisPublisher forwards invalidations to other server processes
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(ctx context.Context, url string) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("error parsing redis URL: %w", err)
	}

	c := redis.NewClient(opts)
	if err := c.Ping(ctx).Err(); err != nil {
		c.Close()
		return nil, fmt.Errorf("error connecting to redis: %w", err)
	}

	return &RedisPublisher{client: c}, nil
}

// PollChanged publishes pollID. Failures are logged: live views are a
// convenience and must never fail a vote.
func (p *RedisPublisher) PollChanged(ctx context.Context, pollID string) {
	if err := p.client.Publish(ctx, Channel, pollID).Err(); err != nil {
		slog.Warn("failed to publish poll invalidation", "poll_id", pollID, "error", err)
	}
}

// Relay feeds invalidations published by any process into the local hub
// until ctx is done.
func (p *RedisPublisher) Relay(ctx context.Context, hub *Hub) {
	sub := p.client.Subscribe(ctx, Channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			hub.PollChanged(ctx, msg.Payload)
		}
	}
}

func (p *RedisPublisher) Close() error {
	if err := p.client.Close(); err != nil {
		return fmt.Errorf("error closing redis client: %w", err)
	}
	return nil
}
