package redis

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// PubSubClient the Pub/Sub subset of *redis.Client
type PubSubClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// Publish sends payload on a Pub/Sub channel
func Publish(ctx context.Context, client PubSubClient, channel, payload string) error {
	if err := client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to channel %s: %w", channel, err)
	}
	return nil
}

// Subscribe opens a Pub/Sub subscription and waits for the server confirmation,
// so messages published after return are not missed.
func Subscribe(ctx context.Context, client PubSubClient, channel string) (*redis.PubSub, error) {
	ps := client.Subscribe(ctx, channel)
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("failed to subscribe to channel %s: %w", channel, err)
	}
	return ps, nil
}
