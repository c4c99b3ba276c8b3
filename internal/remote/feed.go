package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	commonredis "github.com/ankon07/medvault-ai-sub000/common/redis"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Feed change notifications per partition. Payloads carry no data; listeners re-read the partition.
type Feed interface {
	Publish(ctx context.Context, kind, profileID string) error
	// Listen blocks until ctx is done. onReady runs once the listener is attached,
	// onSignal on every change, onError on transport failures (listening continues).
	Listen(ctx context.Context, kind, profileID string, onReady, onSignal func(), onError func(error)) error
}

// RedisFeed Feed over Redis Pub/Sub
type RedisFeed struct {
	client     commonredis.PubSubClient
	prefix     string
	retryDelay time.Duration
	logger     *zap.Logger
}

// NewRedisFeed creates a Redis Pub/Sub feed; prefix namespaces the channels (e.g. "medvault:feed:")
func NewRedisFeed(client commonredis.PubSubClient, prefix string, logger *zap.Logger) *RedisFeed {
	return &RedisFeed{
		client:     client,
		prefix:     prefix,
		retryDelay: time.Second,
		logger:     logger,
	}
}

// Channel <prefix><kind>:<profileID>
func (f *RedisFeed) Channel(kind, profileID string) string {
	return fmt.Sprintf("%s%s:%s", f.prefix, kind, profileID)
}

// Publish signals a change on the partition channel
func (f *RedisFeed) Publish(ctx context.Context, kind, profileID string) error {
	return commonredis.Publish(ctx, f.client, f.Channel(kind, profileID), time.Now().UTC().Format(time.RFC3339Nano))
}

// Listen subscribes and dispatches signals until ctx is cancelled
func (f *RedisFeed) Listen(ctx context.Context, kind, profileID string, onReady, onSignal func(), onError func(error)) error {
	channel := f.Channel(kind, profileID)
	ps, err := commonredis.Subscribe(ctx, f.client, channel)
	if err != nil {
		return err
	}
	defer ps.Close()

	f.logger.Debug("Feed listener attached", zap.String("channel", channel))
	onReady()

	for {
		msg, err := ps.ReceiveMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, redis.ErrClosed) {
				return nil
			}
			onError(fmt.Errorf("feed %s: %w", channel, err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(f.retryDelay):
			}
			continue
		}
		f.logger.Debug("Feed signal", zap.String("channel", msg.Channel))
		onSignal()
	}
}
