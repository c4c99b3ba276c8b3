package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/ankon07/medvault-ai-sub000/common/config"

	"github.com/go-redis/redis/v8"
)

const (
	dialTimeout = 5 * time.Second
	pingTimeout = 5 * time.Second
)

// Connect builds a client for the feed, inbox and dedup keys and checks the server answers.
// The client is closed again when the check fails.
func Connect(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis %s (db %d) unreachable: %w", cfg.Addr, cfg.DB, err)
	}
	return client, nil
}
