package database

import (
	"context"
	"fmt"

	"github.com/wayakart27/ecommerce-sub002/config"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis returns a client after a successful PING, or nil when no
// address is configured.
func ConnectRedis(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}
