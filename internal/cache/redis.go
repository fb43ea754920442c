package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"ordernow/internal/config"
)

// New creates a Redis client used for report result caching
func New(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr(),
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// Ping tests the Redis connection
func Ping(ctx context.Context, rdb *redis.Client) error {
	return rdb.Ping(ctx).Err()
}
