package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/avelane/seowatch/internal/config"
)

const keyPrefix = "seowatch:"

// RedisCache backs the cache with a Redis server.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a Redis-backed cache from cfg.
func NewRedisCache(cfg config.CacheConfig) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return &RedisCache{client: client}
}

// Ping verifies the connection.
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Get implements Cache. Backend errors count as misses.
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	value, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Debug("Redis get failed", "key", key, "error", err)
		return nil, false
	}
	return value, true
}

// Set implements Cache. Backend errors are logged and dropped.
func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := r.client.Set(ctx, keyPrefix+key, value, ttl).Err(); err != nil {
		slog.Debug("Redis set failed", "key", key, "error", err)
	}
}

// Close releases the client connections.
func (r *RedisCache) Close() error {
	return r.client.Close()
}
