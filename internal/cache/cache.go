// Package cache provides a small byte cache used to serve repeated
// dashboard reads without recomputing the snapshot. Redis backs it when
// available, with an in-process fallback otherwise. The cache is
// best-effort throughout: a miss or a backend error never fails the
// caller.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/avelane/seowatch/internal/config"
)

// Cache stores values with a per-entry TTL.
type Cache interface {
	// Get returns the cached value and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// New selects the backend from cfg. An empty Redis address or an
// unreachable server falls back to the in-process cache.
func New(cfg config.CacheConfig) Cache {
	if cfg.RedisAddr == "" {
		return NewMemoryCache()
	}

	redisCache := NewRedisCache(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := redisCache.Ping(ctx); err != nil {
		slog.Warn("Redis unreachable, using in-process cache", "addr", cfg.RedisAddr, "error", err)
		return NewMemoryCache()
	}

	slog.Info("Using Redis cache", "addr", cfg.RedisAddr)
	return redisCache
}
