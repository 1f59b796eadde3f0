// Package cache provides a redis-backed, TTL-bounded cache for aggregated
// post lists. All methods are nil-receiver safe so callers can wire the
// cache conditionally.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/cityzenmag/socialhub/model"
)

// DefaultTTL bounds cached entries when no TTL is configured.
const DefaultTTL = 60 * time.Second

// PostCache caches aggregated post lists keyed by request shape.
type PostCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New connects to redis and verifies the connection with a ping.
func New(ctx context.Context, addr, password string, db int, ttl time.Duration) (*PostCache, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	log.Info().Str("addr", addr).Dur("ttl", ttl).Msg("Connected to redis post cache")
	return &PostCache{rdb: rdb, ttl: ttl}, nil
}

// Get returns the cached posts for key, or ok=false on miss or error.
func (c *PostCache) Get(ctx context.Context, key string) ([]model.UnifiedPost, bool) {
	if c == nil {
		return nil, false
	}

	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("key", key).Msg("Post cache read failed")
		}
		return nil, false
	}

	var posts []model.UnifiedPost
	if err := json.Unmarshal(data, &posts); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Post cache entry corrupt, dropping")
		c.rdb.Del(ctx, key)
		return nil, false
	}
	return posts, true
}

// Set stores posts under key for the configured TTL. Failures are logged,
// never surfaced; the cache is best-effort.
func (c *PostCache) Set(ctx context.Context, key string, posts []model.UnifiedPost) {
	if c == nil {
		return
	}

	data, err := json.Marshal(posts)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Post cache encode failed")
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Post cache write failed")
	}
}

// Close releases the redis connection.
func (c *PostCache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
