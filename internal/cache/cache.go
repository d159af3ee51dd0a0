package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Store is a key/value cache with per-key TTL. Implementations must fail
// soft: a broken backend degrades every Get to a miss and every write to a
// logged no-op, never an error surfaced to the caller.
type Store interface {
	// Get unmarshals the cached value for key into out and reports a hit.
	Get(ctx context.Context, key string, out any) bool
	// Set stores val under key for ttl, overwriting any previous value.
	Set(ctx context.Context, key string, val any, ttl time.Duration)
	// Invalidate deletes the given keys.
	Invalidate(ctx context.Context, keys ...string)
	// InvalidatePrefix deletes every key beginning with prefix.
	InvalidatePrefix(ctx context.Context, prefix string)
}

// RedisStore implements Store on a Redis client.
type RedisStore struct {
	rdb    *redis.Client
	logger *zerolog.Logger
}

func NewRedisStore(rdb *redis.Client, logger *zerolog.Logger) *RedisStore {
	return &RedisStore{rdb: rdb, logger: logger}
}

func (s *RedisStore) Get(ctx context.Context, key string, out any) bool {
	val, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Str("key", key).Msg("cache get failed, treating as miss")
		}
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("cache entry corrupt, treating as miss")
		return false
	}
	return true
}

func (s *RedisStore) Set(ctx context.Context, key string, val any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("cache marshal failed, skipping set")
		return
	}
	if err := s.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}

func (s *RedisStore) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn().Err(err).Strs("keys", keys).Msg("cache invalidate failed")
	}
}

func (s *RedisStore) InvalidatePrefix(ctx context.Context, prefix string) {
	iter := s.rdb.Scan(ctx, 0, prefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		s.logger.Warn().Err(err).Str("prefix", prefix).Msg("cache prefix scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn().Err(err).Str("prefix", prefix).Msg("cache prefix invalidate failed")
	}
}

// Noop is a Store that caches nothing. Used when Redis is not configured;
// every read recomputes.
type Noop struct{}

func (Noop) Get(context.Context, string, any) bool           { return false }
func (Noop) Set(context.Context, string, any, time.Duration) {}
func (Noop) Invalidate(context.Context, ...string)           {}
func (Noop) InvalidatePrefix(context.Context, string)        {}
