package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chatlink/anonchat/internal/config"
)

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

// IsMiss reports whether err is a plain cache miss rather than a store
// failure. Callers must treat everything else as unavailability.
func IsMiss(err error) bool {
	return errors.Is(err, redis.Nil)
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

func (c *RedisCache) Del(ctx context.Context, keys ...string) error {
	return c.Client.Del(ctx, keys...).Err()
}

func (c *RedisCache) Incr(ctx context.Context, key string) (int64, error) {
	return c.Client.Incr(ctx, key).Result()
}

func (c *RedisCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return c.Client.Expire(ctx, key, ttl).Err()
}

// --- list ops backing the waiting queues ---

// LPush pushes to the head of a list. New waiters enter at the head so
// the tail holds the longest-waiting user.
func (c *RedisCache) LPush(ctx context.Context, key string, value interface{}) error {
	return c.Client.LPush(ctx, key, value).Err()
}

// RPop pops from the tail of a list. The pop is a single Redis command,
// so two concurrent callers can never receive the same entry.
func (c *RedisCache) RPop(ctx context.Context, key string) (string, error) {
	return c.Client.RPop(ctx, key).Result()
}

// LRem removes every occurrence of value from the list.
func (c *RedisCache) LRem(ctx context.Context, key string, value interface{}) (int64, error) {
	return c.Client.LRem(ctx, key, 0, value).Result()
}

func (c *RedisCache) LLen(ctx context.Context, key string) (int64, error) {
	return c.Client.LLen(ctx, key).Result()
}

// --- key builders ---

// KeyForQueue generates the bucket key for a (gender filter, language
// filter) combination.
func KeyForQueue(gender int, language string) string {
	return fmt.Sprintf("queue:%d:%s", gender, language)
}

// KeyForUserPair generates the key of the user -> active pair id index.
func KeyForUserPair(userID int64) string {
	return fmt.Sprintf("user_pair:%d", userID)
}

// KeyForUserState generates the key of the user activity-state tag.
func KeyForUserState(userID int64) string {
	return fmt.Sprintf("user_state:%d", userID)
}

// KeyForRateLimit generates the key of the fixed-window message counter.
func KeyForRateLimit(userID int64) string {
	return fmt.Sprintf("rate_limit:%d", userID)
}
