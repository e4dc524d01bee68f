package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/match-engine/internal/config"
)

// LikesReceivedTTL bounds how stale a cached count may get if an
// invalidation is lost.
const LikesReceivedTTL = time.Hour

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

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

// Publish sends payload to a pub/sub channel.
func (c *RedisCache) Publish(ctx context.Context, channel string, payload []byte) error {
	return c.Client.Publish(ctx, channel, payload).Err()
}

// KeyForLikesReceived generates the Redis key for a user's received-likes count.
func (c *RedisCache) KeyForLikesReceived(userID uint64) string {
	return fmt.Sprintf("likes:received:%d", userID)
}

func (c *RedisCache) SetLikesReceived(ctx context.Context, userID uint64, count int64) error {
	// Always refresh TTL when updating
	return c.Client.Set(ctx, c.KeyForLikesReceived(userID), count, LikesReceivedTTL).Err()
}

// GetLikesReceived returns the cached count; ok is false on a cache miss.
func (c *RedisCache) GetLikesReceived(ctx context.Context, userID uint64) (int64, bool, error) {
	key := c.KeyForLikesReceived(userID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}

	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

// InvalidateLikesReceived drops the cached count so the next read goes to the DB.
func (c *RedisCache) InvalidateLikesReceived(ctx context.Context, userID uint64) error {
	return c.Del(ctx, c.KeyForLikesReceived(userID))
}
