package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/allisson/identity/internal/errors"
)

// RedisCache implements Cache backed by Redis.
type RedisCache struct {
	client           *redis.Client
	operationTimeout time.Duration
}

// NewRedisCache creates a Redis-backed cache. The URL uses the standard
// redis:// scheme, for example "redis://localhost:6379/0".
func NewRedisCache(url string, operationTimeout time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to parse redis url")
	}
	return &RedisCache{
		client:           redis.NewClient(opts),
		operationTimeout: operationTimeout,
	}, nil
}

// Ping verifies connectivity to the Redis server.
func (c *RedisCache) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.operationTimeout)
	defer cancel()

	if err := c.client.Ping(ctx).Err(); err != nil {
		return apperrors.Wrap(apperrors.ErrUnavailable, err.Error())
	}
	return nil
}

// Set stores value under key with the given time to live.
func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, c.operationTimeout)
	defer cancel()

	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return apperrors.Wrap(apperrors.ErrUnavailable, err.Error())
	}
	return nil
}

// Get returns the value for key.
func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.operationTimeout)
	defer cancel()

	value, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrUnavailable, err.Error())
	}
	return value, nil
}

// GetDel atomically returns and removes the value for key. The server-side
// GETDEL command guarantees that two concurrent callers cannot both observe
// the same value.
func (c *RedisCache) GetDel(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.operationTimeout)
	defer cancel()

	value, err := c.client.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrUnavailable, err.Error())
	}
	return value, nil
}

// Close releases the underlying client connections.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
