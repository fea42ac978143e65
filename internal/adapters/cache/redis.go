package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pelyams/inventory_items_service/internal/domain"
)

// RedisCache stores opaque values under exact keys. It needs no pattern scan:
// callers name every key they want gone.
type RedisCache struct {
	client redis.UniversalClient
}

func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client}
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", domain.ErrCacheMiss, key)
		}
		return nil, fmt.Errorf("%w: failed to get %s from cache: %s", domain.ErrCache, key, err.Error())
	}
	return data, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := r.client.Set(ctx, key, value, ttl).Err()
	if err != nil {
		return fmt.Errorf("%w: failed to store %s to cache: %s", domain.ErrCache, key, err.Error())
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	err := r.client.Del(ctx, keys...).Err()
	if err != nil {
		return fmt.Errorf("%w: failed to delete %v from cache: %s", domain.ErrCache, keys, err.Error())
	}
	return nil
}
