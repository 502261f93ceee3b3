package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrCacheMiss key not present in redis
var ErrCacheMiss = errors.New("redis: cache miss")

// RedisRepository 定义接口
type RedisRepository[T any] interface {
	Set(ctx context.Context, key string, value T, ttl time.Duration) error
	// SetNX write only when key is absent, reports whether it wrote
	SetNX(ctx context.Context, key string, value T, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (T, error)
	Del(ctx context.Context, key string) error
	GetTTL(ctx context.Context, key string) (int, error)
	ExtendTTL(ctx context.Context, key string, ttl time.Duration) error
}

type redisRepository[T any] struct {
	client *redis.Client
}

// NewRedisClient init Redis Sentinel connection
func NewRedisClient(masterName string, sentinelAddrs []string, db int) (*redis.Client, error) {
	rdb := redis.NewFailoverClient(&redis.FailoverOptions{
		MasterName:    masterName,
		SentinelAddrs: sentinelAddrs,
		DB:            db,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis sentinel: %w", err)
	}

	return rdb, nil
}

// NewRedisStandaloneClient init a single node Redis connection
func NewRedisStandaloneClient(addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: db})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis %s: %w", addr, err)
	}
	return rdb, nil
}

// NewRedisRepository init Redis repository (Set, SetNX, Get, Del, GetTTL, ExtendTTL)
func NewRedisRepository[T any](client *redis.Client) RedisRepository[T] {
	return &redisRepository[T]{client: client}
}

func (r *redisRepository[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisRepository[T]) SetNX(ctx context.Context, key string, value T, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	return r.client.SetNX(ctx, key, data, ttl).Result()
}

func (r *redisRepository[T]) Get(ctx context.Context, key string) (T, error) {
	var zeroValue T
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return zeroValue, ErrCacheMiss
	} else if err != nil {
		return zeroValue, fmt.Errorf("failed to get %s: %w", key, err)
	}

	var result T
	if err := json.Unmarshal(val, &result); err != nil {
		return zeroValue, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}

	return result, nil
}

func (r *redisRepository[T]) Del(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *redisRepository[T]) ExtendTTL(ctx context.Context, key string, ttl time.Duration) error {
	return r.client.Expire(ctx, key, ttl).Err()
}

func (r *redisRepository[T]) GetTTL(ctx context.Context, key string) (int, error) {
	ttl, err := r.client.TTL(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	} else if err != nil {
		return 0, fmt.Errorf("failed to get TTL for key %s: %w", key, err)
	}

	if ttl < 0 {
		return 0, nil
	}

	return int(ttl.Seconds()), nil
}
