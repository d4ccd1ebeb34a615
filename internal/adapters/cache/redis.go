package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/raihan-suryanom/brawl-master-web/pkg/metrics"
)

const defaultKeyPrefix = "brawl:"

// RedisOptions configures NewRedis.
type RedisOptions struct {
	Addr        string
	Password    string
	DB          int
	KeyPrefix   string
	DialTimeout time.Duration
}

// Redis is a cache backed by a Redis server.
type Redis struct {
	rdb    *redis.Client
	prefix string
}

// NewRedis connects and pings the server.
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.DialTimeout,
		MaxRetries:  -1,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%w: connect %s: %w", ErrRedis, opts.Addr, err)
	}
	return NewRedisFromClient(rdb, opts.KeyPrefix), nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(rdb *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &Redis{rdb: rdb, prefix: prefix}
}

func (r *Redis) key(k string) string { return r.prefix + k }

func (r *Redis) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.RecordCacheMiss(BackendRedis)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: get %s: %w", ErrRedis, key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrDecode, key, err)
	}
	metrics.RecordCacheHit(BackendRedis)
	return true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrEncode, key, err)
	}
	if err := r.rdb.Set(ctx, r.key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %w", ErrRedis, key, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: del %s: %w", ErrRedis, key, err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (r *Redis) Close() error {
	return r.rdb.Close()
}
