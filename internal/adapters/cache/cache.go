// Package cache stores upstream responses for a bounded time. Values are
// JSON-encoded so every backend round-trips the same way.
package cache

import (
	"context"
	"time"
)

// Cache is a TTL key/value store for upstream responses.
type Cache interface {
	// Get decodes the value stored under key into dest. It reports false
	// when the key is missing or expired.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Backend names, also used as metric labels.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// Nop caches nothing.
type Nop struct{}

func (Nop) Get(context.Context, string, any) (bool, error)        { return false, nil }
func (Nop) Set(context.Context, string, any, time.Duration) error { return nil }
func (Nop) Delete(context.Context, string) error                  { return nil }
