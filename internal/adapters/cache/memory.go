package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/raihan-suryanom/brawl-master-web/pkg/metrics"
)

type item struct {
	data    []byte
	expires time.Time // zero means no expiry
}

// Memory is an in-process cache guarded by a mutex. Expired items are
// dropped lazily on read and by Sweep.
type Memory struct {
	mu    sync.Mutex
	items map[string]item
	now   func() time.Time
}

// MemoryOption configures Memory.
type MemoryOption func(*Memory)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemory creates an empty in-memory cache.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{items: make(map[string]item), now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Get(_ context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	it, ok := m.items[key]
	if ok && !it.expires.IsZero() && !m.now().Before(it.expires) {
		delete(m.items, key)
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		metrics.RecordCacheMiss(BackendMemory)
		return false, nil
	}
	if err := json.Unmarshal(it.data, dest); err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrDecode, key, err)
	}
	metrics.RecordCacheHit(BackendMemory)
	return true, nil
}

func (m *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrEncode, key, err)
	}
	it := item{data: data}
	if ttl > 0 {
		it.expires = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.items[key] = it
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

// Sweep removes expired items and returns how many were dropped.
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	n := 0
	for k, it := range m.items {
		if !it.expires.IsZero() && !now.Before(it.expires) {
			delete(m.items, k)
			n++
		}
	}
	return n
}

// Len returns the number of stored items, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}
