// Package dedupe tracks idempotency keys for refresh jobs and game
// submissions.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Deduper records seen keys to ensure at-most-once processing.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so a failed operation can be retried with the same
	// key (e.g. after queue backpressure or an upstream error).
	Unrecord(ctx context.Context, id string)

	Size() int64
}

type entry struct {
	id       string
	recorded time.Time
}

// inMemoryDeduper keeps keys in insertion order. When bounded, the oldest
// key is evicted first; when a TTL is set, expired keys count as unseen.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List // front = oldest
	maxSize int        // <= 0 means unbounded
	ttl     time.Duration
	now     func() time.Time
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 50000,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]*list.Element)
	d.order = list.New()
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	d.expire(now)

	if _, ok := d.seen[id]; ok {
		return true
	}

	if d.maxSize > 0 && d.order.Len() >= d.maxSize {
		d.remove(d.order.Front())
	}
	d.seen[id] = d.order.PushBack(&entry{id: id, recorded: now})
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[id]; ok {
		d.remove(el)
	}
}

// expire drops keys older than the TTL. Must be called with d.mu held.
func (d *inMemoryDeduper) expire(now time.Time) {
	if d.ttl <= 0 {
		return
	}
	for el := d.order.Front(); el != nil; el = d.order.Front() {
		if now.Sub(el.Value.(*entry).recorded) < d.ttl {
			return
		}
		d.remove(el)
	}
}

// remove must be called with d.mu held.
func (d *inMemoryDeduper) remove(el *list.Element) {
	if el == nil {
		return
	}
	e := d.order.Remove(el).(*entry)
	delete(d.seen, e.id)
	d.size.Add(-1)
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
