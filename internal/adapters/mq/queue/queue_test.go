package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/raihan-suryanom/brawl-master-web/internal/domain/model"
)

func job(id, scope string) Job {
	return model.RefreshJob{ID: id, Scope: scope, Reason: "test", RequestedAt: time.Now()}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if c := q.Cap(); c != 2 {
		t.Errorf("expected capacity 2, got %d", c)
	}

	if !q.Enqueue(ctx, job("j1", "s1")) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.ID != "j1" || got.Scope != "s1" {
		t.Errorf("unexpected job %+v", got)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Backpressure(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, job("j1", "")) || !q.Enqueue(ctx, job("j2", "")) {
		t.Fatal("expected first two enqueues to succeed")
	}
	if q.Enqueue(ctx, job("j3", "")) {
		t.Error("expected enqueue to fail when full")
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if q.Enqueue(ctx, job("j1", "")) {
		t.Error("expected enqueue with cancelled context to fail")
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	ctx := context.Background()

	_ = q.Enqueue(ctx, job("j1", ""))
	_ = q.Enqueue(ctx, job("j2", ""))
	if err := q.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to report closed")
	}
	if q.Enqueue(ctx, job("j3", "")) {
		t.Error("expected enqueue after close to fail")
	}

	var drained []string
	for j := range q.Dequeue(ctx) {
		drained = append(drained, j.ID)
	}
	if fmt.Sprint(drained) != "[j1 j2]" {
		t.Errorf("expected queued jobs to drain in order, got %v", drained)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(16))
	ctx := context.Background()
	const producers, perProducer = 8, 50

	received := make(chan string, producers*perProducer)
	var consumers sync.WaitGroup
	for i := 0; i < 4; i++ {
		consumers.Add(1)
		go func() {
			defer consumers.Done()
			for j := range q.Dequeue(ctx) {
				received <- j.ID
			}
		}()
	}

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				for !q.Enqueue(ctx, job(fmt.Sprintf("j%d_%d", p, i), "")) {
					time.Sleep(time.Millisecond)
				}
			}
		}(p)
	}
	wg.Wait()
	_ = q.Close()
	consumers.Wait()
	close(received)

	seen := make(map[string]bool)
	for id := range received {
		if seen[id] {
			t.Errorf("job %s delivered twice", id)
		}
		seen[id] = true
	}
	if len(seen) != producers*perProducer {
		t.Errorf("expected %d jobs, got %d", producers*perProducer, len(seen))
	}
}
