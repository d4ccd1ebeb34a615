// Package worker runs population refresh jobs: fetch a scope's aggregates
// from upstream and swap them into the store.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/raihan-suryanom/brawl-master-web/internal/adapters/mq/queue"
	"github.com/raihan-suryanom/brawl-master-web/internal/domain/model"
	"github.com/raihan-suryanom/brawl-master-web/pkg/logger"
	"github.com/raihan-suryanom/brawl-master-web/pkg/metrics"
)

const (
	defaultJobTimeout   = 30 * time.Second
	poolShutdownTimeout = 30 * time.Second
)

// Job is what workers read off the queue.
type Job = queue.Job

// Fetcher loads the current population of a scope.
type Fetcher interface {
	FetchPopulation(ctx context.Context, scope string) ([]model.PlayerStats, error)
}

// Replacer stores a freshly fetched population.
type Replacer interface {
	Replace(ctx context.Context, scope string, population []model.PlayerStats) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes refresh jobs.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue      Queue
	fetcher    Fetcher
	replacer   Replacer
	name       string
	jobTimeout time.Duration
	onDone     DoneFunc

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, fetcher Fetcher, replacer Replacer, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:      q,
		fetcher:    fetcher,
		replacer:   replacer,
		name:       "worker",
		jobTimeout: defaultJobTimeout,
		onDone:     func(context.Context, Job, error) {},
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			err := w.process(ctx, job)
			if err != nil {
				w.logger.Error(ctx, "refresh failed",
					logger.String("job", job.ID),
					logger.String("scope", model.ScopeLabel(job.Scope)),
					logger.Error(err),
				)
			}
			w.onDone(ctx, job, err)
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, job Job) error {
	start := time.Now()
	metrics.AddWorkerActive(1)
	defer metrics.AddWorkerActive(-1)

	ctx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	population, err := w.fetcher.FetchPopulation(ctx, job.Scope)
	if err != nil {
		metrics.RecordRefreshFailed(job.Reason)
		metrics.RecordErrorByComponent("worker", "fetch")
		return fmt.Errorf("fetch %s: %w", model.ScopeLabel(job.Scope), err)
	}
	if err := w.replacer.Replace(ctx, job.Scope, population); err != nil {
		metrics.RecordRefreshFailed(job.Reason)
		metrics.RecordErrorByComponent("worker", "store")
		return fmt.Errorf("store %s: %w", model.ScopeLabel(job.Scope), err)
	}

	elapsed := time.Since(start)
	metrics.RecordRefreshProcessed(job.Reason, float64(elapsed.Microseconds())/1000)
	w.logger.Debug(ctx, "population refreshed",
		logger.String("job", job.ID),
		logger.String("scope", model.ScopeLabel(job.Scope)),
		logger.Int("players", len(population)),
		logger.Duration("took", elapsed),
	)
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates workerCount workers reading from q. Options apply to every
// worker; each gets its own name.
func NewPool(workerCount int, q Queue, fetcher Fetcher, replacer Replacer, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Nop(),
	}
	for i := range p.workers {
		workerOpts := append(append([]Option{}, opts...), WithName("worker-"+strconv.Itoa(i)))
		p.workers[i] = NewInMemoryWorker(q, fetcher, replacer, workerOpts...)
	}
	p.logger = p.workers[0].logger
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue, then waits for every worker to stop.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var firstErr error
	for i, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
