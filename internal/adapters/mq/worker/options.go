package worker

import (
	"context"
	"time"

	"github.com/raihan-suryanom/brawl-master-web/pkg/logger"
)

// DoneFunc is called after every job, with the job's error if any.
type DoneFunc func(ctx context.Context, job Job, err error)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithJobTimeout bounds a single refresh.
func WithJobTimeout(d time.Duration) Option {
	return func(w *InMemoryWorker) {
		if d > 0 {
			w.jobTimeout = d
		}
	}
}

// WithOnDone registers a completion hook.
func WithOnDone(fn DoneFunc) Option {
	return func(w *InMemoryWorker) {
		if fn != nil {
			w.onDone = fn
		}
	}
}
