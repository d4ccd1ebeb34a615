package scheduler

import (
	"time"

	"github.com/raihan-suryanom/brawl-master-web/pkg/logger"
)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source stamped on jobs.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides job id generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Scheduler) {
		if gen != nil {
			s.newID = gen
		}
	}
}
