// Package scheduler periodically enqueues population refreshes.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/raihan-suryanom/brawl-master-web/internal/domain/model"
	"github.com/raihan-suryanom/brawl-master-web/pkg/logger"
)

// ReasonSchedule tags jobs created by the scheduler.
const ReasonSchedule = "schedule"

// Enqueuer accepts refresh jobs.
type Enqueuer interface {
	EnqueueRefresh(ctx context.Context, job model.RefreshJob) error
}

// Scheduler enqueues a refresh for each configured scope on a cron spec.
// An empty spec disables it: Start and Stop become no-ops.
type Scheduler struct {
	spec     string
	scopes   []string
	enqueuer Enqueuer

	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex

	now    func() time.Time
	newID  func() string
	logger logger.Logger
}

// New parses spec and registers the refresh entry. Standard five-field specs
// and descriptors like "@every 5m" are accepted.
func New(spec string, scopes []string, enqueuer Enqueuer, opts ...Option) (*Scheduler, error) {
	s := &Scheduler{
		spec:     spec,
		scopes:   append([]string(nil), scopes...),
		enqueuer: enqueuer,
		now:      time.Now,
		newID:    uuid.NewString,
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	if spec == "" {
		return s, nil
	}
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(spec, func() { s.Trigger(s.ctx) }); err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidSchedule, spec, err)
	}
	return s, nil
}

// Enabled reports whether a schedule is configured.
func (s *Scheduler) Enabled() bool { return s.cron != nil }

// Start begins firing. Jobs inherit ctx until Stop.
func (s *Scheduler) Start(ctx context.Context) {
	if s.cron == nil {
		s.logger.Info(ctx, "refresh schedule disabled")
		return
	}
	s.mu.Lock()
	s.cancel()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.logger.Info(ctx, "starting refresh scheduler",
		logger.String("schedule", s.spec),
		logger.Int("scopes", len(s.scopes)),
	)
	s.cron.Start()
}

// Stop halts the cron loop and waits for a running trigger to finish.
func (s *Scheduler) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
		s.logger.Warn(ctx, "scheduler stop timed out")
	}
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()
}

// Trigger enqueues one refresh per scope right now and returns how many
// were accepted.
func (s *Scheduler) Trigger(ctx context.Context) int {
	accepted := 0
	for _, scope := range s.scopes {
		job := model.RefreshJob{
			ID:          s.newID(),
			Scope:       scope,
			Reason:      ReasonSchedule,
			RequestedAt: s.now(),
		}
		if err := s.enqueuer.EnqueueRefresh(ctx, job); err != nil {
			s.logger.Warn(ctx, "scheduled refresh not enqueued",
				logger.String("scope", model.ScopeLabel(scope)),
				logger.Error(err),
			)
			continue
		}
		accepted++
	}
	return accepted
}
