// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/raihan-suryanom/brawl-master-web/internal/adapters/mq/queue"
	"github.com/raihan-suryanom/brawl-master-web/internal/adapters/mq/worker"
	"github.com/raihan-suryanom/brawl-master-web/internal/adapters/repository"
	"github.com/raihan-suryanom/brawl-master-web/internal/adapters/scheduler"
	"github.com/raihan-suryanom/brawl-master-web/internal/adapters/upstream"
	"github.com/raihan-suryanom/brawl-master-web/internal/domain/dedupe"
	"github.com/raihan-suryanom/brawl-master-web/internal/domain/model"
	"github.com/raihan-suryanom/brawl-master-web/internal/domain/profile"
	"github.com/raihan-suryanom/brawl-master-web/internal/domain/types"
	"github.com/raihan-suryanom/brawl-master-web/pkg/logger"
	"github.com/raihan-suryanom/brawl-master-web/pkg/metrics"
)

// Refresh reasons.
const (
	ReasonAPI          = "api"
	ReasonGameRecorded = "game_recorded"
	ReasonOnDemand     = "on_demand"
)

const (
	defaultGameKeyTTL  = 24 * time.Hour
	defaultLoadTimeout = 30 * time.Second
)

// Upstream is the part of the statistics API client the service uses.
type Upstream interface {
	worker.Source
	PlayerCombinations(ctx context.Context, playerID string, size int, seriesID string) ([]model.PlayerCombination, error)
	SeriesPtsProgression(ctx context.Context, seriesID string) ([]model.PtsProgression, error)
	CreateSeries(ctx context.Context, req model.NewSeriesRequest) (model.Series, error)
	CreateGame(ctx context.Context, seriesID string, req model.NewGameRequest) (model.Game, error)
}

// Service implements the API dependencies for the statistics dashboard.
type Service struct {
	mu sync.RWMutex

	upstream  Upstream
	store     repository.Store
	fetcher   worker.Fetcher
	queue     queue.Queue
	pool      *worker.Pool
	scheduler *scheduler.Scheduler
	flight    singleflight.Group

	// jobKeys remembers client refresh ids, inflight coalesces refreshes
	// per scope until a worker finishes, gameKeys guards game submissions.
	jobKeys  dedupe.Deduper
	inflight dedupe.Deduper
	gameKeys dedupe.Deduper

	workerCount     int
	queueSize       int
	dedupeSize      int
	gameKeyTTL      time.Duration
	loadTimeout     time.Duration
	fanout          int
	schedule        string
	scheduledScopes []string

	started bool
	logger  logger.Logger
}

// New constructs a Service over the statistics API. Background workers run
// only after Start.
func New(up Upstream, opts ...Option) *Service {
	s := &Service{
		upstream:    up,
		workerCount: runtime.NumCPU(),
		queueSize:   1024,
		dedupeSize:  10000,
		gameKeyTTL:  defaultGameKeyTTL,
		loadTimeout: defaultLoadTimeout,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		s.store = repository.NewTreapStore()
	}
	s.store = observedStore{s.store}
	s.fetcher = freshFetcher{worker.NewUpstreamFetcher(up, s.fanout)}
	s.jobKeys = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.inflight = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
	s.gameKeys = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize), dedupe.WithTTL(s.gameKeyTTL))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s.fetcher, s.store,
		worker.WithLogger(s.logger),
		worker.WithOnDone(s.refreshDone),
	)
	return s
}

// Start launches the refresh workers and the scheduler.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	sched, err := scheduler.New(s.schedule, s.scheduledScopes, s,
		scheduler.WithLogger(s.logger.Named("scheduler")))
	if err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	s.scheduler = sched

	s.pool.Start(ctx)
	s.scheduler.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "stats service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("schedule", s.schedule),
	)
	return nil
}

// Stop halts the scheduler, closes the queue and waits for the workers.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping stats service...")

	s.scheduler.Stop(ctx)
	err := s.pool.Shutdown(ctx)

	s.started = false
	s.logger.Info(ctx, "stats service stopped")
	return err
}

// Profile normalizes a player's aggregates against the scope's population.
// A scope or player missing from the store triggers one synchronous refresh.
func (s *Service) Profile(ctx context.Context, scope, playerID string) (types.Profile, error) {
	subject, population, err := s.subjectAndPopulation(ctx, scope, playerID)
	if err != nil {
		return types.Profile{}, err
	}

	start := time.Now()
	bounds, err := profile.ComputeBounds(population)
	if err != nil {
		return types.Profile{}, fmt.Errorf("profile %s: %w", playerID, err)
	}
	out := types.Profile{
		PlayerID: subject.PlayerID,
		Name:     subject.Name,
		Color:    subject.Color,
		Picture:  subject.Picture,
		Scope:    scope,
		Metrics:  bounds.Profile(subject),
	}

	var degenerate []string
	for _, m := range out.Metrics {
		if !m.IsFinite() {
			degenerate = append(degenerate, m.Metric)
		}
	}
	metrics.RecordProfileComputed(float64(time.Since(start).Microseconds())/1000, degenerate)
	if len(degenerate) > 0 {
		s.logger.Debug(ctx, "profile has degenerate metrics",
			logger.String("player", playerID),
			logger.String("scope", model.ScopeLabel(scope)),
			logger.Any("metrics", degenerate),
		)
	}
	return out, nil
}

func (s *Service) subjectAndPopulation(ctx context.Context, scope, playerID string) (model.PlayerStats, []model.PlayerStats, error) {
	refreshed, err := s.ensureScope(ctx, scope)
	if err != nil {
		return model.PlayerStats{}, nil, err
	}

	subject, err := s.store.Get(ctx, scope, playerID)
	if errors.Is(err, repository.ErrNotFound) && !refreshed {
		if err := s.loadScope(ctx, scope); err != nil {
			return model.PlayerStats{}, nil, err
		}
		subject, err = s.store.Get(ctx, scope, playerID)
	}
	if err != nil {
		return model.PlayerStats{}, nil, fmt.Errorf("player %s in %s: %w", playerID, model.ScopeLabel(scope), err)
	}

	population, err := s.store.Population(ctx, scope)
	if err != nil {
		return model.PlayerStats{}, nil, fmt.Errorf("population %s: %w", model.ScopeLabel(scope), err)
	}
	return subject, population, nil
}

// ensureScope loads scope if the store has never seen it.
func (s *Service) ensureScope(ctx context.Context, scope string) (bool, error) {
	if _, err := s.store.UpdatedAt(ctx, scope); err == nil {
		return false, nil
	}
	return true, s.loadScope(ctx, scope)
}

// loadScope refreshes scope synchronously. Concurrent callers share one
// fetch, which outlives any single caller's context and is bounded by the
// load timeout instead.
func (s *Service) loadScope(ctx context.Context, scope string) error {
	ch := s.flight.DoChan(scopeKey(scope), func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.loadTimeout)
		defer cancel()

		start := time.Now()
		population, err := s.fetcher.FetchPopulation(fctx, scope)
		if err == nil {
			err = s.store.Replace(fctx, scope, population)
		}
		if err != nil {
			metrics.RecordRefreshFailed(ReasonOnDemand)
			return nil, fmt.Errorf("refresh %s: %w", model.ScopeLabel(scope), err)
		}
		metrics.RecordRefreshProcessed(ReasonOnDemand, float64(time.Since(start).Microseconds())/1000)
		return nil, nil
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Leaderboard returns the top n of a scope's population.
func (s *Service) Leaderboard(ctx context.Context, scope string, n int) (types.Leaderboard, error) {
	if _, err := s.ensureScope(ctx, scope); err != nil {
		return types.Leaderboard{}, err
	}
	entries, err := s.store.TopN(ctx, scope, n)
	if err != nil {
		return types.Leaderboard{}, err
	}
	updated, err := s.store.UpdatedAt(ctx, scope)
	if err != nil {
		return types.Leaderboard{}, err
	}

	board := types.Leaderboard{
		Scope:     scope,
		UpdatedAt: updated,
		Total:     s.store.Count(ctx, scope),
		Entries:   make([]types.Entry, len(entries)),
	}
	for i, e := range entries {
		board.Entries[i] = toEntry(e)
	}
	return board, nil
}

// Rank returns the leaderboard entry of one player.
func (s *Service) Rank(ctx context.Context, scope, playerID string) (types.Entry, error) {
	if _, err := s.ensureScope(ctx, scope); err != nil {
		return types.Entry{}, err
	}
	e, err := s.store.Rank(ctx, scope, playerID)
	if err != nil {
		return types.Entry{}, fmt.Errorf("rank %s: %w", playerID, err)
	}
	return toEntry(e), nil
}

func toEntry(e repository.Entry) types.Entry {
	return types.Entry{Rank: e.Rank, PlayerStats: e.Stats}
}

// Combinations passes through the upstream combination view.
func (s *Service) Combinations(ctx context.Context, scope, playerID string, size int) ([]model.PlayerCombination, error) {
	return s.upstream.PlayerCombinations(ctx, playerID, size, scope)
}

// PtsProgression passes through the upstream progression view.
func (s *Service) PtsProgression(ctx context.Context, seriesID string) ([]model.PtsProgression, error) {
	return s.upstream.SeriesPtsProgression(ctx, seriesID)
}

// CreateSeries submits a new series upstream.
func (s *Service) CreateSeries(ctx context.Context, req model.NewSeriesRequest) (model.Series, error) {
	return s.upstream.CreateSeries(ctx, req)
}

// RecordGame submits a game once per key and schedules refreshes of the
// affected scopes. Without a key, the series and game number identify it.
func (s *Service) RecordGame(ctx context.Context, seriesID, key string, req model.NewGameRequest) (model.Game, bool, error) {
	if key == "" {
		key = fmt.Sprintf("#%d", req.GameNumber)
	}
	key = seriesID + "/" + key

	if s.gameKeys.SeenAndRecord(ctx, key) {
		metrics.RecordGameDuplicate()
		s.logger.Debug(ctx, "duplicate game submission", logger.String("key", key))
		return model.Game{}, true, nil
	}

	game, err := s.upstream.CreateGame(ctx, seriesID, req)
	if err != nil {
		s.gameKeys.Unrecord(ctx, key)
		return model.Game{}, false, err
	}
	metrics.RecordGameSubmitted()

	// Bypasses coalescing: a refresh already running may have read
	// pre-game data.
	for _, scope := range []string{seriesID, model.GlobalScope} {
		job := model.RefreshJob{ID: uuid.NewString(), Scope: scope, Reason: ReasonGameRecorded, RequestedAt: time.Now()}
		if !s.queue.Enqueue(ctx, job) {
			s.logger.Warn(ctx, "refresh after game not enqueued", logger.String("scope", model.ScopeLabel(scope)))
		}
	}
	return game, false, nil
}

// RequestRefresh enqueues a refresh on behalf of an API client. A repeated
// id, or a scope whose refresh is still pending, is reported as duplicate.
func (s *Service) RequestRefresh(ctx context.Context, scope, id string) (string, bool, error) {
	clientID := id != ""
	if !clientID {
		id = uuid.NewString()
	} else if s.jobKeys.SeenAndRecord(ctx, id) {
		metrics.RecordRefreshDuplicate()
		return id, true, nil
	}

	err := s.EnqueueRefresh(ctx, model.RefreshJob{ID: id, Scope: scope, Reason: ReasonAPI, RequestedAt: time.Now()})
	switch {
	case errors.Is(err, ErrRefreshPending):
		return id, true, nil
	case err != nil:
		if clientID {
			s.jobKeys.Unrecord(ctx, id)
		}
		return "", false, err
	}
	return id, false, nil
}

// EnqueueRefresh queues job unless a refresh of the same scope is pending.
func (s *Service) EnqueueRefresh(ctx context.Context, job model.RefreshJob) error {
	key := scopeKey(job.Scope)
	if s.inflight.SeenAndRecord(ctx, key) {
		metrics.RecordRefreshDuplicate()
		return fmt.Errorf("%w: %s", ErrRefreshPending, model.ScopeLabel(job.Scope))
	}
	job.Coalesced = true
	if !s.queue.Enqueue(ctx, job) {
		s.inflight.Unrecord(ctx, key)
		if s.queue.IsClosed() {
			return queue.ErrClosed
		}
		return fmt.Errorf("refresh %s: %w", model.ScopeLabel(job.Scope), queue.ErrBackpressure)
	}
	return nil
}

// refreshDone releases the scope slot taken by EnqueueRefresh. Jobs queued
// around it, such as refreshes after a game, never held one.
func (s *Service) refreshDone(ctx context.Context, job worker.Job, _ error) {
	if job.Coalesced {
		s.inflight.Unrecord(ctx, scopeKey(job.Scope))
	}
}

func scopeKey(scope string) string { return "scope:" + scope }

type scopeStats struct {
	Scope     string    `json:"scope"`
	Players   int       `json:"players"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()

	scopes := s.store.Scopes(ctx)
	perScope := make([]scopeStats, 0, len(scopes))
	for _, scope := range scopes {
		updated, _ := s.store.UpdatedAt(ctx, scope)
		perScope = append(perScope, scopeStats{
			Scope:     model.ScopeLabel(scope),
			Players:   s.store.Count(ctx, scope),
			UpdatedAt: updated,
		})
	}

	queueLen := s.queue.Len(ctx)
	metrics.UpdateQueueSize(queueLen)
	metrics.UpdateStoreScopes(len(scopes))

	return map[string]any{
		"started":          started,
		"workerCount":      s.pool.Size(),
		"queueLength":      queueLen,
		"queueCapacity":    s.queue.Cap(),
		"refreshesPending": s.inflight.Size(),
		"refreshIds":       s.jobKeys.Size(),
		"gameKeys":         s.gameKeys.Size(),
		"schedule":         s.schedule,
		"scopes":           perScope,
	}
}

// observedStore keeps the store gauges current.
type observedStore struct {
	repository.Store
}

func (o observedStore) Replace(ctx context.Context, scope string, population []model.PlayerStats) error {
	if err := o.Store.Replace(ctx, scope, population); err != nil {
		return err
	}
	metrics.UpdateStorePlayers(model.ScopeLabel(scope), len(population))
	metrics.UpdateStoreScopes(len(o.Store.Scopes(ctx)))
	return nil
}

// freshFetcher bypasses the response cache so refreshes see new games.
type freshFetcher struct {
	worker.Fetcher
}

func (f freshFetcher) FetchPopulation(ctx context.Context, scope string) ([]model.PlayerStats, error) {
	return f.Fetcher.FetchPopulation(upstream.Fresh(ctx), scope)
}
