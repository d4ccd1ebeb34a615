package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/raihan-suryanom/brawl-master-web/internal/adapters/cache"
	"github.com/raihan-suryanom/brawl-master-web/internal/adapters/http/api"
	"github.com/raihan-suryanom/brawl-master-web/internal/adapters/http/site"
	"github.com/raihan-suryanom/brawl-master-web/internal/adapters/http/swagger"
	"github.com/raihan-suryanom/brawl-master-web/internal/adapters/upstream"
	app "github.com/raihan-suryanom/brawl-master-web/internal/app"
	"github.com/raihan-suryanom/brawl-master-web/internal/config"
	"github.com/raihan-suryanom/brawl-master-web/pkg/logger"
	"github.com/raihan-suryanom/brawl-master-web/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	cacheSweepInterval        = time.Minute
	nanosecondsPerMillisecond = 1e6
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		// logger may not be initialized yet
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, closeCache, err := newCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	client, err := upstream.New(cfg.UpstreamURL,
		upstream.WithTimeout(cfg.UpstreamTimeout()),
		upstream.WithRateLimit(cfg.UpstreamRPS, cfg.UpstreamBurst),
		upstream.WithMaxRetries(cfg.UpstreamMaxRetries),
		upstream.WithCache(store, cfg.CacheTTL()),
		upstream.WithLogger(log.Named("upstream")),
	)
	if err != nil {
		return fmt.Errorf("failed to create upstream client: %w", err)
	}

	svc := app.New(client,
		app.WithLogger(log.Named("service")),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithRefreshFanout(cfg.RefreshFanout),
		app.WithSchedule(cfg.RefreshSchedule, cfg.Scopes()),
	)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)
	if m, ok := store.(*cache.Memory); ok {
		go startCacheSweeper(ctx, m)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, cfg, svc, log),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("upstream", cfg.UpstreamURL),
			logger.String("cache", cfg.CacheBackend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}
	if err := svc.Stop(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "service shutdown failed", logger.Error(err))
	}

	log.Info(shutdownCtx, "server stopped")
	return nil
}

// newCache builds the configured response cache and its cleanup.
func newCache(ctx context.Context, cfg *config.Config) (cache.Cache, func(), error) {
	switch cfg.CacheBackend {
	case config.CacheRedis:
		r, err := cache.NewRedis(ctx, cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return r, func() { _ = r.Close() }, nil
	case config.CacheNone:
		return cache.Nop{}, func() {}, nil
	default:
		return cache.NewMemory(), func() {}, nil
	}
}

// newHandler registers the API, docs and landing page routes.
func newHandler(ctx context.Context, cfg *config.Config, deps api.Dependencies, log logger.Logger) http.Handler {
	mux := http.NewServeMux()

	server := api.NewServer(deps,
		api.WithMaxLimit(cfg.MaxLeaderboardLimit),
		api.WithCORSOrigins(cfg.Origins()...),
		api.WithLogger(log.Named("http")),
	)
	server.Register(ctx, mux)
	swagger.Register(ctx, mux)
	site.Register(ctx, mux)

	return server.Handler(mux)
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater refreshes queue and store gauges.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// GetStats updates the gauges as a side effect.
			_ = svc.GetStats(ctx)
		}
	}
}

func startCacheSweeper(ctx context.Context, m *cache.Memory) {
	ticker := time.NewTicker(cacheSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
