package service

import (
	"time"

	"github.com/raihan-suryanom/brawl-master-web/internal/adapters/repository"
	"github.com/raihan-suryanom/brawl-master-web/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of refresh workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the refresh queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize bounds the remembered refresh ids and game keys.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithGameKeyTTL sets how long a game Idempotency-Key is remembered.
func WithGameKeyTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.gameKeyTTL = ttl
		}
	}
}

// WithLoadTimeout bounds a synchronous refresh triggered by a store miss.
func WithLoadTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.loadTimeout = d
		}
	}
}

// WithRefreshFanout bounds concurrent per-player fetches of a global refresh.
func WithRefreshFanout(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fanout = n
		}
	}
}

// WithSchedule enables periodic refresh of scopes. An empty spec disables it.
func WithSchedule(spec string, scopes []string) Option {
	return func(s *Service) {
		s.schedule = spec
		s.scheduledScopes = append([]string(nil), scopes...)
	}
}

// WithStore replaces the default treap store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
