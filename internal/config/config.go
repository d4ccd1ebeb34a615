// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, .env, YAML and BRAWL_* environment variables.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"runtime"
	"strings"
	"time"

	"github.com/raihan-suryanom/brawl-master-web/internal/domain/model"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// globalScopeName is how the global population is spelled in refresh_scopes.
const globalScopeName = "global"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// UpstreamURL is the base URL of the statistics API.
	UpstreamURL       string  `koanf:"upstream_url"`
	UpstreamTimeoutMS int     `koanf:"upstream_timeout_ms"`
	UpstreamRPS       float64 `koanf:"upstream_rps"`
	UpstreamBurst     int     `koanf:"upstream_burst"`
	// UpstreamMaxRetries applies to GET requests only.
	UpstreamMaxRetries int `koanf:"upstream_max_retries"`

	// CacheBackend is memory, redis or none.
	CacheBackend    string `koanf:"cache_backend"`
	CacheTTLSeconds int    `koanf:"cache_ttl_seconds"`
	RedisAddr       string `koanf:"redis_addr"`
	RedisPassword   string `koanf:"redis_password"`
	RedisDB         int    `koanf:"redis_db"`

	// QueueSize bounds the in-memory refresh queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of refresh workers.
	WorkerCount int `koanf:"worker_count"`
	// DedupeSize sets the size of the idempotency key set.
	DedupeSize int `koanf:"dedupe_size"`
	// RefreshFanout caps concurrent per-player fetches in a global refresh.
	RefreshFanout int `koanf:"refresh_fanout"`

	// RefreshSchedule is a cron spec; empty disables scheduled refreshes.
	RefreshSchedule string `koanf:"refresh_schedule"`
	// RefreshScopes is a comma-separated list of series ids; "global" means
	// all players.
	RefreshScopes string `koanf:"refresh_scopes"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// CORSOrigins is a comma-separated list of allowed dashboard origins.
	CORSOrigins string `koanf:"cors_origins"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		UpstreamURL:         "http://localhost:7239/api",
		UpstreamTimeoutMS:   5000,
		UpstreamRPS:         20,
		UpstreamBurst:       10,
		UpstreamMaxRetries:  3,
		CacheBackend:        CacheMemory,
		CacheTTLSeconds:     30,
		RedisAddr:           "localhost:6379",
		QueueSize:           1024,
		WorkerCount:         runtime.NumCPU(),
		DedupeSize:          10_000,
		RefreshFanout:       8,
		RefreshSchedule:     "@every 5m",
		RefreshScopes:       globalScopeName,
		MaxLeaderboardLimit: 100,
		CORSOrigins:         "http://localhost:3000",
	}
}

// UpstreamTimeout returns UpstreamTimeoutMS as a duration.
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutMS) * time.Millisecond
}

// CacheTTL returns CacheTTLSeconds as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Scopes parses RefreshScopes. "global" maps to model.GlobalScope.
func (c *Config) Scopes() []string {
	var out []string
	for _, s := range splitList(c.RefreshScopes) {
		if strings.EqualFold(s, globalScopeName) {
			s = model.GlobalScope
		}
		out = append(out, s)
	}
	return out
}

// Origins parses CORSOrigins.
func (c *Config) Origins() []string {
	return splitList(c.CORSOrigins)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
