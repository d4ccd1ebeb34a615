package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variables read by Load itself.
const (
	EnvPrefix  = "BRAWL_"
	EnvConfig  = "BRAWL_CONFIG"
	EnvEnvFile = "BRAWL_ENV_FILE"

	defaultEnvFile = ".env"
)

// Load builds a Config by layering defaults, optional .env, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. .env file (BRAWL_ENV_FILE, or ./.env when present); never overrides
//     variables already set in the process environment
//  3. file (YAML) if BRAWL_CONFIG is set
//  4. env (prefix BRAWL_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if path := os.Getenv(EnvConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// BRAWL_QUEUE_SIZE -> queue_size; underscores are kept to match the
	// flat koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadDotEnv() error {
	path, explicit := os.LookupEnv(EnvEnvFile)
	if !explicit || path == "" {
		path = defaultEnvFile
	}
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
}

// Validate checks the values Load cannot type-check.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be at least 1", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be at least 1", ErrInvalidConfig)
	case c.RefreshFanout < 1:
		return fmt.Errorf("%w: refresh_fanout must be at least 1", ErrInvalidConfig)
	case c.MaxLeaderboardLimit < 1:
		return fmt.Errorf("%w: max_leaderboard_limit must be at least 1", ErrInvalidConfig)
	case c.UpstreamRPS <= 0:
		return fmt.Errorf("%w: upstream_rps must be positive", ErrInvalidConfig)
	case c.UpstreamMaxRetries < 0:
		return fmt.Errorf("%w: upstream_max_retries must not be negative", ErrInvalidConfig)
	}

	u, err := url.Parse(c.UpstreamURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: upstream_url %q is not an absolute URL", ErrInvalidConfig, c.UpstreamURL)
	}

	switch c.CacheBackend {
	case CacheMemory, CacheNone:
	case CacheRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: redis_addr is required for the redis cache", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown cache_backend %q", ErrInvalidConfig, c.CacheBackend)
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
