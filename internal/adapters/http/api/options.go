package api

import "github.com/raihan-suryanom/brawl-master-web/pkg/logger"

const defaultMaxLimit = 100

// Option configures the API server.
type Option func(*options)

type options struct {
	maxLimit    int
	corsOrigins []string
	logger      logger.Logger
}

// WithMaxLimit caps the leaderboard limit parameter.
func WithMaxLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxLimit = n
		}
	}
}

// WithCORSOrigins sets the origins allowed to call the API from a browser.
func WithCORSOrigins(origins ...string) Option {
	return func(o *options) {
		o.corsOrigins = append([]string(nil), origins...)
	}
}

// WithLogger sets the logger used by handlers and panic recovery.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
