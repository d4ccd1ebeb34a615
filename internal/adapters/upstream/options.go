package upstream

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/raihan-suryanom/brawl-master-web/internal/adapters/cache"
	"github.com/raihan-suryanom/brawl-master-web/pkg/logger"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds each attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRateLimit sets the token bucket shared by all requests.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 {
			if burst < 1 {
				burst = 1
			}
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithCache caches GET responses for ttl.
func WithCache(store cache.Cache, ttl time.Duration) Option {
	return func(c *Client) {
		if store != nil {
			c.cache = store
			c.cacheTTL = ttl
		}
	}
}

// WithMaxRetries sets how many times a failed GET is retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithBackoff sets the first retry delay; it doubles on each attempt.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.backoff = d
		}
	}
}

// WithLogger sets the client's logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}
