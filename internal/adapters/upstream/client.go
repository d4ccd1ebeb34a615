// Package upstream is a typed client for the remote statistics API that
// owns players, series, games and all aggregation.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/raihan-suryanom/brawl-master-web/internal/adapters/cache"
	"github.com/raihan-suryanom/brawl-master-web/internal/domain/model"
	"github.com/raihan-suryanom/brawl-master-web/pkg/logger"
	"github.com/raihan-suryanom/brawl-master-web/pkg/metrics"
)

// DefaultBaseURL is where the statistics API listens in development.
const DefaultBaseURL = "http://localhost:7239/api"

const (
	defaultTimeout    = 5 * time.Second
	defaultMaxRetries = 3
	defaultBackoff    = 200 * time.Millisecond
	maxErrorBody      = 4 << 10
)

// Client talks to the statistics API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	http       *http.Client
	limiter    *rate.Limiter
	cache      cache.Cache
	cacheTTL   time.Duration
	maxRetries int
	backoff    time.Duration
	logger     logger.Logger
}

// New creates a client for baseURL, e.g. "http://localhost:7239/api".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: base url %q", ErrInvalidArgument, baseURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Inf, 1),
		cache:      cache.Nop{},
		maxRetries: defaultMaxRetries,
		backoff:    defaultBackoff,
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Players lists every registered player.
func (c *Client) Players(ctx context.Context) ([]model.Player, error) {
	return getJSON[[]model.Player](ctx, c, "/players", nil)
}

func (c *Client) Player(ctx context.Context, id string) (model.Player, error) {
	return getJSON[model.Player](ctx, c, "/players/"+url.PathEscape(id), nil)
}

func (c *Client) SeriesList(ctx context.Context) ([]model.Series, error) {
	return getJSON[[]model.Series](ctx, c, "/series", nil)
}

func (c *Client) Series(ctx context.Context, id string) (model.Series, error) {
	return getJSON[model.Series](ctx, c, "/series/"+url.PathEscape(id), nil)
}

func (c *Client) Games(ctx context.Context, seriesID string) ([]model.Game, error) {
	return getJSON[[]model.Game](ctx, c, "/series/"+url.PathEscape(seriesID)+"/games", nil)
}

// SeriesStats returns the aggregates of every participant of a series.
func (c *Client) SeriesStats(ctx context.Context, seriesID string) ([]model.PlayerStats, error) {
	return getJSON[[]model.PlayerStats](ctx, c, "/series/"+url.PathEscape(seriesID)+"/stats", nil)
}

func (c *Client) SeriesPtsProgression(ctx context.Context, seriesID string) ([]model.PtsProgression, error) {
	return getJSON[[]model.PtsProgression](ctx, c, "/series/"+url.PathEscape(seriesID)+"/pts-progression", nil)
}

// PlayerStats returns a player's aggregates, across all series when
// seriesID is empty.
func (c *Client) PlayerStats(ctx context.Context, playerID, seriesID string) (model.PlayerStats, error) {
	q := url.Values{}
	if seriesID != "" {
		q.Set("seriesId", seriesID)
	}
	return getJSON[model.PlayerStats](ctx, c, "/players/"+url.PathEscape(playerID)+"/stats", q)
}

// PlayerCombinations returns the records of the groups of size 2 or 3 the
// player has been part of.
func (c *Client) PlayerCombinations(ctx context.Context, playerID string, size int, seriesID string) ([]model.PlayerCombination, error) {
	if size != 2 && size != 3 {
		return nil, fmt.Errorf("%w: combination size must be 2 or 3, got %d", ErrInvalidArgument, size)
	}
	q := url.Values{}
	q.Set("size", strconv.Itoa(size))
	if seriesID != "" {
		q.Set("seriesId", seriesID)
	}
	return getJSON[[]model.PlayerCombination](ctx, c, "/players/"+url.PathEscape(playerID)+"/combinations", q)
}

// CreateSeries validates and submits a new series.
func (c *Client) CreateSeries(ctx context.Context, req model.NewSeriesRequest) (model.Series, error) {
	if err := req.Validate(); err != nil {
		return model.Series{}, err
	}
	return postJSON[model.Series](ctx, c, "/series", req)
}

// CreateGame validates and records a game in a series.
func (c *Client) CreateGame(ctx context.Context, seriesID string, req model.NewGameRequest) (model.Game, error) {
	if err := req.Validate(); err != nil {
		return model.Game{}, err
	}
	return postJSON[model.Game](ctx, c, "/series/"+url.PathEscape(seriesID)+"/games", req)
}

type freshKey struct{}

// Fresh marks ctx so GETs skip cached answers. The response still refreshes
// the cache.
func Fresh(ctx context.Context) context.Context {
	return context.WithValue(ctx, freshKey{}, true)
}

func isFresh(ctx context.Context) bool {
	v, _ := ctx.Value(freshKey{}).(bool)
	return v
}

func getJSON[T any](ctx context.Context, c *Client, path string, query url.Values) (T, error) {
	var out T
	err := c.get(ctx, path, query, &out)
	return out, err
}

func postJSON[T any](ctx context.Context, c *Client, path string, payload any) (T, error) {
	var out T
	err := c.post(ctx, path, payload, &out)
	return out, err
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dest any) error {
	target := path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	if !isFresh(ctx) {
		if ok, err := c.cache.Get(ctx, target, dest); err != nil {
			c.logger.Warn(ctx, "cache read failed", logger.String("key", target), logger.Error(err))
		} else if ok {
			return nil
		}
	}

	body, err := c.do(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrUpstream, target, err)
	}

	if err := c.cache.Set(ctx, target, dest, c.cacheTTL); err != nil {
		c.logger.Warn(ctx, "cache write failed", logger.String("key", target), logger.Error(err))
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload, dest any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", ErrUpstream, path, err)
	}
	body, err := c.do(ctx, http.MethodPost, path, data)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrUpstream, path, err)
	}
	return nil
}

// do sends the request, retrying GETs on transport errors, 5xx and 429.
func (c *Client) do(ctx context.Context, method, target string, payload []byte) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %s %s: %w", ErrUpstream, method, target, err)
		}

		body, err := c.attempt(ctx, method, target, payload)
		if err == nil {
			return body, nil
		}
		if method != http.MethodGet || attempt >= c.maxRetries || !retryable(ctx, err) {
			return nil, err
		}

		delay := c.backoff << attempt
		c.logger.Debug(ctx, "retrying upstream request",
			logger.String("method", method),
			logger.String("target", target),
			logger.Int("attempt", attempt+1),
			logger.Duration("delay", delay),
			logger.Error(err),
		)
		metrics.RecordUpstreamRetry()

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: %s %s: %w", ErrUpstream, method, target, ctx.Err())
		case <-timer.C:
		}
	}
}

func (c *Client) attempt(ctx context.Context, method, target string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrUpstream, method, target, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		metrics.RecordUpstreamRequest(method, "error", elapsed)
		return nil, fmt.Errorf("%w: %s %s: %w", ErrUpstream, method, target, err)
	}
	defer resp.Body.Close()
	metrics.RecordUpstreamRequest(method, strconv.Itoa(resp.StatusCode), elapsed)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(resp.StatusCode, raw)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrUpstream, target, err)
	}
	return body, nil
}

// errorMessage prefers the API's {"message": ...} and falls back to the
// status text.
func errorMessage(code int, body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Message != "" {
		return payload.Message
	}
	return http.StatusText(code)
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	return true
}
