package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/raihan-suryanom/brawl-master-web/internal/domain/profile"
	"github.com/raihan-suryanom/brawl-master-web/internal/domain/types"
	"github.com/raihan-suryanom/brawl-master-web/pkg/logger"
)

// errSmokeFailed is returned when any check of a smoke run fails.
var errSmokeFailed = errors.New("smoke checks failed")

type smokeOptions struct {
	serviceURL string
	series     string
	limit      int
	workers    int
}

// smokeReport summarizes one run against a running service.
type smokeReport struct {
	Scope      string        `json:"scope"`
	Players    int           `json:"players"`
	Profiles   int           `json:"profiles"`
	Ranks      int           `json:"ranks"`
	Degenerate int           `json:"degenerateAxes"`
	Failures   []string      `json:"failures"`
	Duration   time.Duration `json:"durationNs"`
}

func newSmokeCommand(opts *globalOptions) *cobra.Command {
	so := &smokeOptions{}
	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Check a running brawl-stats service end to end",
		Long: `smoke checks service health, reads the leaderboard and then fetches the
rank and radar profile of every listed player concurrently. It verifies that
ranks agree with the leaderboard, that the leaderboard is ordered, and that
every finite axis lies within its full mark.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s := &smoker{
				base:   strings.TrimRight(so.serviceURL, "/"),
				client: &http.Client{Timeout: opts.timeout},
				log:    logger.Named("smoke"),
			}
			report, err := s.run(ctx, so)
			if err != nil {
				return err
			}
			if opts.jsonOut {
				if err := printJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			} else if err := printSmokeReport(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if len(report.Failures) > 0 {
				return fmt.Errorf("%w: %d problem(s)", errSmokeFailed, len(report.Failures))
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&so.serviceURL, "service", "http://localhost:9080", "brawl-stats service base URL")
	f.StringVar(&so.series, "series", "", "series id (default: all series)")
	f.IntVar(&so.limit, "limit", 10, "leaderboard size to check")
	f.IntVar(&so.workers, "workers", 4, "concurrent profile requests")
	return cmd
}

type smoker struct {
	base   string
	client *http.Client
	log    logger.Logger
}

func (s *smoker) run(ctx context.Context, so *smokeOptions) (smokeReport, error) {
	start := time.Now()
	report := smokeReport{Scope: so.series}

	if err := s.get(ctx, "/healthz", nil, nil); err != nil {
		return report, fmt.Errorf("service health check: %w", err)
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(so.limit))
	if so.series != "" {
		q.Set("seriesId", so.series)
	}
	var board types.Leaderboard
	if err := s.get(ctx, "/leaderboard", q, &board); err != nil {
		return report, fmt.Errorf("leaderboard: %w", err)
	}
	report.Players = len(board.Entries)
	s.log.Info(ctx, "leaderboard read", logger.Int("entries", len(board.Entries)), logger.Int("total", board.Total))

	var mu sync.Mutex
	fail := func(format string, args ...any) {
		mu.Lock()
		report.Failures = append(report.Failures, fmt.Sprintf(format, args...))
		mu.Unlock()
	}

	for i := 1; i < len(board.Entries); i++ {
		prev, cur := board.Entries[i-1], board.Entries[i]
		if cur.Pts > prev.Pts || cur.Rank < prev.Rank {
			fail("leaderboard out of order at position %d", i+1)
		}
	}

	scopeQuery := url.Values{}
	if so.series != "" {
		scopeQuery.Set("seriesId", so.series)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(so.workers, 1))
	for _, e := range board.Entries {
		g.Go(func() error {
			id := url.PathEscape(e.PlayerID)

			var rank types.Entry
			if err := s.get(gctx, "/rank/"+id, scopeQuery, &rank); err != nil {
				fail("rank of %s: %v", e.PlayerID, err)
			} else {
				mu.Lock()
				report.Ranks++
				mu.Unlock()
				if rank.Rank != e.Rank {
					fail("rank of %s is %d, leaderboard says %d", e.PlayerID, rank.Rank, e.Rank)
				}
			}

			var p types.Profile
			if err := s.get(gctx, "/players/"+id+"/profile", scopeQuery, &p); err != nil {
				fail("profile of %s: %v", e.PlayerID, err)
				return nil
			}
			mu.Lock()
			report.Profiles++
			report.Degenerate += p.Degenerate()
			mu.Unlock()
			checkProfile(p, fail)
			return nil
		})
	}
	// workers never return errors; failures are collected in the report
	_ = g.Wait()

	report.Duration = time.Since(start)
	s.log.Info(ctx, "smoke run finished",
		logger.Int("profiles", report.Profiles),
		logger.Int("failures", len(report.Failures)),
		logger.Duration("duration", report.Duration))
	return report, ctx.Err()
}

// checkProfile verifies axis order and range.
func checkProfile(p types.Profile, fail func(string, ...any)) {
	if len(p.Metrics) != len(profile.Labels) {
		fail("profile of %s has %d axes", p.PlayerID, len(p.Metrics))
		return
	}
	for i, m := range p.Metrics {
		if m.Metric != profile.Labels[i] {
			fail("profile of %s: axis %d is %q, want %q", p.PlayerID, i, m.Metric, profile.Labels[i])
		}
		if m.IsFinite() && (m.Value < 0 || m.Value > m.FullMark) {
			fail("profile of %s: %s = %.2f outside [0, %.0f]", p.PlayerID, m.Metric, m.Value, m.FullMark)
		}
	}
}

func (s *smoker) get(ctx context.Context, path string, q url.Values, dest any) error {
	target := s.base + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func printSmokeReport(out io.Writer, r smokeReport) error {
	rows := [][]string{
		{"players", strconv.Itoa(r.Players)},
		{"profiles", strconv.Itoa(r.Profiles)},
		{"ranks", strconv.Itoa(r.Ranks)},
		{"degenerate axes", strconv.Itoa(r.Degenerate)},
		{"failures", strconv.Itoa(len(r.Failures))},
		{"duration", r.Duration.Round(time.Millisecond).String()},
	}
	if err := table(out, []string{"CHECK", "RESULT"}, rows); err != nil {
		return err
	}
	for _, f := range r.Failures {
		fmt.Fprintln(out, "FAIL", f)
	}
	return nil
}
