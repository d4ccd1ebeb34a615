package worker

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/raihan-suryanom/brawl-master-web/internal/domain/model"
)

const defaultFanout = 8

// Source is the part of the upstream client a refresh needs.
type Source interface {
	Players(ctx context.Context) ([]model.Player, error)
	PlayerStats(ctx context.Context, playerID, seriesID string) (model.PlayerStats, error)
	SeriesStats(ctx context.Context, seriesID string) ([]model.PlayerStats, error)
}

// UpstreamFetcher builds populations from the statistics API. A series scope
// is one call; the global scope lists players and fetches each player's
// all-series stats, at most fanout at a time.
type UpstreamFetcher struct {
	source Source
	fanout int
}

// NewUpstreamFetcher creates a fetcher. fanout < 1 uses the default.
func NewUpstreamFetcher(source Source, fanout int) *UpstreamFetcher {
	if fanout < 1 {
		fanout = defaultFanout
	}
	return &UpstreamFetcher{source: source, fanout: fanout}
}

func (f *UpstreamFetcher) FetchPopulation(ctx context.Context, scope string) ([]model.PlayerStats, error) {
	if scope != model.GlobalScope {
		return f.source.SeriesStats(ctx, scope)
	}

	players, err := f.source.Players(ctx)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}

	out := make([]model.PlayerStats, len(players))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.fanout)
	for i, p := range players {
		g.Go(func() error {
			st, err := f.source.PlayerStats(gctx, p.ID, "")
			if err != nil {
				return fmt.Errorf("stats of %s: %w", p.ID, err)
			}
			if st.PlayerID == "" {
				st.PlayerID = p.ID
			}
			out[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
