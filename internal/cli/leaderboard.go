package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/raihan-suryanom/brawl-master-web/internal/adapters/mq/worker"
	"github.com/raihan-suryanom/brawl-master-web/internal/adapters/repository"
	"github.com/raihan-suryanom/brawl-master-web/internal/domain/profile"
	"github.com/raihan-suryanom/brawl-master-web/internal/domain/types"
)

func newLeaderboardCommand(opts *globalOptions) *cobra.Command {
	var (
		series string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the top players by points",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			population, err := worker.NewUpstreamFetcher(client, opts.fanout).FetchPopulation(ctx, series)
			if err != nil {
				return err
			}

			store := repository.NewTreapStore()
			if err := store.Replace(ctx, series, population); err != nil {
				return err
			}
			top, err := store.TopN(ctx, series, limit)
			if err != nil {
				return err
			}

			if opts.jsonOut {
				entries := make([]types.Entry, len(top))
				for i, e := range top {
					entries[i] = types.Entry{Rank: e.Rank, PlayerStats: e.Stats}
				}
				return printJSON(cmd.OutOrStdout(), entries)
			}
			rows := make([][]string, len(top))
			for i, e := range top {
				rows[i] = []string{
					strconv.Itoa(e.Rank),
					e.Stats.Name,
					strconv.Itoa(e.Stats.Pts),
					strconv.Itoa(e.Stats.TotalWin),
					strconv.Itoa(e.Stats.TotalGames),
					profile.Fixed(e.Stats.WinRate, 1) + "%",
				}
			}
			return table(cmd.OutOrStdout(), []string{"RANK", "PLAYER", "PTS", "WINS", "GAMES", "WIN RATE"}, rows)
		},
	}
	cmd.Flags().StringVar(&series, "series", "", "series id (default: all series)")
	cmd.Flags().IntVar(&limit, "limit", 10, "number of players to show")
	return cmd
}
