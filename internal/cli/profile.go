package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raihan-suryanom/brawl-master-web/internal/adapters/mq/worker"
	"github.com/raihan-suryanom/brawl-master-web/internal/domain/model"
	"github.com/raihan-suryanom/brawl-master-web/internal/domain/profile"
	"github.com/raihan-suryanom/brawl-master-web/internal/domain/types"
)

func newProfileCommand(opts *globalOptions) *cobra.Command {
	var series string
	cmd := &cobra.Command{
		Use:   "profile <playerId>",
		Short: "Show a player's radar profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			population, err := worker.NewUpstreamFetcher(client, opts.fanout).FetchPopulation(ctx, series)
			if err != nil {
				return err
			}

			var subject *model.PlayerStats
			for i := range population {
				if population[i].PlayerID == args[0] {
					subject = &population[i]
					break
				}
			}
			if subject == nil {
				return fmt.Errorf("player %s has no statistics in %s", args[0], model.ScopeLabel(series))
			}

			metrics, err := profile.Normalize(*subject, population)
			if err != nil {
				return err
			}
			p := types.Profile{
				PlayerID: subject.PlayerID,
				Name:     subject.Name,
				Color:    subject.Color,
				Picture:  subject.Picture,
				Scope:    series,
				Metrics:  metrics,
			}
			if opts.jsonOut {
				return printJSON(cmd.OutOrStdout(), p)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) in %s\n", p.Name, p.PlayerID, model.ScopeLabel(series))
			rows := make([][]string, len(metrics))
			for i, m := range metrics {
				value := "n/a"
				if m.IsFinite() {
					value = profile.Fixed(m.Value, 1)
				}
				rows[i] = []string{m.Metric, value, m.Raw}
			}
			return table(cmd.OutOrStdout(), []string{"METRIC", "VALUE", "RAW"}, rows)
		},
	}
	cmd.Flags().StringVar(&series, "series", "", "series id (default: all series)")
	return cmd
}
