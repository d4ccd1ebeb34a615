package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raihan-suryanom/brawl-master-web/internal/domain/profile"
)

func newCombinationsCommand(opts *globalOptions) *cobra.Command {
	var (
		series string
		size   int
	)
	cmd := &cobra.Command{
		Use:   "combinations <playerId>",
		Short: "Show how a player does with 2- or 3-player groups",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			combos, err := client.PlayerCombinations(cmd.Context(), args[0], size, series)
			if err != nil {
				return err
			}
			if opts.jsonOut {
				return printJSON(cmd.OutOrStdout(), combos)
			}
			rows := make([][]string, len(combos))
			for i, c := range combos {
				names := make([]string, len(c.Players))
				for j, p := range c.Players {
					names[j] = p.Name
				}
				rows[i] = []string{
					strings.Join(names, " + "),
					strconv.Itoa(c.Wins),
					strconv.Itoa(c.Losses),
					profile.Fixed(c.WinRate, 1) + "%",
				}
			}
			return table(cmd.OutOrStdout(), []string{"GROUP", "W", "L", "WIN RATE"}, rows)
		},
	}
	cmd.Flags().StringVar(&series, "series", "", "series id (default: all series)")
	cmd.Flags().IntVar(&size, "size", 2, "group size, 2 or 3")
	return cmd
}
