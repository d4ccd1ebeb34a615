package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raihan-suryanom/brawl-master-web/internal/domain/model"
)

func newSubmitGameCommand(opts *globalOptions) *cobra.Command {
	var (
		req       model.NewGameRequest
		blue, red string
		winner    string
	)
	cmd := &cobra.Command{
		Use:   "submit-game <seriesId>",
		Short: "Record a game result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.TeamBlue = splitIDs(blue)
			req.TeamRed = splitIDs(red)
			req.Winner = model.Team(winner)
			if err := req.Validate(); err != nil {
				return err
			}

			client, err := opts.client()
			if err != nil {
				return err
			}
			game, err := client.CreateGame(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}
			if opts.jsonOut {
				return printJSON(cmd.OutOrStdout(), game)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recorded game %d in %s (winner %s)\n", game.GameNumber, args[0], game.Winner)
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&req.GameNumber, "game", 0, "game number within the series")
	f.StringVar(&blue, "blue", "", "comma separated player ids of team blue")
	f.StringVar(&red, "red", "", "comma separated player ids of team red")
	f.StringVar(&winner, "winner", "", "teamBlue or teamRed")
	_ = cmd.MarkFlagRequired("game")
	_ = cmd.MarkFlagRequired("winner")
	return cmd
}
