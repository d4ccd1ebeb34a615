// Package cli implements brawlctl, a command line client for the statistics
// API that computes radar profiles locally.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/raihan-suryanom/brawl-master-web/internal/adapters/upstream"
	"github.com/raihan-suryanom/brawl-master-web/pkg/logger"
)

const defaultTimeout = 10 * time.Second

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	baseURL  string
	timeout  time.Duration
	jsonOut  bool
	logLevel string
	fanout   int
}

// NewRootCommand builds the brawlctl command tree. out receives command output.
func NewRootCommand(out io.Writer) *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "brawlctl",
		Short: "Query and submit brawl statistics",
		Long: `brawlctl talks to the statistics API directly.

Profiles are normalized locally against the population of the requested
scope: a series when --series is given, every player otherwise.

Example:
  brawlctl profile 64f1c2 --series 650a9e
  brawlctl leaderboard --limit 5
  brawlctl submit-game 650a9e --game 3 --blue a,b,c --red d,e,f --winner teamBlue`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithOutput(cmd.ErrOrStderr())); err != nil {
				return err
			}
			return logger.SetLevelString(opts.logLevel)
		},
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.StringVar(&opts.baseURL, "url", upstream.DefaultBaseURL, "statistics API base URL")
	pf.DurationVar(&opts.timeout, "timeout", defaultTimeout, "per-request timeout")
	pf.BoolVar(&opts.jsonOut, "json", false, "print JSON instead of a table")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug|info|warn|error)")
	pf.IntVar(&opts.fanout, "fanout", 8, "concurrent player fetches for the all-series scope")

	root.AddCommand(
		newProfileCommand(opts),
		newLeaderboardCommand(opts),
		newCombinationsCommand(opts),
		newSubmitGameCommand(opts),
		newSmokeCommand(opts),
	)
	return root
}

// Execute runs brawlctl with ctx.
func Execute(ctx context.Context, out io.Writer, args []string) error {
	root := NewRootCommand(out)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func (o *globalOptions) client() (*upstream.Client, error) {
	c, err := upstream.New(o.baseURL,
		upstream.WithTimeout(o.timeout),
		upstream.WithLogger(logger.Named("upstream")),
	)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return c, nil
}
