package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/medimatch/medimatch/pkg/feed"
	"github.com/medimatch/medimatch/pkg/logging"
)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// options are the persistent flags shared by all commands.
type options struct {
	apiURL  string
	timeout time.Duration
	debug   bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:          "medimatch",
		Short:        "Search medicines and find alternatives with the same ingredient or efficacy",
		SilenceUsage: true,
	}

	defaultURL := os.Getenv("MEDIMATCH_API_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8080"
	}

	cmd.PersistentFlags().StringVar(&opts.apiURL, "api-url", defaultURL, "medimatch server URL (env MEDIMATCH_API_URL)")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "overall timeout of a command")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "log API requests to stderr")

	cmd.AddCommand(
		searchCmd(opts),
		showCmd(opts),
		similarCmd(opts),
		cacheCmd(),
	)
	return cmd
}

// newFeed creates the API client for a command run.
func (o *options) newFeed(cmd *cobra.Command) (*feed.Client, error) {
	level := logging.LevelWarn
	if o.debug {
		level = logging.LevelDebug
	}
	logger := logging.Setup(logging.Config{
		Level:  level,
		Pretty: true,
		Output: cmd.ErrOrStderr(),
	})

	return feed.New(o.apiURL, feed.WithLogger(logger))
}
