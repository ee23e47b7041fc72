// Package cmd defines and implements the CLI commands for the feedwatch executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedwatch",
		Short: "An RSS feed aggregation engine",
		Long: `feedwatch tracks a set of RSS feeds, refreshing each one on a fixed
interval and merging new items into a single deduplicated timeline. It
exposes the aggregate over an HTTP API with a live event stream.`,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional, settings also read from FEEDWATCH_* env vars)")

	cmd.AddCommand(newServeCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
