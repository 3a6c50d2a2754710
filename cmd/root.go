// Package cmd defines and implements the CLI commands for the profscraper
// executable.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profscraper",
		Short: "Scrapes professor and review data from a rating site listing.",
		Long: `profscraper walks a dynamically rendered professor listing, visits
every professor's detail page, exhausts the paginated review list, and
persists the cleaned records as JSON. It is built to tolerate per-item
failures: one broken card, page, or review never aborts the batch.`,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is built-in defaults plus PROFSCRAPER_* env vars)")

	cmd.AddCommand(newScrapeCmd())
	return cmd
}

// Execute runs the CLI. An externally raised interrupt cancels ctx and
// surfaces as a non-zero exit.
func Execute(ctx context.Context) {
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
