// Package cmd holds the inboxforge command line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/felo/inboxforge/internal/config"
	"github.com/felo/inboxforge/internal/logging"
)

var (
	flagDataDir  string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "inboxforge",
	Short: "Ingest .eml files and mbox archives into a searchable local store",
	Long: `inboxforge parses email files, deduplicates them by content
fingerprint, stores one JSON record per email alongside its attachments,
and maintains a full-text search index over the result.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.SetLevel(flagLogLevel)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	defaults := config.Default()
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", defaults.DataDir,
		"base directory for records, attachments and the search index")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info",
		"log level (debug, info, warn, error)")
}

func loadConfig() *config.Config {
	cfg := config.Default()
	cfg.DataDir = flagDataDir
	return cfg
}
