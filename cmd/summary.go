package cmd

import (
	"github.com/spf13/cobra"

	"github.com/felo/inboxforge/internal/index"
	"github.com/felo/inboxforge/internal/store"
)

var flagRecent int

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show counts and the most recently processed emails",
	RunE:  runSummary,
}

func init() {
	summaryCmd.Flags().IntVar(&flagRecent, "recent", 10, "how many recent emails to list")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	records, err := store.NewRecordStore(cfg.DataDir)
	if err != nil {
		return err
	}
	summary, err := records.ReadSummary()
	if err != nil {
		return err
	}

	ix, err := index.Open(cfg.IndexDir())
	if err != nil {
		return err
	}
	defer ix.Close()
	indexed, err := ix.Count()
	if err != nil {
		return err
	}

	cmd.Printf("Processed emails: %d\n", summary.TotalEmails)
	cmd.Printf("Indexed emails:   %d\n", indexed)
	if summary.LastUpdated != "" {
		cmd.Printf("Last updated:     %s\n", summary.LastUpdated)
	}

	entries := summary.Emails
	if len(entries) > flagRecent {
		entries = entries[len(entries)-flagRecent:]
	}
	if len(entries) > 0 {
		cmd.Println("Recent:")
		for i := len(entries) - 1; i >= 0; i-- {
			cmd.Printf("  %s  %s  %s\n", entries[i].ID, entries[i].Date, entries[i].Subject)
		}
	}
	return nil
}
