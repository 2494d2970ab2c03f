package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felo/inboxforge/internal/index"
)

var (
	flagFields []string
	flagFrom   string
	flagTo     string
	flagLimit  int
)

var searchCmd = &cobra.Command{
	Use:   "search [terms...]",
	Short: "Search indexed emails",
	Long: `Search runs a full-text query over the index. All terms must
match; each term may match in any of the selected fields. With no terms
the newest indexed emails are listed.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringSliceVar(&flagFields, "field", nil,
		fmt.Sprintf("fields to search (%s), repeatable; default all", strings.Join(index.SearchableFields, ", ")))
	searchCmd.Flags().StringVar(&flagFrom, "from", "", "earliest date, YYYY-MM-DD")
	searchCmd.Flags().StringVar(&flagTo, "to", "", "latest date, YYYY-MM-DD")
	searchCmd.Flags().IntVar(&flagLimit, "limit", 0,
		fmt.Sprintf("maximum results; default %d", index.DefaultMaxResults))
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	query := index.Query{
		Text:       strings.Join(args, " "),
		Fields:     flagFields,
		MaxResults: flagLimit,
	}

	var err error
	if query.From, err = parseDateFlag(flagFrom); err != nil {
		return err
	}
	if query.To, err = parseDateFlag(flagTo); err != nil {
		return err
	}
	// An end date bounds the whole day, not its first instant.
	if query.To != nil {
		end := query.To.Add(24*time.Hour - time.Second)
		query.To = &end
	}

	ix, err := index.Open(cfg.IndexDir())
	if err != nil {
		return err
	}
	defer ix.Close()

	results, err := ix.Search(query)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		cmd.Println("No matching emails.")
		return nil
	}

	for _, r := range results {
		cmd.Printf("%s  %s  %s\n", r.ID, r.Date.Format("2006-01-02 15:04"), r.Subject)
		cmd.Printf("    From: %s  To: %s\n", r.Sender, r.Recipients)
		if r.Snippet != "" {
			cmd.Printf("    %s\n", r.Snippet)
		}
	}
	cmd.Printf("%d result(s)\n", len(results))
	return nil
}

func parseDateFlag(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return &t, nil
}
