package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/felo/inboxforge/internal/dedup"
	"github.com/felo/inboxforge/internal/index"
	"github.com/felo/inboxforge/internal/logging"
	"github.com/felo/inboxforge/internal/parser"
	"github.com/felo/inboxforge/internal/pipeline"
	"github.com/felo/inboxforge/internal/scanner"
	"github.com/felo/inboxforge/internal/store"
)

var (
	flagMbox        bool
	flagIncludeHTML bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <path>",
	Short: "Ingest emails from a folder of .eml files or an mbox archive",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&flagMbox, "mbox", false,
		"treat the path as an mbox archive instead of a folder")
	ingestCmd.Flags().BoolVar(&flagIncludeHTML, "include-html", false,
		"keep HTML bodies in record content")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	cfg.IncludeHTML = flagIncludeHTML
	source := args[0]

	// RecordStore creates the processed/ directory the id log lives in.
	records, err := store.NewRecordStore(cfg.DataDir)
	if err != nil {
		return err
	}
	attachments, err := store.NewAttachmentStore(cfg.DataDir)
	if err != nil {
		return err
	}
	ids, err := dedup.OpenFileStore(cfg.IDLogPath())
	if err != nil {
		return err
	}
	ix, err := index.Open(cfg.IndexDir())
	if err != nil {
		return err
	}
	defer ix.Close()

	pl := pipeline.New(parser.New(parser.DefaultValues()), ids,
		attachments, records, ix, cfg.IncludeHTML)

	var result *pipeline.Result
	var runErr error
	if flagMbox {
		result, runErr = pl.RunMbox(source)
	} else {
		files, err := scanner.NewScanner(source).Scan()
		if err != nil {
			return err
		}
		result = pl.Run(files)
	}

	if result != nil {
		if err := ids.Save(); err != nil {
			logging.Log.WithError(err).Warn("Failed to rewrite id log")
		}
		printResult(cmd, result)
	}
	return runErr
}

func printResult(cmd *cobra.Command, result *pipeline.Result) {
	cmd.Printf("Found:      %d\n", result.TotalFound)
	cmd.Printf("Ingested:   %d\n", result.Ingested)
	cmd.Printf("Duplicates: %d\n", result.Duplicates)
	cmd.Printf("Failed:     %d\n", result.Failed)
	if len(result.FailedFiles) > 0 {
		cmd.Printf("Failed files:\n  %s\n", strings.Join(result.FailedFiles, "\n  "))
	}
}
