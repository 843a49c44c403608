package main

import (
	"errors"

	"github.com/spf13/cobra"

	"catalog/internal/etl"
)

var errMissingFile = errors.New("no input file, set with -f (e.g. -f /file/location/here.csv)")

var (
	importFile   string
	importTest   bool
	importSource string
)

// importCmd loads one file
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a product catalog file",
	Long: `Reads the file, repairs and types its rows, applies the import rules and
inserts every eligible product in a single transaction.

With -t the transaction is rolled back and every eligible row is listed.

Example:
  catalog import -f stock.csv -t`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "source file to import")
	importCmd.Flags().BoolVarP(&importTest, "test", "t", false, "test mode: roll back instead of committing")
	importCmd.Flags().StringVar(&importSource, "source", etl.DefaultSourceType, "source type")
}

func runImport(cmd *cobra.Command, args []string) error {
	if importFile == "" {
		return errMissingFile
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	history, err := openHistory(cfg, false)
	if err != nil {
		return err
	}
	if history != nil {
		defer history.Close()
	}

	ctx, cancel := signalContext()
	defer cancel()

	svc := newImportService(cfg, history)
	_, err = svc.Run(ctx, etl.RunConfig{
		FilePath:   importFile,
		SourceType: importSource,
		DryRun:     importTest,
	})
	return err
}
