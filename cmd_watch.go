package main

import (
	"github.com/spf13/cobra"

	"catalog/internal/etl"
)

var (
	watchFile     string
	watchSchedule string
	watchTest     bool
)

// watchCmd re-imports a file whenever it changes
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-import a file whenever it is written or on a schedule",
	Long: `Watches the file and runs an import each time it is written. With
--schedule the import also runs on a cron schedule. Imports never overlap.

Example:
  catalog watch -f stock.csv --schedule "@every 1h"`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchFile, "file", "f", "", "source file to watch")
	watchCmd.Flags().StringVar(&watchSchedule, "schedule", "", "cron expression, e.g. \"0 3 * * *\" or \"@every 1h\"")
	watchCmd.Flags().BoolVarP(&watchTest, "test", "t", false, "test mode: roll back instead of committing")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchFile == "" {
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
	return svc.Watch(ctx, etl.RunConfig{FilePath: watchFile, DryRun: watchTest}, watchSchedule)
}
