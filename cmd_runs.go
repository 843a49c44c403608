package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"catalog/internal/storage"
)

var runsLimit int

// runsCmd prints the local run history
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent imports",
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "number of runs to show")
}

func runRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadHistoryConfig()
	if err != nil {
		return err
	}
	history, err := openHistory(cfg, true)
	if err != nil {
		return err
	}
	defer history.Close()

	runs, err := storage.NewRunStore(history).ListRuns(runsLimit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tSTATUS\tFILE\tPROCESSED\tINSERTED\tDUPLICATE\tFAILED\tSKIPPED(RULES)\tUNRECOVERABLE")
	for _, r := range runs {
		status := r.Status
		if r.DryRun {
			status += " (test)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
			r.StartedAt.Local().Format(time.DateTime), status, r.FilePath,
			r.Processed, r.Inserted, r.Duplicate, r.InsertFailed, r.RuleExcluded, r.Unrecoverable)
	}
	return tw.Flush()
}
