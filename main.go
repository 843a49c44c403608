package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"catalog/internal/config"
	"catalog/internal/dbclient"
	"catalog/internal/logging"
	"catalog/internal/service"
	"catalog/internal/storage"

	_ "catalog/internal/etl/sources"
)

var (
	// Global flags
	configPath string
	verbose    bool
	jsonLogs   bool

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Import product catalog CSV files into the product database",
	Long: `catalog loads a product catalog CSV file into the product table.

Rows with stray commas in their text are repaired where possible, values are
coerced to their column types, and rows failing the import rules are skipped.
All inserts happen in one transaction; test mode rolls it back.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(logging.Options{Verbose: verbose, JSON: jsonLogs})
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "path to the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "log as JSON")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(runsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR: "+err.Error())
		os.Exit(1)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// loadConfig reads the configuration file with environment overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		return nil, err
	}
	if err := applyLogConfig(cfg.Log); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadHistoryConfig reads the configuration file for commands that only use
// the run history.
func loadHistoryConfig() (*config.Config, error) {
	cfg, err := config.LoadHistory(configPath)
	if err != nil {
		return nil, err
	}
	if err := applyLogConfig(cfg.Log); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyLogConfig rebuilds the logger when the file asks for more than the flags.
func applyLogConfig(lc config.LogConfig) error {
	if (lc.Verbose && !verbose) || (lc.JSON && !jsonLogs) {
		l, err := logging.New(logging.Options{Verbose: verbose || lc.Verbose, JSON: jsonLogs || lc.JSON})
		if err != nil {
			return err
		}
		_ = logger.Sync()
		logger = l
	}
	return nil
}

// openHistory opens the local run-history store, or returns nil when it is
// disabled.
func openHistory(cfg *config.Config, required bool) (*storage.DB, error) {
	if !cfg.History.Enabled && !required {
		return nil, nil
	}
	db, err := storage.New(cfg.History.HistoryPath())
	if err != nil {
		return nil, fmt.Errorf("open run history: %w", err)
	}
	return db, nil
}

// newImportService wires the service to the configured store.
func newImportService(cfg *config.Config, history *storage.DB) *service.ImportService {
	opts := service.Options{
		Logger: logger,
		Out:    os.Stdout,
		OpenGateway: func(ctx context.Context) (service.StoreGateway, error) {
			return dbclient.NewGateway(ctx, cfg.Database.Connection(), cfg.Database.Password, logger)
		},
	}
	if history != nil {
		opts.History = storage.NewRunStore(history)
	}
	return service.NewImportService(opts)
}
