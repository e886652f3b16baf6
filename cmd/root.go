package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/z-inspection/report-cli/internal/config"
	"github.com/z-inspection/report-cli/internal/store"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "report-cli",
	Short: "Ethical-AI evaluation report engine",
	Long:  "Aggregates evaluator risk scores across the seven trustworthiness principles, resolves evaluator sets, judges report validity, and serves or prints assessment reports.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// openStore opens the configured record store backend.
func openStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, cfg.Store)
}

// loadMapping loads the label mapping, falling back to the built-in
// table when no mapping file is configured.
func loadMapping() (*config.LabelMapping, error) {
	return config.LoadLabelMapping(cfg.Mapping)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
