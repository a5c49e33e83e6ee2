package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadscope/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "leadscope",
	Short: "Batch fraud-lead investigation pipeline",
	Long:  "Turns a feed of candidate fraud leads into scored, evidenced investigation reports: fact-store lookup, tiered web search with early termination, reasoning-engine synthesis, resumable chunked output.",
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

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
