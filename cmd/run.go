package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadscope/internal/feed"
	"github.com/sells-group/leadscope/internal/model"
)

var (
	runInput   string
	runRow     int
	runTimeout int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Investigate a single lead and print the report",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		lead, err := feed.ReadRow(runInput, runRow)
		if err != nil {
			return err
		}

		env, err := initInvestigation(ctx, runTimeout)
		if err != nil {
			return err
		}
		defer env.Close()

		res := env.Investigator.Investigate(ctx, lead)
		fmt.Println(res.Report)

		if res.Status == model.ResultStatusError {
			return eris.Errorf("investigation failed: %s", res.Error)
		}

		zap.L().Info("investigation complete",
			zap.String("lead", res.LeadKey),
			zap.Int("row", res.RowIndex),
			zap.Bool("scored", res.Scored()),
			zap.Int("effective_score", res.EffectiveScore),
			zap.Int("evidence", res.EvidenceCount),
			zap.Int("fact_store_hits", res.FactStoreHits),
		)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runInput, "input", "", "CSV feed with 'filename' and 'text' columns (required)")
	runCmd.Flags().IntVar(&runRow, "row", 0, "1-based data row to investigate (required)")
	runCmd.Flags().IntVar(&runTimeout, "timeout", 0, "reasoning call timeout in seconds (0 = config default)")
	_ = runCmd.MarkFlagRequired("input")
	_ = runCmd.MarkFlagRequired("row")
	rootCmd.AddCommand(runCmd)
}
