package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadscope/internal/batch"
)

var (
	rerunInput    string
	rerunOutput   string
	rerunChunkDir string
	rerunMinScore int
	rerunTimeout  int
)

var rerunCmd = &cobra.Command{
	Use:   "rerun",
	Short: "Re-investigate records with missing or low scores",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var paths []string
		switch {
		case rerunChunkDir != "":
			var err error
			paths, err = batch.ChunkFiles(rerunChunkDir)
			if err != nil {
				return err
			}
		case rerunOutput != "":
			paths = []string{rerunOutput}
		default:
			return eris.New("rerun: pass --output or --chunk-dir")
		}
		if len(paths) == 0 {
			return eris.New("rerun: no output files to scan")
		}

		env, err := initInvestigation(ctx, rerunTimeout)
		if err != nil {
			return err
		}
		defer env.Close()

		return batch.Rerun(ctx, env.Investigator, rerunInput, paths, rerunMinScore)
	},
}

func init() {
	f := rerunCmd.Flags()
	f.StringVar(&rerunInput, "input", "", "CSV feed the original run was driven from (required)")
	f.StringVar(&rerunOutput, "output", "", "single output JSONL file to rescan")
	f.StringVar(&rerunChunkDir, "chunk-dir", "", "chunk directory to rescan")
	f.IntVar(&rerunMinScore, "min-score", 50, "re-investigate records scoring below this threshold")
	f.IntVar(&rerunTimeout, "timeout", 0, "reasoning call timeout in seconds (0 = config default)")
	_ = rerunCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(rerunCmd)
}
