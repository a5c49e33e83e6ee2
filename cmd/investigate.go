package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/leadscope/internal/batch"
)

var (
	investigateInput      string
	investigateStartRow   int
	investigateEndRow     int
	investigateMaxRows    int
	investigateResume     bool
	investigateOverwrite  bool
	investigateCheckpoint string
	investigateOutput     string
	investigateChunkSize  int
	investigateChunkDir   string
	investigateManifest   string
	investigateSleep      int
	investigateTimeout    int
	investigateMinScore   int
)

var investigateCmd = &cobra.Command{
	Use:   "investigate",
	Short: "Batch-investigate leads from a CSV feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initInvestigation(ctx, investigateTimeout)
		if err != nil {
			return err
		}
		defer env.Close()

		sleep := investigateSleep
		if sleep == 0 {
			sleep = cfg.Batch.SleepSecs
		}
		minScore := investigateMinScore
		if minScore == 0 {
			minScore = cfg.Batch.MinScore
		}

		o := batch.NewOrchestrator(env.Investigator, batch.Options{
			Input:      investigateInput,
			StartRow:   investigateStartRow,
			EndRow:     investigateEndRow,
			MaxRows:    investigateMaxRows,
			Resume:     investigateResume,
			Overwrite:  investigateOverwrite,
			Checkpoint: investigateCheckpoint,
			Output:     investigateOutput,
			ChunkSize:  investigateChunkSize,
			ChunkDir:   investigateChunkDir,
			Manifest:   investigateManifest,
			Sleep:      time.Duration(sleep) * time.Second,
			MinScore:   minScore,
		})
		return o.Run(ctx)
	},
}

func init() {
	f := investigateCmd.Flags()
	f.StringVar(&investigateInput, "input", "", "CSV feed with 'filename' and 'text' columns (required)")
	f.IntVar(&investigateStartRow, "start-row", 1, "first 1-based data row of the window")
	f.IntVar(&investigateEndRow, "end-row", 0, "last data row of the window (0 = end of feed)")
	f.IntVar(&investigateMaxRows, "max-rows", 0, "cap on rows processed this run (0 = no cap)")
	f.BoolVar(&investigateResume, "resume", false, "skip leads recorded in the checkpoint")
	f.BoolVar(&investigateOverwrite, "overwrite", false, "append to an existing single output file without --resume")
	f.StringVar(&investigateCheckpoint, "checkpoint", "checkpoint.txt", "checkpoint file of completed lead keys")
	f.StringVar(&investigateOutput, "output", "results.jsonl", "output JSONL path (single-file mode)")
	f.IntVar(&investigateChunkSize, "chunk-size", 0, "rows per output chunk (0 = single file)")
	f.StringVar(&investigateChunkDir, "chunk-dir", "chunks", "directory for chunk files")
	f.StringVar(&investigateManifest, "manifest", "chunks/manifest.json", "manifest path for chunked output")
	f.IntVar(&investigateSleep, "sleep", 0, "seconds between lead completions")
	f.IntVar(&investigateTimeout, "timeout", 0, "reasoning call timeout in seconds (0 = config default)")
	f.IntVar(&investigateMinScore, "min-score", 0, "flag completed results scoring below this threshold")
	_ = investigateCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(investigateCmd)
}
