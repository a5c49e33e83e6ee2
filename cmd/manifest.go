package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadscope/internal/batch"
	"github.com/sells-group/leadscope/internal/feed"
)

var (
	manifestChunkDir  string
	manifestPath      string
	manifestInput     string
	manifestTotalRows int
)

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Chunk manifest operations",
}

var manifestRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the manifest from the chunk files on disk",
	RunE: func(cmd *cobra.Command, args []string) error {
		total := manifestTotalRows
		if manifestInput != "" {
			n, err := feed.Count(manifestInput)
			if err != nil {
				return err
			}
			total = n
		}
		if total <= 0 {
			return eris.New("manifest: pass --input or --total-rows")
		}

		m, err := batch.RebuildManifest(manifestChunkDir, total)
		if err != nil {
			return err
		}
		if err := m.Write(manifestPath); err != nil {
			return err
		}

		zap.L().Info("manifest rebuilt",
			zap.String("path", manifestPath),
			zap.Int("chunks", len(m.Chunks)),
			zap.Int("rows_processed", m.Metadata.RowsProcessed),
		)
		return nil
	},
}

func init() {
	f := manifestRebuildCmd.Flags()
	f.StringVar(&manifestChunkDir, "chunk-dir", "chunks", "directory holding chunk files")
	f.StringVar(&manifestPath, "manifest", "chunks/manifest.json", "manifest path to write")
	f.StringVar(&manifestInput, "input", "", "CSV feed used to derive the total row count")
	f.IntVar(&manifestTotalRows, "total-rows", 0, "total dataset rows when no --input is given")
	manifestCmd.AddCommand(manifestRebuildCmd)
	rootCmd.AddCommand(manifestCmd)
}
