package batch

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadscope/internal/model"
)

// ChunkWriter rotates results into fixed-size chunk files. Row index i maps
// to the chunk covering [((i-1)/N)*N+1, start+N-1] clamped to the window end;
// a chunk file opens lazily on the first write into its range and closing it
// rewrites the manifest in full.
type ChunkWriter struct {
	dir          string
	manifestPath string
	chunkSize    int
	endRow       int
	totalRows    int

	f        *os.File
	curStart int
}

// NewChunkWriter prepares the chunk directory. Rows must arrive in strictly
// increasing row-index order.
func NewChunkWriter(dir, manifestPath string, chunkSize, endRow, totalRows int) (*ChunkWriter, error) {
	if chunkSize <= 0 {
		return nil, eris.Errorf("batch: chunk size must be positive, got %d", chunkSize)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "batch: create chunk dir %s", dir)
	}
	return &ChunkWriter{
		dir:          dir,
		manifestPath: manifestPath,
		chunkSize:    chunkSize,
		endRow:       endRow,
		totalRows:    totalRows,
	}, nil
}

func (w *ChunkWriter) bounds(row int) (int, int) {
	start := ((row-1)/w.chunkSize)*w.chunkSize + 1
	end := start + w.chunkSize - 1
	if w.endRow > 0 && end > w.endRow {
		end = w.endRow
	}
	return start, end
}

// Write appends the result to its chunk, rotating when the row crosses a
// chunk boundary.
func (w *ChunkWriter) Write(res *model.InvestigationResult) error {
	start, end := w.bounds(res.RowIndex)

	if w.f != nil && start != w.curStart {
		if err := w.closeChunk(); err != nil {
			return err
		}
	}

	if w.f == nil {
		path := filepath.Join(w.dir, fmt.Sprintf("leads_%05d_%05d.jsonl", start, end))
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return eris.Wrapf(err, "batch: open chunk %s", path)
		}
		w.f = f
		w.curStart = start
		zap.L().Info("chunk opened",
			zap.String("path", path),
			zap.Int("start_row", start),
			zap.Int("end_row", end),
		)
	}

	return appendRecord(w.f, res)
}

// Close flushes the open chunk, if any, and rewrites the manifest.
func (w *ChunkWriter) Close() error {
	if w.f == nil {
		return nil
	}
	return w.closeChunk()
}

func (w *ChunkWriter) closeChunk() error {
	if err := w.f.Close(); err != nil {
		return eris.Wrap(err, "batch: close chunk")
	}
	w.f = nil

	if w.manifestPath == "" {
		return nil
	}
	m, err := RebuildManifest(w.dir, w.totalRows)
	if err != nil {
		return err
	}
	return m.Write(w.manifestPath)
}
