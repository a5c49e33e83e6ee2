package batch

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadscope/internal/model"
)

// ResultWriter persists investigation results as JSONL, one record per lead.
type ResultWriter interface {
	Write(res *model.InvestigationResult) error
	Close() error
}

// SingleFileWriter appends every result to one JSONL file (chunk size 0).
type SingleFileWriter struct {
	f *os.File
}

// NewSingleFileWriter opens path for appending. Unless allowExisting is set
// (resume or explicit overwrite), an existing output file is refused rather
// than silently extended.
func NewSingleFileWriter(path string, allowExisting bool) (*SingleFileWriter, error) {
	if !allowExisting {
		if _, err := os.Stat(path); err == nil {
			return nil, eris.Errorf("batch: output %s exists; pass --resume or --overwrite", path)
		}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "batch: create output dir %s", dir)
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, eris.Wrapf(err, "batch: open output %s", path)
	}
	return &SingleFileWriter{f: f}, nil
}

func (w *SingleFileWriter) Write(res *model.InvestigationResult) error {
	return appendRecord(w.f, res)
}

func (w *SingleFileWriter) Close() error {
	return w.f.Close()
}

// appendRecord marshals one result, appends it, and syncs so a crash never
// loses an acknowledged row.
func appendRecord(f *os.File, res *model.InvestigationResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return eris.Wrapf(err, "batch: marshal result %s", res.LeadKey)
	}
	data = append(data, '\n')

	if _, err := f.Write(data); err != nil {
		return eris.Wrapf(err, "batch: write result %s", res.LeadKey)
	}
	if err := f.Sync(); err != nil {
		return eris.Wrap(err, "batch: sync output")
	}
	return nil
}

// ScanKeys collects the lead keys already present in the given JSONL files.
// Error records are excluded so failed leads stay eligible for retry; missing
// files and undecodable lines (a torn write from a crash) are skipped.
func ScanKeys(paths ...string) (map[string]struct{}, error) {
	keys := make(map[string]struct{})
	for _, path := range paths {
		err := forEachLine(path, func(line []byte) error {
			var rec struct {
				LeadKey string             `json:"lead_key"`
				Status  model.ResultStatus `json:"status"`
			}
			if err := json.Unmarshal(line, &rec); err != nil || rec.LeadKey == "" {
				zap.L().Warn("skipping undecodable output line", zap.String("file", path))
				return nil
			}
			if rec.Status != model.ResultStatusError {
				keys[rec.LeadKey] = struct{}{}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// forEachLine calls fn for every non-empty line of path. A missing file is a
// no-op. ReadBytes imposes no line-length cap, which matters for long reports.
func forEachLine(path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return eris.Wrapf(err, "batch: open %s", path)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	for {
		line, err := r.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			if fnErr := fn(line); fnErr != nil {
				return fnErr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return eris.Wrapf(err, "batch: read %s", path)
		}
	}
}
