package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadscope/internal/feed"
	"github.com/sells-group/leadscope/internal/model"
)

// Rerun re-investigates records whose stored score is missing, below
// minScore, or an error record, rewriting each output file atomically.
// Untouched records are carried over byte-for-byte.
func Rerun(ctx context.Context, inv LeadInvestigator, input string, paths []string, minScore int) error {
	for _, path := range paths {
		if err := rerunFile(ctx, inv, input, path, minScore); err != nil {
			return err
		}
	}
	return nil
}

func rerunFile(ctx context.Context, inv LeadInvestigator, input, path string, minScore int) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".rerun-*")
	if err != nil {
		return eris.Wrapf(err, "batch: create temp for %s", path)
	}
	defer os.Remove(tmp.Name())

	reran, kept := 0, 0
	err = forEachLine(path, func(line []byte) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		var rec model.InvestigationResult
		if jsonErr := json.Unmarshal(line, &rec); jsonErr != nil {
			zap.L().Warn("keeping undecodable record", zap.String("file", path))
			return writeRaw(tmp, line)
		}
		if !needsRerun(rec, minScore) {
			kept++
			return writeRaw(tmp, line)
		}

		lead, leadErr := feed.ReadRow(input, rec.RowIndex)
		if leadErr != nil {
			zap.L().Warn("keeping record, source row unavailable",
				zap.String("lead", rec.LeadKey),
				zap.Int("row", rec.RowIndex),
				zap.Error(leadErr),
			)
			kept++
			return writeRaw(tmp, line)
		}

		res := inv.Investigate(ctx, lead)
		if res.Status == model.ResultStatusError && rec.Status == model.ResultStatusOK {
			// Never replace a scored record with a fresh failure.
			zap.L().Warn("rerun failed, keeping previous record",
				zap.String("lead", rec.LeadKey),
				zap.String("error", res.Error),
			)
			kept++
			return writeRaw(tmp, line)
		}

		data, marshalErr := json.Marshal(res)
		if marshalErr != nil {
			return eris.Wrapf(marshalErr, "batch: marshal rerun result %s", res.LeadKey)
		}
		reran++
		return writeRaw(tmp, append(data, '\n'))
	})
	if err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return eris.Wrapf(err, "batch: sync %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrapf(err, "batch: close %s", tmp.Name())
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return eris.Wrapf(err, "batch: chmod %s", tmp.Name())
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return eris.Wrapf(err, "batch: replace %s", path)
	}

	zap.L().Info("rerun pass complete",
		zap.String("file", path),
		zap.Int("reran", reran),
		zap.Int("kept", kept),
	)
	return nil
}

// needsRerun selects error records and records with a missing or
// below-threshold score.
func needsRerun(rec model.InvestigationResult, minScore int) bool {
	if rec.Status == model.ResultStatusError || rec.Score == nil {
		return true
	}
	return rec.EffectiveScore < minScore
}

func writeRaw(f *os.File, line []byte) error {
	if !bytes.HasSuffix(line, []byte{'\n'}) {
		line = append(line, '\n')
	}
	if _, err := f.Write(line); err != nil {
		return eris.Wrap(err, "batch: write rerun record")
	}
	return nil
}
