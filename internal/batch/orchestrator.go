package batch

import (
	"context"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/leadscope/internal/feed"
	"github.com/sells-group/leadscope/internal/model"
)

// Options is the CLI surface for one orchestrator run.
type Options struct {
	Input      string
	StartRow   int
	EndRow     int
	MaxRows    int
	Resume     bool
	Overwrite  bool
	Checkpoint string
	Output     string // single-file mode, used when ChunkSize == 0
	ChunkSize  int
	ChunkDir   string
	Manifest   string
	Sleep      time.Duration
	MinScore   int
}

// LeadInvestigator is the per-lead investigation seam. Implementations never
// return an error: failures surface as Status "error" result records.
type LeadInvestigator interface {
	Investigate(ctx context.Context, lead *model.Lead) *model.InvestigationResult
}

// Orchestrator drives the batch: dedup, resume, incremental crash-safe
// output, chunk rotation, pacing, and ETA reporting. Leads are processed
// sequentially; provider rate limits apply account-wide.
type Orchestrator struct {
	inv  LeadInvestigator
	opts Options
}

// NewOrchestrator wires an Orchestrator.
func NewOrchestrator(inv LeadInvestigator, opts Options) *Orchestrator {
	return &Orchestrator{inv: inv, opts: opts}
}

// Run processes every lead in the window whose key is not already done. A
// lead failure is logged and written as an error record without advancing the
// checkpoint; only input/output plumbing failures abort the run. Cancelling
// ctx stops between leads, never mid-lead.
func (o *Orchestrator) Run(ctx context.Context) error {
	total, err := feed.Count(o.opts.Input)
	if err != nil {
		return err
	}

	startRow := o.opts.StartRow
	if startRow < 1 {
		startRow = 1
	}
	endRow := o.opts.EndRow
	if endRow <= 0 || endRow > total {
		endRow = total
	}
	if startRow > endRow {
		zap.L().Info("empty window, nothing to do",
			zap.Int("start_row", startRow),
			zap.Int("end_row", endRow),
		)
		return nil
	}

	done, err := o.doneSet()
	if err != nil {
		return err
	}

	candidates, err := o.countCandidates(startRow, endRow, done)
	if err != nil {
		return err
	}
	zap.L().Info("workload computed",
		zap.Int("total_rows", total),
		zap.Int("start_row", startRow),
		zap.Int("end_row", endRow),
		zap.Int("already_done", len(done)),
		zap.Int("candidates", candidates),
	)

	writer, err := o.openWriter(endRow, total)
	if err != nil {
		return err
	}
	defer writer.Close()

	cp, err := OpenCheckpoint(o.opts.Checkpoint)
	if err != nil {
		return err
	}
	defer cp.Close()

	reader, err := feed.NewReader(o.opts.Input)
	if err != nil {
		return err
	}
	defer reader.Close()

	var limiter *rate.Limiter
	if o.opts.Sleep > 0 {
		limiter = rate.NewLimiter(rate.Every(o.opts.Sleep), 1)
	}

	eta := NewETA(candidates)
	processed := 0
	for {
		if ctx.Err() != nil {
			zap.L().Info("stop requested, halting before next lead",
				zap.Int("processed", processed),
			)
			break
		}

		lead, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if lead.RowIndex < startRow {
			continue
		}
		if lead.RowIndex > endRow {
			break
		}
		if _, ok := done[lead.Key]; ok {
			zap.L().Info("skipping completed lead",
				zap.String("lead", lead.Key),
				zap.Int("row", lead.RowIndex),
			)
			continue
		}
		if o.opts.MaxRows > 0 && processed >= o.opts.MaxRows {
			zap.L().Info("row cap reached", zap.Int("max_rows", o.opts.MaxRows))
			break
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				break
			}
		}

		began := time.Now()
		res := o.inv.Investigate(ctx, lead)

		// Write-then-checkpoint: a crash between the two leaves the lead
		// retryable, never marked done without its result on disk.
		if err := writer.Write(res); err != nil {
			return err
		}
		if res.Status == model.ResultStatusOK {
			if err := cp.Add(lead.Key); err != nil {
				return err
			}
			done[lead.Key] = struct{}{}
			if o.opts.MinScore > 0 && res.EffectiveScore < o.opts.MinScore {
				zap.L().Info("result below minimum score",
					zap.String("lead", lead.Key),
					zap.Int("effective_score", res.EffectiveScore),
					zap.Int("min_score", o.opts.MinScore),
				)
			}
		} else {
			zap.L().Warn("error record written, lead stays retryable",
				zap.String("lead", lead.Key),
				zap.Int("row", lead.RowIndex),
				zap.String("error", res.Error),
			)
		}

		processed++
		eta.Observe(time.Since(began))
		zap.L().Info("progress",
			zap.Int("completed", eta.Completed()),
			zap.Int("candidates", candidates),
			zap.Duration("eta", eta.Remaining()),
		)
	}

	zap.L().Info("batch finished", zap.Int("processed", processed))
	return nil
}

func (o *Orchestrator) doneSet() (map[string]struct{}, error) {
	outputs, err := o.existingOutputs()
	if err != nil {
		return nil, err
	}
	return DoneSet(o.opts.Checkpoint, o.opts.Resume, outputs)
}

func (o *Orchestrator) existingOutputs() ([]string, error) {
	if o.opts.ChunkSize > 0 {
		return ChunkFiles(o.opts.ChunkDir)
	}
	return []string{o.opts.Output}, nil
}

func (o *Orchestrator) openWriter(endRow, total int) (ResultWriter, error) {
	if o.opts.ChunkSize > 0 {
		return NewChunkWriter(o.opts.ChunkDir, o.opts.Manifest, o.opts.ChunkSize, endRow, total)
	}
	return NewSingleFileWriter(o.opts.Output, o.opts.Resume || o.opts.Overwrite)
}

// countCandidates walks the window once to size the ETA denominator.
func (o *Orchestrator) countCandidates(startRow, endRow int, done map[string]struct{}) (int, error) {
	reader, err := feed.NewReader(o.opts.Input)
	if err != nil {
		return 0, err
	}
	defer reader.Close()

	n := 0
	for {
		lead, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, eris.Wrap(err, "batch: count candidates")
		}
		if lead.RowIndex < startRow {
			continue
		}
		if lead.RowIndex > endRow {
			break
		}
		if _, ok := done[lead.Key]; ok {
			continue
		}
		n++
		if o.opts.MaxRows > 0 && n >= o.opts.MaxRows {
			break
		}
	}
	return n, nil
}
