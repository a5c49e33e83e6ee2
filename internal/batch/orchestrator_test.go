package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadscope/internal/model"
)

// fakeInvestigator returns canned results and records the order of leads it
// was asked to investigate.
type fakeInvestigator struct {
	mu    sync.Mutex
	keys  []string
	rows  []int
	fail  map[string]bool
	score int
}

func (f *fakeInvestigator) Investigate(_ context.Context, lead *model.Lead) *model.InvestigationResult {
	f.mu.Lock()
	f.keys = append(f.keys, lead.Key)
	f.rows = append(f.rows, lead.RowIndex)
	f.mu.Unlock()

	res := &model.InvestigationResult{
		ID:       fmt.Sprintf("res-%d", lead.RowIndex),
		LeadKey:  lead.Key,
		RowIndex: lead.RowIndex,
		Headline: lead.Headline,
		Status:   model.ResultStatusOK,
	}
	if f.fail != nil && f.fail[lead.Key] {
		res.Status = model.ResultStatusError
		res.Error = "simulated provider outage"
		res.Report = "# Investigation Error\n\nAn error occurred: simulated provider outage"
		return res
	}

	score := f.score
	if score == 0 {
		score = 75
	}
	res.Score = &score
	res.EffectiveScore = score
	res.Report = fmt.Sprintf("Viability Score: %d", score)
	return res
}

func (f *fakeInvestigator) investigatedRows() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.rows...)
}

// writeFeed creates an n-row CSV feed and returns its path. Keys are
// lead_0001.md style filenames.
func writeFeed(t *testing.T, dir string, n int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("filename,text\n")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "lead_%04d.md,Trial NCT0123%04d terminated amid fraud allegations\n", i, i)
	}
	path := filepath.Join(dir, "feed.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func readKeys(t *testing.T, paths ...string) map[string]struct{} {
	t.Helper()
	keys, err := ScanKeys(paths...)
	require.NoError(t, err)
	return keys
}

func TestRun_ChunkedOutputAndManifest(t *testing.T) {
	dir := t.TempDir()
	chunkDir := filepath.Join(dir, "chunks")
	manifest := filepath.Join(dir, "manifest.json")
	inv := &fakeInvestigator{}

	o := NewOrchestrator(inv, Options{
		Input:      writeFeed(t, dir, 25),
		Checkpoint: filepath.Join(dir, "checkpoint.txt"),
		ChunkSize:  10,
		ChunkDir:   chunkDir,
		Manifest:   manifest,
	})
	require.NoError(t, o.Run(context.Background()))

	paths, err := ChunkFiles(chunkDir)
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Equal(t, "leads_00001_00010.jsonl", filepath.Base(paths[0]))
	assert.Equal(t, "leads_00011_00020.jsonl", filepath.Base(paths[1]))
	assert.Equal(t, "leads_00021_00025.jsonl", filepath.Base(paths[2]))

	for i, want := range []int{10, 10, 5} {
		lines, err := countLines(paths[i])
		require.NoError(t, err)
		assert.Equal(t, want, lines, "chunk %s", paths[i])
	}

	m, err := RebuildManifest(chunkDir, 25)
	require.NoError(t, err)
	require.Len(t, m.Chunks, 3)
	assert.Equal(t, 25, m.Metadata.RowsProcessed)
	assert.Equal(t, 25, m.Metadata.TotalDatasetRows)
	assert.FileExists(t, manifest)
}

func TestRun_ResumeProcessesOnlyRemainingRows(t *testing.T) {
	dir := t.TempDir()
	input := writeFeed(t, dir, 10)
	checkpoint := filepath.Join(dir, "checkpoint.txt")
	output := filepath.Join(dir, "results.jsonl")

	first := &fakeInvestigator{}
	o := NewOrchestrator(first, Options{
		Input:      input,
		Checkpoint: checkpoint,
		Output:     output,
		MaxRows:    6, // simulate an interruption after row 6
	})
	require.NoError(t, o.Run(context.Background()))
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, first.investigatedRows())

	second := &fakeInvestigator{}
	o = NewOrchestrator(second, Options{
		Input:      input,
		Checkpoint: checkpoint,
		Output:     output,
		Resume:     true,
	})
	require.NoError(t, o.Run(context.Background()))
	assert.Equal(t, []int{7, 8, 9, 10}, second.investigatedRows(),
		"resume processes exactly the remaining rows, in order")

	assert.Len(t, readKeys(t, output), 10)
}

func TestRun_IdempotentWithSameArtifacts(t *testing.T) {
	dir := t.TempDir()
	input := writeFeed(t, dir, 5)
	checkpoint := filepath.Join(dir, "checkpoint.txt")
	output := filepath.Join(dir, "results.jsonl")

	run := func(inv *fakeInvestigator) {
		o := NewOrchestrator(inv, Options{
			Input: input, Checkpoint: checkpoint, Output: output, Resume: true,
		})
		require.NoError(t, o.Run(context.Background()))
	}

	run(&fakeInvestigator{})
	before, err := countLines(output)
	require.NoError(t, err)

	again := &fakeInvestigator{}
	run(again)
	after, err := countLines(output)
	require.NoError(t, err)

	assert.Empty(t, again.investigatedRows(), "no lead is reprocessed")
	assert.Equal(t, before, after, "no duplicate rows are appended")
}

func TestRun_ErrorRecordStaysRetryable(t *testing.T) {
	dir := t.TempDir()
	input := writeFeed(t, dir, 3)
	checkpoint := filepath.Join(dir, "checkpoint.txt")
	output := filepath.Join(dir, "results.jsonl")

	failing := &fakeInvestigator{fail: map[string]bool{"lead_0002.md": true}}
	o := NewOrchestrator(failing, Options{
		Input: input, Checkpoint: checkpoint, Output: output,
	})
	require.NoError(t, o.Run(context.Background()), "a lead failure never aborts the batch")

	cp, err := LoadCheckpoint(checkpoint)
	require.NoError(t, err)
	assert.NotContains(t, cp, "lead_0002.md", "error records do not advance the checkpoint")
	assert.Contains(t, cp, "lead_0001.md")
	assert.Contains(t, cp, "lead_0003.md")

	retry := &fakeInvestigator{}
	o = NewOrchestrator(retry, Options{
		Input: input, Checkpoint: checkpoint, Output: output, Resume: true,
	})
	require.NoError(t, o.Run(context.Background()))
	assert.Equal(t, []int{2}, retry.investigatedRows(), "only the failed lead is retried")
}

func TestRun_WindowBounds(t *testing.T) {
	dir := t.TempDir()
	inv := &fakeInvestigator{}

	o := NewOrchestrator(inv, Options{
		Input:      writeFeed(t, dir, 10),
		Checkpoint: filepath.Join(dir, "checkpoint.txt"),
		Output:     filepath.Join(dir, "results.jsonl"),
		StartRow:   4,
		EndRow:     7,
	})
	require.NoError(t, o.Run(context.Background()))
	assert.Equal(t, []int{4, 5, 6, 7}, inv.investigatedRows())
}

func TestRun_RefusesExistingOutputWithoutResume(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "results.jsonl")
	require.NoError(t, os.WriteFile(output, []byte("{}\n"), 0o644))

	o := NewOrchestrator(&fakeInvestigator{}, Options{
		Input:      writeFeed(t, dir, 2),
		Checkpoint: filepath.Join(dir, "checkpoint.txt"),
		Output:     output,
	})
	err := o.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exists")
}

func TestRun_CancelledContextStopsBeforeNextLead(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inv := &fakeInvestigator{}
	o := NewOrchestrator(inv, Options{
		Input:      writeFeed(t, dir, 5),
		Checkpoint: filepath.Join(dir, "checkpoint.txt"),
		Output:     filepath.Join(dir, "results.jsonl"),
	})
	require.NoError(t, o.Run(ctx), "a stop request is a clean halt, not an error")
	assert.Empty(t, inv.investigatedRows())
}
