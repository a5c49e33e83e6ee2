package batch

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadscope/internal/model"
)

func writeResultLines(t *testing.T, path string, results ...*model.InvestigationResult) []string {
	t.Helper()
	var lines []string
	for _, res := range results {
		data, err := json.Marshal(res)
		require.NoError(t, err)
		lines = append(lines, string(data))
	}
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return lines
}

func scoredResult(row int, key string, score int) *model.InvestigationResult {
	return &model.InvestigationResult{
		ID: "old", LeadKey: key, RowIndex: row,
		Report: "old report", Score: &score, EffectiveScore: score,
		Status: model.ResultStatusOK,
	}
}

func TestRerun_SelectsLowMissingAndErrorRecords(t *testing.T) {
	dir := t.TempDir()
	input := writeFeed(t, dir, 4)
	output := filepath.Join(dir, "results.jsonl")

	errRec := &model.InvestigationResult{
		ID: "old", LeadKey: "lead_0003.md", RowIndex: 3,
		Report: "# Investigation Error\n\nAn error occurred: boom",
		Status: model.ResultStatusError, Error: "boom",
	}
	scoreless := &model.InvestigationResult{
		ID: "old", LeadKey: "lead_0004.md", RowIndex: 4,
		Report: "inconclusive", Status: model.ResultStatusOK,
	}
	originals := writeResultLines(t, output,
		scoredResult(1, "lead_0001.md", 80),
		scoredResult(2, "lead_0002.md", 20),
		errRec,
		scoreless,
	)

	inv := &fakeInvestigator{score: 90}
	require.NoError(t, Rerun(context.Background(), inv, input, []string{output}, 50))

	assert.ElementsMatch(t, []int{2, 3, 4}, inv.investigatedRows())

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 4)

	assert.Equal(t, originals[0], lines[0], "records above the threshold are preserved byte-for-byte")
	for _, line := range lines[1:] {
		var rec model.InvestigationResult
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		assert.Equal(t, model.ResultStatusOK, rec.Status)
		assert.Equal(t, 90, rec.EffectiveScore)
	}
}

func TestRerun_KeepsScoredRecordWhenRetryFails(t *testing.T) {
	dir := t.TempDir()
	input := writeFeed(t, dir, 1)
	output := filepath.Join(dir, "results.jsonl")
	originals := writeResultLines(t, output, scoredResult(1, "lead_0001.md", 10))

	inv := &fakeInvestigator{fail: map[string]bool{"lead_0001.md": true}}
	require.NoError(t, Rerun(context.Background(), inv, input, []string{output}, 50))

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, originals[0]+"\n", string(data),
		"a scored record is never replaced by a fresh failure")
}

func TestRerun_NoCandidates(t *testing.T) {
	dir := t.TempDir()
	input := writeFeed(t, dir, 2)
	output := filepath.Join(dir, "results.jsonl")
	writeResultLines(t, output,
		scoredResult(1, "lead_0001.md", 70),
		scoredResult(2, "lead_0002.md", 95),
	)
	before, err := os.ReadFile(output)
	require.NoError(t, err)

	inv := &fakeInvestigator{}
	require.NoError(t, Rerun(context.Background(), inv, input, []string{output}, 50))

	after, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Empty(t, inv.investigatedRows())
	assert.Equal(t, before, after)
}
