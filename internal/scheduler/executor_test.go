package scheduler

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadscope/internal/model"
)

// fakeSearcher records call order and serves canned results keyed by a
// substring of the query text.
type fakeSearcher struct {
	mu      sync.Mutex
	calls   []string
	results map[string][]model.EvidenceItem
	errs    map[string]error
}

func (f *fakeSearcher) Search(_ context.Context, query string, _ int) ([]model.EvidenceItem, error) {
	f.mu.Lock()
	f.calls = append(f.calls, query)
	f.mu.Unlock()

	for sub, err := range f.errs {
		if strings.Contains(query, sub) {
			return nil, err
		}
	}
	for sub, items := range f.results {
		if strings.Contains(query, sub) {
			return items, nil
		}
	}
	return nil, nil
}

func (f *fakeSearcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeFacts serves canned fact records.
type fakeFacts struct {
	trial      *model.TrialRecord
	grant      *model.GrantRecord
	retraction *model.RetractionRecord
	err        error
}

func (f *fakeFacts) GetTrial(context.Context, string) (*model.TrialRecord, error) {
	return f.trial, f.err
}

func (f *fakeFacts) GetGrant(context.Context, string) (*model.GrantRecord, error) {
	return f.grant, f.err
}

func (f *fakeFacts) GetRetraction(context.Context, string) (*model.RetractionRecord, error) {
	return f.retraction, f.err
}

func (f *fakeFacts) Migrate(context.Context) error { return nil }
func (f *fakeFacts) Close() error                  { return nil }

func TestExecutor_EarlyTermination_CriticalOnlyEvidence(t *testing.T) {
	search := &fakeSearcher{
		results: map[string][]model.EvidenceItem{
			"copyright permission license": {
				{URL: "https://retractionwatch.com/x", Title: "Notice", Content: "Pulled over a licensing fee dispute."},
			},
		},
	}

	exec := NewExecutor(search, &fakeFacts{}, NewCache(), testSchedulerConfig())
	ev, _, err := exec.Gather(context.Background(), fullLead())
	require.NoError(t, err)

	assert.True(t, ev.EarlyTerminated)
	assert.Equal(t, "license", ev.TriggerTerm)
	assert.Equal(t, 1, search.callCount(), "stop after the triggering CRITICAL query")
	for _, item := range ev.Items {
		assert.Equal(t, model.TierCritical, item.Tier, "early termination yields CRITICAL-only evidence")
	}
}

func TestExecutor_PriorityInvariant(t *testing.T) {
	search := &fakeSearcher{}
	cfg := testSchedulerConfig()

	exec := NewExecutor(search, &fakeFacts{}, NewCache(), cfg)
	lead := fullLead()
	_, _, err := exec.Gather(context.Background(), lead)
	require.NoError(t, err)

	plan := BuildPlan(lead, cfg)
	criticalText := make(map[string]bool)
	criticalTotal := 0
	for _, q := range plan {
		if q.Tier == model.TierCritical {
			criticalText[q.Text] = true
			criticalTotal++
		}
	}

	require.Equal(t, len(plan), search.callCount())
	seenCritical := 0
	for _, call := range search.calls {
		if criticalText[call] {
			seenCritical++
		} else {
			assert.Equal(t, criticalTotal, seenCritical,
				"no HIGH/MEDIUM query may be issued before all CRITICAL queries returned")
		}
	}
}

func TestExecutor_DedupPreservesFirstOccurrence(t *testing.T) {
	shared := model.EvidenceItem{URL: "https://example.org/dup", Title: "first", Content: "seen twice"}
	search := &fakeSearcher{
		results: map[string][]model.EvidenceItem{
			"site:justice.gov": {shared},
			"site:clinicaltrials.gov": {
				{URL: "https://example.org/dup", Title: "second", Content: "duplicate"},
				{URL: "https://example.org/unique", Title: "unique", Content: "kept"},
			},
		},
	}

	exec := NewExecutor(search, &fakeFacts{}, NewCache(), testSchedulerConfig())
	ev, _, err := exec.Gather(context.Background(), fullLead())
	require.NoError(t, err)

	var dupCount int
	for _, item := range ev.Items {
		if item.URL == "https://example.org/dup" {
			dupCount++
			assert.Equal(t, "first", item.Title, "first occurrence wins")
		}
	}
	assert.Equal(t, 1, dupCount)
}

func TestExecutor_FactStoreHitsBecomeHighTrustEvidence(t *testing.T) {
	facts := &fakeFacts{
		trial: &model.TrialRecord{
			TrialID: "NCT01234567", Title: "Phase II oncology study",
			Status: "TERMINATED", Phase: "Phase 2", Enrollment: 120,
			PrincipalInvestigator: "Jane Doe", Sponsor: "Example University", FundedBy: "NIH",
		},
		retraction: &model.RetractionRecord{
			PMID: "31234567", Journal: "J Example", RetractionDate: "2023-01-15",
			RetractionReason: "Falsification of data",
		},
	}

	exec := NewExecutor(&fakeSearcher{}, facts, NewCache(), testSchedulerConfig())
	ev, found, err := exec.Gather(context.Background(), fullLead())
	require.NoError(t, err)

	assert.Equal(t, 2, found.Hits())
	var fromStore int
	for _, item := range ev.Items {
		if item.FromFactStore {
			fromStore++
			assert.Equal(t, model.TierCritical, item.Tier)
		}
	}
	assert.Equal(t, 2, fromStore)
	assert.Equal(t, "https://clinicaltrials.gov/study/NCT01234567", ev.Items[0].URL,
		"fact store evidence leads the merged set")
}

func TestExecutor_CacheAvoidsRepeatSearches(t *testing.T) {
	search := &fakeSearcher{
		results: map[string][]model.EvidenceItem{
			"NCT01234567": {{URL: "https://example.org/a", Title: "a"}},
		},
	}
	cache := NewCache()
	cfg := testSchedulerConfig()
	exec := NewExecutor(search, &fakeFacts{}, cache, cfg)

	lead := fullLead()
	first, _, err := exec.Gather(context.Background(), lead)
	require.NoError(t, err)
	assert.Equal(t, first.SearchesPlanned, first.SearchesIssued)
	assert.Zero(t, first.CacheHits)

	calls := search.callCount()
	second, _, err := exec.Gather(context.Background(), lead)
	require.NoError(t, err)
	assert.Equal(t, calls, search.callCount(), "second pass is fully served from cache")
	assert.Zero(t, second.SearchesIssued)
	assert.Equal(t, second.SearchesPlanned, second.CacheHits)
	assert.Equal(t, first.Items, second.Items)
}

func TestExecutor_SearchFailureIsZeroEvidenceForSlot(t *testing.T) {
	search := &fakeSearcher{
		errs: map[string]error{
			"site:reporter.nih.gov": eris.New("tavily: unexpected status 503"),
		},
		results: map[string][]model.EvidenceItem{
			"withdrawn terminated fraud": {{URL: "https://example.org/ok", Title: "ok"}},
		},
	}

	exec := NewExecutor(search, &fakeFacts{}, NewCache(), testSchedulerConfig())
	ev, _, err := exec.Gather(context.Background(), fullLead())
	require.NoError(t, err, "a failed query slot must not fail the lead")

	var ok bool
	for _, item := range ev.Items {
		if item.URL == "https://example.org/ok" {
			ok = true
		}
	}
	assert.True(t, ok, "successful slots still contribute evidence")
}

func TestExecutor_NoIdentifiers_NoSearches(t *testing.T) {
	search := &fakeSearcher{}
	exec := NewExecutor(search, &fakeFacts{}, NewCache(), testSchedulerConfig())

	ev, found, err := exec.Gather(context.Background(), &model.Lead{Key: "row-1"})
	require.NoError(t, err)
	assert.Zero(t, ev.SearchesPlanned)
	assert.Zero(t, found.Hits())
	assert.Empty(t, ev.Items)
}
