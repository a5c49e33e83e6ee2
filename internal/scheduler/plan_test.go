package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadscope/internal/config"
	"github.com/sells-group/leadscope/internal/model"
)

func testSchedulerConfig() config.SchedulerConfig {
	return config.SchedulerConfig{
		MaxQueries:      12,
		CriticalResults: 3,
		StandardResults: 5,
		Workers:         4,
		TriggerTerms:    []string{"copyright", "permission", "license", "licensing fee"},
		SettlementYears: []string{"2024", "2025"},
	}
}

func fullLead() *model.Lead {
	return &model.Lead{
		Key:              "NCT01234567_report.txt",
		RowIndex:         1,
		Headline:         "Oncology trial terminated amid data fabrication claims",
		TrialIDs:         []string{"NCT01234567", "NCT07654321"},
		PublicationIDs:   []string{"31234567", "29876543"},
		GrantNumbers:     []string{"R01 CA123456"},
		ImplicatedActors: "Dr. Jane Doe; Example University",
	}
}

func TestBuildPlan_FullLead(t *testing.T) {
	plan := BuildPlan(fullLead(), testSchedulerConfig())

	require.NotEmpty(t, plan)
	assert.LessOrEqual(t, len(plan), 12)
	assert.GreaterOrEqual(t, len(plan), 8)

	// CRITICAL queries come from the first PMID and first trial ID only.
	var critical []model.Query
	for _, q := range plan {
		if q.Tier == model.TierCritical {
			critical = append(critical, q)
		}
	}
	require.Len(t, critical, 3)
	assert.Contains(t, critical[0].Text, "31234567")
	assert.Contains(t, critical[0].Text, "copyright permission license")
	assert.Contains(t, critical[2].Text, "NCT01234567")
	for _, q := range critical {
		assert.Equal(t, 3, q.MaxResults)
		assert.NotContains(t, q.Text, "NCT07654321", "only the first trial ID is expanded")
		assert.NotContains(t, q.Text, "29876543", "only the first PMID is expanded")
	}
}

func TestBuildPlan_TiersAreContiguous(t *testing.T) {
	plan := BuildPlan(fullLead(), testSchedulerConfig())

	order := map[model.Tier]int{model.TierCritical: 0, model.TierHigh: 1, model.TierMedium: 2}
	last := 0
	for _, q := range plan {
		rank := order[q.Tier]
		assert.GreaterOrEqual(t, rank, last, "tiers must not interleave")
		last = rank
	}
}

func TestBuildPlan_ActorQuery(t *testing.T) {
	plan := BuildPlan(fullLead(), testSchedulerConfig())

	var found bool
	for _, q := range plan {
		if q.Tier == model.TierMedium && q.Text == "Dr. Jane Doe fraud settlement NIH" {
			found = true
		}
	}
	assert.True(t, found, "first implicated actor gets a MEDIUM query")
}

func TestBuildPlan_UnknownActorSkipped(t *testing.T) {
	lead := fullLead()
	lead.ImplicatedActors = "Unknown"
	plan := BuildPlan(lead, testSchedulerConfig())

	for _, q := range plan {
		assert.NotContains(t, q.Text, "Unknown")
	}
}

func TestBuildPlan_HeadlineBackupForThinLead(t *testing.T) {
	lead := &model.Lead{
		Key:      "row-9",
		Headline: "University lab accused of falsifying enrollment data records",
	}
	plan := BuildPlan(lead, testSchedulerConfig())

	require.Len(t, plan, 1)
	assert.Equal(t, model.TierMedium, plan[0].Tier)
	assert.Equal(t, "University lab accused of fraud retraction settlement 2024 2025", plan[0].Text)
}

func TestBuildPlan_NoHeadlineBackupWhenPlanIsFull(t *testing.T) {
	plan := BuildPlan(fullLead(), testSchedulerConfig())

	for _, q := range plan {
		assert.NotContains(t, q.Text, "Oncology trial terminated amid")
	}
}

func TestBuildPlan_EmptyLead(t *testing.T) {
	plan := BuildPlan(&model.Lead{Key: "row-1"}, testSchedulerConfig())
	assert.Empty(t, plan)
}

func TestBuildPlan_MaxQueriesCap(t *testing.T) {
	cfg := testSchedulerConfig()
	cfg.MaxQueries = 4
	plan := BuildPlan(fullLead(), cfg)
	assert.Len(t, plan, 4)
}

func TestBuildPlan_Deterministic(t *testing.T) {
	a := BuildPlan(fullLead(), testSchedulerConfig())
	b := BuildPlan(fullLead(), testSchedulerConfig())
	assert.Equal(t, a, b)
}
