package scheduler

import (
	"fmt"
	"strings"

	"github.com/sells-group/leadscope/internal/config"
	"github.com/sells-group/leadscope/internal/model"
)

// BuildPlan derives the bounded query plan for a lead. Only the first
// identifier of each type is expanded, keeping the plan at 8-12 queries no
// matter how many identifiers the lead carries. Order within a tier is
// insertion order.
func BuildPlan(lead *model.Lead, cfg config.SchedulerConfig) []model.Query {
	critCap := cfg.CriticalResults
	if critCap <= 0 {
		critCap = 3
	}
	stdCap := cfg.StandardResults
	if stdCap <= 0 {
		stdCap = 5
	}

	var plan []model.Query
	add := func(text string, maxResults int, tier model.Tier) {
		plan = append(plan, model.Query{Text: text, MaxResults: maxResults, Tier: tier})
	}

	var firstPMID, firstNCT, firstGrant string
	if len(lead.PublicationIDs) > 0 {
		firstPMID = lead.PublicationIDs[0]
	}
	if len(lead.TrialIDs) > 0 {
		firstNCT = lead.TrialIDs[0]
	}
	if len(lead.GrantNumbers) > 0 {
		firstGrant = lead.GrantNumbers[0]
	}

	// CRITICAL: settlement / disqualifier kill checks.
	if firstPMID != "" {
		add(fmt.Sprintf("PMID %s retraction reason copyright permission license", firstPMID), critCap, model.TierCritical)
		add(fmt.Sprintf("site:justice.gov PMID %s settlement qui tam", firstPMID), critCap, model.TierCritical)
	}
	if firstNCT != "" {
		add(fmt.Sprintf("site:justice.gov %s settlement qui tam False Claims", firstNCT), critCap, model.TierCritical)
	}

	// HIGH: retraction/fraud documentation.
	if firstPMID != "" {
		add(fmt.Sprintf("PMID %s retraction fraud fabrication", firstPMID), stdCap, model.TierHigh)
	}
	if firstNCT != "" {
		add(fmt.Sprintf("%s site:clinicaltrials.gov", firstNCT), stdCap, model.TierHigh)
		add(fmt.Sprintf("%s withdrawn terminated fraud", firstNCT), stdCap, model.TierHigh)
	}

	// HIGH: federal funding documentation.
	switch {
	case firstNCT != "":
		add(fmt.Sprintf("site:reporter.nih.gov %s", firstNCT), stdCap, model.TierHigh)
	case firstPMID != "":
		add(fmt.Sprintf("site:reporter.nih.gov PMID %s", firstPMID), stdCap, model.TierHigh)
	}
	if firstGrant != "" {
		add(fmt.Sprintf("site:reporter.nih.gov %q", firstGrant), stdCap, model.TierHigh)
	}

	// MEDIUM: implicated actor check.
	if lead.ImplicatedActors != "" && !strings.Contains(lead.ImplicatedActors, "Unknown") {
		if actor := firstActor(lead.ImplicatedActors); actor != "" {
			add(fmt.Sprintf("%s fraud settlement NIH", actor), stdCap, model.TierMedium)
		}
	}

	// MEDIUM: headline backup when the plan is thin.
	if lead.Headline != "" && len(plan) < 8 {
		words := strings.Fields(lead.Headline)
		if len(words) > 4 {
			words = words[:4]
		}
		add(fmt.Sprintf("%s fraud retraction settlement 2024 2025", strings.Join(words, " ")), stdCap, model.TierMedium)
	}

	maxQueries := cfg.MaxQueries
	if maxQueries <= 0 {
		maxQueries = 12
	}
	if len(plan) > maxQueries {
		plan = plan[:maxQueries]
	}
	return plan
}

func firstActor(implicated string) string {
	for _, a := range strings.Split(implicated, ";") {
		if a = strings.TrimSpace(a); a != "" {
			return a
		}
	}
	return ""
}
