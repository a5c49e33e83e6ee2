package scheduler

import (
	"strings"

	"github.com/sells-group/leadscope/internal/model"
)

// ScanTriggers checks one evidence item for early-termination terms. A hit
// on any configured term, or "settlement" combined with a recent year, means
// the lead is likely disqualified (or already resolved) and further evidence
// gathering is wasted spend.
func ScanTriggers(item model.EvidenceItem, terms, settlementYears []string) (string, bool) {
	combined := strings.ToLower(item.Content) + strings.ToLower(item.Title)

	for _, term := range terms {
		if term != "" && strings.Contains(combined, strings.ToLower(term)) {
			return term, true
		}
	}

	if strings.Contains(combined, "settlement") {
		for _, year := range settlementYears {
			if year != "" && strings.Contains(combined, year) {
				return "settlement " + year, true
			}
		}
	}

	return "", false
}
