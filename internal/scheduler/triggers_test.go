package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/leadscope/internal/model"
)

func TestScanTriggers(t *testing.T) {
	terms := []string{"copyright", "permission", "license", "licensing fee"}
	years := []string{"2024", "2025"}

	tests := []struct {
		name     string
		item     model.EvidenceItem
		wantTerm string
		wantHit  bool
	}{
		{
			name:     "licensing fee in content",
			item:     model.EvidenceItem{Content: "The paper was pulled over a licensing fee dispute."},
			wantTerm: "license",
			wantHit:  true,
		},
		{
			name:     "copyright in title",
			item:     model.EvidenceItem{Title: "Copyright complaint forces retraction"},
			wantTerm: "copyright",
			wantHit:  true,
		},
		{
			name:     "settlement with recent year",
			item:     model.EvidenceItem{Content: "DOJ announced a settlement in March 2024 resolving the claims."},
			wantTerm: "settlement 2024",
			wantHit:  true,
		},
		{
			name: "settlement with old year only",
			item: model.EvidenceItem{Content: "A settlement was reached back in 2015."},
		},
		{
			name: "no triggers",
			item: model.EvidenceItem{Title: "Trial enrollment data", Content: "Phase 2 study of 120 patients."},
		},
		{
			name: "empty item",
			item: model.EvidenceItem{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			term, hit := ScanTriggers(tt.item, terms, years)
			assert.Equal(t, tt.wantHit, hit)
			assert.Equal(t, tt.wantTerm, term)
		})
	}
}
