package model

// ResultStatus distinguishes completed investigations from error records.
type ResultStatus string

const (
	ResultStatusOK    ResultStatus = "ok"
	ResultStatusError ResultStatus = "error"
)

// InvestigationResult is the persisted outcome of investigating one lead.
// Score is nil when the report carried no parseable score; EffectiveScore
// collapses nil to 0 for downstream filtering so the two stay distinguishable.
type InvestigationResult struct {
	ID              string       `json:"id"`
	LeadKey         string       `json:"lead_key"`
	RowIndex        int          `json:"row_index"`
	Headline        string       `json:"headline,omitempty"`
	Report          string       `json:"report"`
	Score           *int         `json:"score"`
	EffectiveScore  int          `json:"effective_score"`
	EvidenceCount   int          `json:"evidence_count"`
	FactStoreHits   int          `json:"fact_store_hits"`
	SearchesPlanned int          `json:"searches_planned"`
	Status          ResultStatus `json:"status"`
	Error           string       `json:"error,omitempty"`
}

// Scored reports whether the result carries a parsed viability score.
func (r InvestigationResult) Scored() bool {
	return r.Score != nil
}
