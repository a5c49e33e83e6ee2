package model

// TrialRecord is a pre-verified clinical trial row from the local fact store.
type TrialRecord struct {
	TrialID               string `json:"trial_id"`
	Title                 string `json:"title"`
	Status                string `json:"status"`
	Phase                 string `json:"phase"`
	Enrollment            int    `json:"enrollment"`
	StartDate             string `json:"start_date"`
	CompletionDate        string `json:"completion_date"`
	StudyType             string `json:"study_type"`
	PrincipalInvestigator string `json:"principal_investigator"`
	Sponsor               string `json:"sponsor"`
	FundedBy              string `json:"funded_by"`
}

// GrantRecord is a pre-verified federal grant row from the local fact store.
type GrantRecord struct {
	ProjectNum   string  `json:"project_num"`
	PIName       string  `json:"pi_name"`
	OrgName      string  `json:"org_name"`
	OrgCity      string  `json:"org_city"`
	OrgState     string  `json:"org_state"`
	TotalCost    float64 `json:"total_cost"`
	FiscalYear   int     `json:"fiscal_year"`
	ProjectTitle string  `json:"project_title"`
}

// RetractionRecord is a pre-verified publication retraction row.
type RetractionRecord struct {
	PMID              string `json:"pmid"`
	DOI               string `json:"doi"`
	Title             string `json:"title"`
	Journal           string `json:"journal"`
	RetractionDate    string `json:"retraction_date"`
	RetractionReason  string `json:"retraction_reason"`
	OriginalPaperDate string `json:"original_paper_date"`
}

// FactFindings collects the fact-store hits for one lead. Fact-store data is
// treated as higher-trust than search evidence when both cover the same point.
type FactFindings struct {
	Trial      *TrialRecord      `json:"trial,omitempty"`
	Grant      *GrantRecord      `json:"grant,omitempty"`
	Retraction *RetractionRecord `json:"retraction,omitempty"`
}

// Hits counts how many identifier lookups found a record.
func (f FactFindings) Hits() int {
	n := 0
	if f.Trial != nil {
		n++
	}
	if f.Grant != nil {
		n++
	}
	if f.Retraction != nil {
		n++
	}
	return n
}
