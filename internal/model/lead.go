package model

// Lead is a candidate fraud case awaiting investigation. It is immutable once
// read from the feed; the Key (source filename, or a synthetic row key) is the
// dedup identity used by the checkpoint and output stream.
type Lead struct {
	Key                 string   `json:"key"`
	RowIndex            int      `json:"row_index"`
	Headline            string   `json:"headline"`
	OriginalText        string   `json:"original_text,omitempty"`
	TrialIDs            []string `json:"trial_ids,omitempty"`
	PublicationIDs      []string `json:"publication_ids,omitempty"`
	GrantNumbers        []string `json:"grant_numbers,omitempty"`
	ClassificationScore int      `json:"classification_score"`
	FraudType           string   `json:"fraud_type,omitempty"`
	KeyFacts            string   `json:"key_facts,omitempty"`
	ImplicatedActors    string   `json:"implicated_actors,omitempty"`
	FederalPrograms     string   `json:"federal_programs,omitempty"`
}

// HasIdentifiers reports whether the lead carries at least one registry,
// publication, or grant identifier.
func (l Lead) HasIdentifiers() bool {
	return len(l.TrialIDs) > 0 || len(l.PublicationIDs) > 0 || len(l.GrantNumbers) > 0
}
