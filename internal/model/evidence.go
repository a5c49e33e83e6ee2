package model

// Tier is the priority class of a search query. CRITICAL queries run first,
// sequentially, and can terminate evidence gathering early; HIGH and MEDIUM
// queries run afterwards with bounded parallelism.
type Tier string

const (
	TierCritical Tier = "CRITICAL"
	TierHigh     Tier = "HIGH"
	TierMedium   Tier = "MEDIUM"
)

// Query is one planned external search, derived deterministically from a
// lead's identifiers. Order within a tier is insertion order.
type Query struct {
	Text       string `json:"text"`
	MaxResults int    `json:"max_results"`
	Tier       Tier   `json:"tier"`
}

// EvidenceItem is a single search hit. URL is the dedup key: a lead's
// evidence set never contains two items with the same URL.
type EvidenceItem struct {
	URL           string `json:"url"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	Tier          Tier   `json:"tier"`
	FromFactStore bool   `json:"from_fact_store,omitempty"`
}

// Evidence is the merged, deduplicated outcome of running a lead's query plan.
type Evidence struct {
	Items           []EvidenceItem `json:"items"`
	SearchesPlanned int            `json:"searches_planned"`
	SearchesIssued  int            `json:"searches_issued"`
	CacheHits       int            `json:"cache_hits"`
	EarlyTerminated bool           `json:"early_terminated"`
	TriggerTerm     string         `json:"trigger_term,omitempty"`
}
