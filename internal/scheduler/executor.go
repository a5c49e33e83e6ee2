package scheduler

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leadscope/internal/config"
	"github.com/sells-group/leadscope/internal/factstore"
	"github.com/sells-group/leadscope/internal/feed"
	"github.com/sells-group/leadscope/internal/model"
)

// Searcher issues one external search. A failed query returns an error and
// the executor treats it as zero evidence for that slot only.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]model.EvidenceItem, error)
}

// Executor gathers evidence for one lead: fact store first, then the tiered
// query plan with caching, early termination, and bounded parallelism.
type Executor struct {
	search Searcher
	facts  factstore.Store
	cache  *Cache
	cfg    config.SchedulerConfig

	mu sync.Mutex // guards Evidence counters during the parallel phase
}

// NewExecutor wires an Executor. The cache is shared across leads within a
// run; pass a fresh one per run.
func NewExecutor(search Searcher, facts factstore.Store, cache *Cache, cfg config.SchedulerConfig) *Executor {
	return &Executor{search: search, facts: facts, cache: cache, cfg: cfg}
}

// Gather returns the merged, URL-deduplicated evidence set and the fact
// store findings for a lead. CRITICAL queries run sequentially so a trigger
// hit can cancel the rest; HIGH and MEDIUM queries fan out with bounded
// parallelism afterwards.
func (e *Executor) Gather(ctx context.Context, lead *model.Lead) (*model.Evidence, model.FactFindings, error) {
	facts := e.lookupFacts(ctx, lead)

	plan := BuildPlan(lead, e.cfg)
	ev := &model.Evidence{SearchesPlanned: len(plan)}

	var critical, rest []model.Query
	for _, q := range plan {
		if q.Tier == model.TierCritical {
			critical = append(critical, q)
		} else {
			rest = append(rest, q)
		}
	}

	var merged []model.EvidenceItem
	merged = append(merged, factEvidence(facts)...)

	for _, q := range critical {
		items := e.runQuery(ctx, q, ev)
		merged = append(merged, items...)

		for _, item := range items {
			if term, hit := ScanTriggers(item, e.cfg.TriggerTerms, e.cfg.SettlementYears); hit {
				zap.L().Info("early termination trigger",
					zap.String("lead", lead.Key),
					zap.String("term", term),
				)
				ev.EarlyTerminated = true
				ev.TriggerTerm = term
				break
			}
		}
		if ev.EarlyTerminated {
			break
		}
	}

	if !ev.EarlyTerminated && len(rest) > 0 {
		slots := make([][]model.EvidenceItem, len(rest))
		g, gctx := errgroup.WithContext(ctx)
		workers := e.cfg.Workers
		if workers <= 0 {
			workers = 4
		}
		g.SetLimit(workers)

		for i, q := range rest {
			g.Go(func() error {
				slots[i] = e.runQuery(gctx, q, ev)
				return nil
			})
		}
		// Goroutines never return errors; failed queries are logged and
		// yield empty slots.
		_ = g.Wait()

		for _, items := range slots {
			merged = append(merged, items...)
		}
	}

	ev.Items = dedupByURL(merged)
	return ev, facts, nil
}

// runQuery resolves one query through the cache, falling back to the search
// provider. Provider failure is zero evidence for this slot, not a lead
// failure.
func (e *Executor) runQuery(ctx context.Context, q model.Query, ev *model.Evidence) []model.EvidenceItem {
	if items, ok := e.cache.Get(q.Text); ok {
		e.mu.Lock()
		ev.CacheHits++
		e.mu.Unlock()
		return tagTier(items, q.Tier)
	}

	e.mu.Lock()
	ev.SearchesIssued++
	e.mu.Unlock()

	items, err := e.search.Search(ctx, q.Text, q.MaxResults)
	if err != nil {
		zap.L().Warn("search failed",
			zap.String("query", q.Text),
			zap.Error(err),
		)
		return nil
	}

	e.cache.Put(q.Text, items)
	return tagTier(items, q.Tier)
}

func (e *Executor) lookupFacts(ctx context.Context, lead *model.Lead) model.FactFindings {
	var facts model.FactFindings
	if e.facts == nil {
		return facts
	}

	if len(lead.TrialIDs) > 0 {
		trial, err := e.facts.GetTrial(ctx, lead.TrialIDs[0])
		if err != nil {
			zap.L().Warn("fact store trial lookup failed", zap.String("nct_id", lead.TrialIDs[0]), zap.Error(err))
		}
		facts.Trial = trial
	}

	if len(lead.GrantNumbers) > 0 {
		core := feed.CoreProjectNum(lead.GrantNumbers[0])
		grant, err := e.facts.GetGrant(ctx, core)
		if err != nil {
			zap.L().Warn("fact store grant lookup failed", zap.String("core_project_num", core), zap.Error(err))
		}
		facts.Grant = grant
	}

	// First PMID with a retraction record wins.
	for _, pmid := range lead.PublicationIDs {
		ret, err := e.facts.GetRetraction(ctx, pmid)
		if err != nil {
			zap.L().Warn("fact store retraction lookup failed", zap.String("pmid", pmid), zap.Error(err))
			continue
		}
		if ret != nil {
			facts.Retraction = ret
			break
		}
	}

	return facts
}

// factEvidence converts fact store hits into higher-trust evidence items at
// canonical registry URLs. Placing them first means URL dedup keeps the fact
// record over any later search hit for the same page.
func factEvidence(facts model.FactFindings) []model.EvidenceItem {
	var items []model.EvidenceItem

	if t := facts.Trial; t != nil {
		items = append(items, model.EvidenceItem{
			URL:   fmt.Sprintf("https://clinicaltrials.gov/study/%s", t.TrialID),
			Title: t.Title,
			Content: fmt.Sprintf("Registry record: status %s, phase %s, enrollment %d, PI %s, sponsor %s, funded by %s.",
				t.Status, t.Phase, t.Enrollment, t.PrincipalInvestigator, t.Sponsor, t.FundedBy),
			Tier:          model.TierCritical,
			FromFactStore: true,
		})
	}

	if g := facts.Grant; g != nil {
		items = append(items, model.EvidenceItem{
			URL:   fmt.Sprintf("https://reporter.nih.gov/project/%s", g.ProjectNum),
			Title: g.ProjectTitle,
			Content: fmt.Sprintf("NIH grant record: PI %s, %s (%s, %s), total cost $%.0f, fiscal year %d.",
				g.PIName, g.OrgName, g.OrgCity, g.OrgState, g.TotalCost, g.FiscalYear),
			Tier:          model.TierCritical,
			FromFactStore: true,
		})
	}

	if r := facts.Retraction; r != nil {
		items = append(items, model.EvidenceItem{
			URL:   fmt.Sprintf("https://pubmed.ncbi.nlm.nih.gov/%s/", r.PMID),
			Title: r.Title,
			Content: fmt.Sprintf("Retraction record: %s retracted %s (%s), reason: %s.",
				r.Journal, r.RetractionDate, r.DOI, r.RetractionReason),
			Tier:          model.TierCritical,
			FromFactStore: true,
		})
	}

	return items
}

func tagTier(items []model.EvidenceItem, tier model.Tier) []model.EvidenceItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]model.EvidenceItem, len(items))
	copy(out, items)
	for i := range out {
		out[i].Tier = tier
	}
	return out
}

// dedupByURL keeps the first occurrence of each URL.
func dedupByURL(items []model.EvidenceItem) []model.EvidenceItem {
	seen := make(map[string]struct{}, len(items))
	var out []model.EvidenceItem
	for _, item := range items {
		if item.URL == "" {
			continue
		}
		if _, ok := seen[item.URL]; ok {
			continue
		}
		seen[item.URL] = struct{}{}
		out = append(out, item)
	}
	return out
}
