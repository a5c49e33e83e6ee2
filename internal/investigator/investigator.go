package investigator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadscope/internal/model"
	"github.com/sells-group/leadscope/pkg/anthropic"
)

// EvidenceGatherer is the per-lead evidence scheduler seam.
type EvidenceGatherer interface {
	Gather(ctx context.Context, lead *model.Lead) (*model.Evidence, model.FactFindings, error)
}

// Investigator runs one full investigation: evidence gathering, synthesis
// via the knowledge engine, and score extraction.
type Investigator struct {
	gatherer     EvidenceGatherer
	engine       anthropic.Client
	model        string
	maxTokens    int64
	timeout      time.Duration
	systemPrompt string
}

// Option configures the Investigator.
type Option func(*Investigator)

// WithSystemPrompt overrides the default investigation protocol prompt.
func WithSystemPrompt(prompt string) Option {
	return func(inv *Investigator) {
		if prompt != "" {
			inv.systemPrompt = prompt
		}
	}
}

// WithTimeout caps each knowledge engine call.
func WithTimeout(d time.Duration) Option {
	return func(inv *Investigator) {
		if d > 0 {
			inv.timeout = d
		}
	}
}

// New wires an Investigator.
func New(gatherer EvidenceGatherer, engine anthropic.Client, modelID string, maxTokens int64, opts ...Option) *Investigator {
	inv := &Investigator{
		gatherer:     gatherer,
		engine:       engine,
		model:        modelID,
		maxTokens:    maxTokens,
		timeout:      120 * time.Second,
		systemPrompt: defaultSystemPrompt,
	}
	for _, o := range opts {
		o(inv)
	}
	return inv
}

// Investigate produces exactly one result per lead. Failures become a
// diagnosable error record ("# Investigation Error" report, Status "error")
// rather than an orchestrator crash; error records stay off the checkpoint
// so the lead remains eligible for retry.
func (inv *Investigator) Investigate(ctx context.Context, lead *model.Lead) *model.InvestigationResult {
	res := &model.InvestigationResult{
		ID:       uuid.New().String(),
		LeadKey:  lead.Key,
		RowIndex: lead.RowIndex,
		Headline: lead.Headline,
		Status:   model.ResultStatusOK,
	}

	ev, facts, err := inv.gatherer.Gather(ctx, lead)
	if err != nil {
		return inv.errorRecord(res, eris.Wrap(err, "investigator: gather evidence"))
	}
	res.EvidenceCount = len(ev.Items)
	res.FactStoreHits = facts.Hits()
	res.SearchesPlanned = ev.SearchesPlanned

	report, err := inv.synthesize(ctx, lead, ev, facts)
	if err != nil {
		return inv.errorRecord(res, err)
	}

	res.Report = report
	res.Score = ExtractScore(report)
	res.EffectiveScore = EffectiveScore(res.Score)

	zap.L().Info("lead investigated",
		zap.String("lead", lead.Key),
		zap.Int("row", lead.RowIndex),
		zap.Int("effective_score", res.EffectiveScore),
		zap.Bool("scored", res.Scored()),
		zap.Int("evidence", res.EvidenceCount),
		zap.Int("fact_store_hits", res.FactStoreHits),
		zap.Int("searches_issued", ev.SearchesIssued),
		zap.Int("cache_hits", ev.CacheHits),
		zap.Bool("early_terminated", ev.EarlyTerminated),
	)
	return res
}

func (inv *Investigator) synthesize(ctx context.Context, lead *model.Lead, ev *model.Evidence, facts model.FactFindings) (string, error) {
	if inv.engine == nil {
		return "", eris.New("investigator: knowledge engine not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, inv.timeout)
	defer cancel()

	resp, err := inv.engine.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     inv.model,
		MaxTokens: inv.maxTokens,
		System: []anthropic.SystemBlock{
			{Text: inv.systemPrompt, CacheControl: &anthropic.CacheControl{TTL: "5m"}},
		},
		Messages: []anthropic.Message{
			{Role: "user", Content: buildUserMessage(lead, ev, facts)},
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "investigator: create message")
	}

	text := resp.Text()
	if text == "" {
		return "", eris.New("investigator: empty response from knowledge engine")
	}

	resp.Usage.LogCost(inv.model, "investigate")
	return text, nil
}

func (inv *Investigator) errorRecord(res *model.InvestigationResult, err error) *model.InvestigationResult {
	zap.L().Error("investigation failed",
		zap.String("lead", res.LeadKey),
		zap.Int("row", res.RowIndex),
		zap.Error(err),
	)
	res.Status = model.ResultStatusError
	res.Error = err.Error()
	res.Report = "# Investigation Error\n\nAn error occurred: " + err.Error()
	res.Score = nil
	res.EffectiveScore = 0
	return res
}
