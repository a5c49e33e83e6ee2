package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadscope/internal/factstore"
	"github.com/sells-group/leadscope/internal/investigator"
	"github.com/sells-group/leadscope/internal/resilience"
	"github.com/sells-group/leadscope/internal/scheduler"
	anthropicpkg "github.com/sells-group/leadscope/pkg/anthropic"
	"github.com/sells-group/leadscope/pkg/tavily"
)

// investigationEnv bundles the wired dependencies shared by the
// investigation commands.
type investigationEnv struct {
	Store        factstore.Store
	Investigator *investigator.Investigator
}

func (e *investigationEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initInvestigation wires the fact store, search client, evidence scheduler,
// and investigator from config. timeoutSecs overrides the configured
// reasoning-call timeout when positive.
func initInvestigation(ctx context.Context, timeoutSecs int) (*investigationEnv, error) {
	st, err := factstore.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "open fact store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate fact store")
	}

	tavilyClient := tavily.NewClient(cfg.Tavily.Key,
		tavily.WithBaseURL(cfg.Tavily.BaseURL),
		tavily.WithSearchDepth(cfg.Tavily.SearchDepth),
		tavily.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Tavily.TimeoutSecs) * time.Second}),
		tavily.WithRetry(resilience.RetryConfig{
			MaxAttempts:       cfg.Tavily.MaxAttempts,
			InitialBackoff:    time.Duration(cfg.Tavily.BackoffSecs) * time.Second,
			RateLimitCooldown: time.Duration(cfg.Tavily.RateLimitCooldownSecs) * time.Second,
			OnRetry:           resilience.RetryLogger("tavily", "search"),
		}),
	)

	exec := scheduler.NewExecutor(
		scheduler.NewTavilySearcher(tavilyClient),
		st,
		scheduler.NewCache(),
		cfg.Scheduler,
	)

	// A missing key surfaces per lead as a diagnosable error record rather
	// than a startup failure, so runs that only hit the fact store still work.
	var engine anthropicpkg.Client
	if cfg.Anthropic.Key != "" {
		engine = anthropicpkg.NewClient(cfg.Anthropic.Key)
	} else {
		zap.L().Warn("anthropic key not configured, investigations will produce error records")
	}

	timeout := cfg.Anthropic.TimeoutSecs
	if timeoutSecs > 0 {
		timeout = timeoutSecs
	}
	inv := investigator.New(exec, engine, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens,
		investigator.WithTimeout(time.Duration(timeout)*time.Second))

	return &investigationEnv{Store: st, Investigator: inv}, nil
}
