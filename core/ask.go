package core

import (
	"context"
	"errors"
	"time"

	"github.com/huangsam/repopulse/internal/analytics"
	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
)

// ErrNoMessage is returned when ask runs without a question.
var ErrNoMessage = errors.New("--message is required")

// GetAskResult sends cfg.Message about cfg.Repo to client and tracks the run in
// the history store of mgr, if any. onTick is called once per pending second
// unless the context is quiet.
func GetAskResult(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, client contract.AnalyticsClient, onTick func(elapsed int)) (schema.AskResult, error) {
	if cfg.Repo.IsZero() {
		return schema.AskResult{}, ErrNoRepository
	}
	if cfg.Message == "" {
		return schema.AskResult{}, ErrNoMessage
	}
	req := schema.AnalyticsRequest{Message: cfg.Message, Owner: cfg.Repo.Owner, Repo: cfg.Repo.Repo}

	// --- Begin history tracking (if configured) ---
	history := historyStore(mgr)
	if history != nil {
		runID, err := history.BeginRun(cfg.Repo, cfg.Message, time.Now())
		if err != nil {
			contract.LogWarn("History tracking initialization failed", err)
		} else if runID > 0 {
			ctx = withRunID(ctx, runID)
		}
	}

	if isQuiet(ctx) {
		onTick = nil
	}
	result, err := analytics.AskWithProgress(ctx, client, req, cfg.GitHubToken, onTick)

	// --- End history tracking ---
	if runID, ok := RunIDFrom(ctx); ok && history != nil {
		if endErr := history.EndRun(runID, time.Now(), err == nil, len(result.Response.Explanation)); endErr != nil {
			contract.LogWarn("Failed to finalize history tracking", endErr)
		}
	}
	return result, err
}

func historyStore(mgr contract.StoreManager) contract.HistoryStore {
	if mgr == nil {
		return nil
	}
	return mgr.GetHistoryStore()
}
