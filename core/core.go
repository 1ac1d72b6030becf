// Package core has the entry points that tie commit sources, the daily series
// and the analytics endpoint to the output layer.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/repopulse/internal/analytics"
	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/internal/outwriter"
)

// ErrNoRepository is returned when no owner/repo could be resolved.
var ErrNoRepository = errors.New("a repository is required. Pass owner/repo as an argument")

// ExecutorFunc defines the function signature for executing the commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error

// ExecuteSeries builds the daily commit series and prints it.
// It serves as the main entry point for the 'series' command.
func ExecuteSeries(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	result, duration, err := GetSeriesResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteSeries(result, cfg, duration)
}

// ExecuteAsk sends the configured question to the analytics endpoint and prints the answer.
// It serves as the main entry point for the 'ask' command.
func ExecuteAsk(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	ow := outwriter.NewOutWriter()
	client := analytics.NewClient(cfg.AnalyticsURL, cfg.Timeout, nil)

	ticked := false
	result, err := GetAskResult(ctx, cfg, mgr, client, func(elapsed int) {
		ticked = true
		ow.WriteProgress(elapsed)
	})
	if ticked {
		ow.FinishProgress()
	}
	if err != nil {
		return fmt.Errorf("ask failed after %v: %w", result.Elapsed.Round(time.Second), err)
	}
	return ow.WriteAsk(result, cfg)
}
