package core

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/huangsam/repopulse/core/series"
	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/internal/source"
	"github.com/huangsam/repopulse/schema"
)

// BuildSource returns the configured commit source. A non-nil store wraps it
// in the commit cache.
func BuildSource(ctx context.Context, cfg *contract.Config, client contract.GitClient, store contract.KVStore) (contract.CommitSource, error) {
	since, err := sinceOf(cfg)
	if err != nil {
		return nil, err
	}

	var src contract.CommitSource
	var scope string
	switch cfg.Source {
	case schema.FileSource, "":
		src = source.NewFileSource(cfg.DataPath)
		scope = cfg.DataPath
	case schema.HTTPSource:
		src = source.NewHTTPSource(cfg.DataURL, cfg.HTTPPath, nil)
		scope = cfg.DataURL + cfg.HTTPPath
	case schema.GitHubSource:
		gh, err := source.NewGitHubClient(ctx, cfg.GitHubToken, cfg.GitHubBaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub base URL: %w", err)
		}
		src = source.NewGitHubSource(gh, cfg.MaxCommits, since)
		scope = cfg.GitHubBaseURL + "|" + strconv.Itoa(cfg.MaxCommits) + "|" + cfg.Start
	case schema.GitSource:
		src = source.NewGitSource(client, cfg.RepoPath, cfg.MaxCommits, since)
		scope = cfg.RepoPath + "|" + strconv.Itoa(cfg.MaxCommits) + "|" + cfg.Start
	default:
		return nil, fmt.Errorf("unsupported source: %s", cfg.Source)
	}

	if store == nil {
		return src, nil
	}
	return source.NewCachedSource(src, store, cfg.CacheTTL, scope), nil
}

// sinceOf turns the start bound into a lower bound for sources that can filter remotely.
func sinceOf(cfg *contract.Config) (time.Time, error) {
	if cfg.Start == "" {
		return time.Time{}, nil
	}
	since, err := time.Parse(schema.DateLayout, cfg.Start)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start date %q: %w", cfg.Start, err)
	}
	return since, nil
}

// BuildSeries fetches the records of cfg.Repo from src and turns them into the daily series.
//
// An explicit start or end selects the range; otherwise the trailing cfg.Days
// entries are kept, and zero days keeps the whole series.
func BuildSeries(ctx context.Context, cfg *contract.Config, src contract.CommitSource) (schema.SeriesResult, error) {
	if cfg.Repo.IsZero() {
		return schema.SeriesResult{}, ErrNoRepository
	}

	records, err := src.FetchCommits(ctx, cfg.Repo)
	if err != nil {
		return schema.SeriesResult{}, err
	}

	agg := series.AggregateDaily(records, cfg.Order)
	if agg.Skipped > 0 {
		contract.Logger().Warn("skipped commit records with malformed timestamps",
			zap.String("repo", cfg.Repo.String()),
			zap.Int("skipped", agg.Skipped),
			zap.Error(agg.Rejected[0]))
	}

	result := schema.SeriesResult{
		Repo:    cfg.Repo,
		Source:  src.Kind(),
		Order:   cfg.Order,
		Records: len(records),
		Skipped: agg.Skipped,
	}
	if result.Order == "" {
		result.Order = schema.ChronologicalOrder
	}

	points := agg.Series
	switch {
	case cfg.Start != "" || cfg.End != "":
		points = series.FilterRange(points, cfg.Start, cfg.End)
		result.Start, result.End = cfg.Start, cfg.End
	case cfg.Days > 0:
		points = series.WindowLastN(points, cfg.Days)
		result.Window = cfg.Days
	}
	if cfg.FillGaps {
		points = series.FillGaps(points)
	}

	result.Points = points
	result.Summary = series.Summarize(points)
	return result, nil
}

// GetSeriesResults builds the daily series with the configured source and the
// commit cache of mgr. It returns how long the whole run took.
func GetSeriesResults(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (schema.SeriesResult, time.Duration, error) {
	start := time.Now()
	src, err := BuildSource(ctx, cfg, contract.NewLocalGitClient(), commitStore(mgr))
	if err != nil {
		return schema.SeriesResult{}, 0, err
	}
	result, err := BuildSeries(ctx, cfg, src)
	if err != nil {
		return schema.SeriesResult{}, 0, err
	}
	return result, time.Since(start), nil
}

// InvalidateSeries drops the cached commit records behind cfg.Repo so the next
// series is read from the source again. It does nothing without a commit cache.
func InvalidateSeries(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	store := commitStore(mgr)
	if store == nil || cfg.Repo.IsZero() {
		return nil
	}
	src, err := BuildSource(ctx, cfg, contract.NewLocalGitClient(), store)
	if err != nil {
		return err
	}
	cached, ok := src.(*source.CachedSource)
	if !ok {
		return nil
	}
	return cached.Invalidate(cfg.Repo)
}

func commitStore(mgr contract.StoreManager) contract.KVStore {
	if mgr == nil {
		return nil
	}
	return mgr.GetCommitStore()
}
