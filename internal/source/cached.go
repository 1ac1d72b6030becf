package source

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
)

// currentCacheVersion defines the version of the cached commit payload
const currentCacheVersion = 1

// CachedSource stores the records of an inner source in a KV store.
type CachedSource struct {
	inner contract.CommitSource
	store contract.KVStore
	ttl   time.Duration
	scope string // Distinguishes sources of the same kind, e.g. a file template or API host
	now   func() time.Time
}

var _ contract.CommitSource = &CachedSource{}

// NewCachedSource wraps inner. A nil store disables caching.
func NewCachedSource(inner contract.CommitSource, store contract.KVStore, ttl time.Duration, scope string) *CachedSource {
	return &CachedSource{inner: inner, store: store, ttl: ttl, scope: scope, now: time.Now}
}

// Kind implements the CommitSource interface.
func (s *CachedSource) Kind() schema.SourceKind {
	return s.inner.Kind()
}

// FetchCommits implements the CommitSource interface.
func (s *CachedSource) FetchCommits(ctx context.Context, repo schema.RepoRef) ([]schema.CommitRecord, error) {
	if s.store == nil {
		return s.inner.FetchCommits(ctx, repo)
	}

	key := s.cacheKey(repo)
	if records := s.checkCacheHit(key); records != nil {
		return records, nil
	}
	return s.computeAndStore(ctx, repo, key)
}

// checkCacheHit attempts to retrieve and validate a cached result
func (s *CachedSource) checkCacheHit(key string) []schema.CommitRecord {
	data, version, ts, err := s.store.Get(key)
	if err != nil || data == nil {
		return nil
	}
	if version != currentCacheVersion || s.now().Sub(time.Unix(ts, 0)) > s.ttl {
		return nil
	}
	var records []schema.CommitRecord
	if err := json.Unmarshal(data, &records); err != nil || records == nil {
		return nil
	}
	return records
}

// computeAndStore fetches from the inner source and stores the records.
// A failed write is logged and does not fail the fetch.
func (s *CachedSource) computeAndStore(ctx context.Context, repo schema.RepoRef, key string) ([]schema.CommitRecord, error) {
	records, err := s.inner.FetchCommits(ctx, repo)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(records)
	if err == nil {
		err = s.store.Set(key, data, currentCacheVersion, s.now().Unix())
	}
	if err != nil {
		contract.LogWarn("cannot cache commit records", err)
	}
	return records, nil
}

// cacheKey hashes the source identity and repository into a fixed length key.
func (s *CachedSource) cacheKey(repo schema.RepoRef) string {
	raw := fmt.Sprintf("%s:%s:%s:%s", s.inner.Kind(), s.scope, repo.Owner, repo.Repo)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(raw)))
}

// Invalidate drops the cached records of repo.
func (s *CachedSource) Invalidate(repo schema.RepoRef) error {
	if s.store == nil {
		return nil
	}
	return s.store.Delete(s.cacheKey(repo))
}
