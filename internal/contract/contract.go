// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/repopulse/schema"
)

// CommitSource fetches the raw commit records of a repository.
// Failures are returned wrapping ErrDataUnavailable so callers can show a single fallback.
type CommitSource interface {
	// Kind identifies the source for cache keys and output headers.
	Kind() schema.SourceKind

	// FetchCommits returns every commit record the source knows for repo.
	FetchCommits(ctx context.Context, repo schema.RepoRef) ([]schema.CommitRecord, error)
}

// GitClient defines the Git operations needed to read commit dates from a local clone.
// This allows the source layer to be tested without needing a real git executable.
type GitClient interface {
	// Run executes a git command and returns the combined output.
	Run(ctx context.Context, repoPath string, args ...string) ([]byte, error)

	// GetRepoRoot returns the absolute path to the root of the Git repository
	// containing the given context path.
	GetRepoRoot(ctx context.Context, contextPath string) (string, error)

	// GetRemoteURL returns the fetch URL of the named remote.
	GetRemoteURL(ctx context.Context, repoPath string, remote string) (string, error)

	// GetCommitDates returns the committer dates of HEAD's history in strict ISO-8601,
	// newest first. A zero since means no lower bound; limit <= 0 means no cap.
	GetCommitDates(ctx context.Context, repoPath string, since time.Time, limit int) ([]string, error)
}

// AnalyticsClient sends a question about a repository to the analytics endpoint.
type AnalyticsClient interface {
	Ask(ctx context.Context, req schema.AnalyticsRequest, credential string) (schema.AnalyticsResponse, error)
}

// StoreManager defines the interface for managing the persistent stores.
// This allows the persistence layer to be mocked for testing.
type StoreManager interface {
	GetCommitStore() KVStore
	GetPrefStore() KVStore
	GetHistoryStore() HistoryStore
}

// KVStore defines the interface for versioned key/value storage.
// Get returns the value, its version and its unix timestamp. A missing key
// yields a nil value and no error.
type KVStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	Delete(key string) error
	GetStatus() (schema.StoreStatus, error)
	Close() error
}

// PrefStore is the narrow key/value interface the view layer persists preferences through.
type PrefStore interface {
	// GetPref returns the stored value and whether one was found.
	GetPref(key string) ([]byte, bool, error)
	SetPref(key string, value []byte) error
}

// HistoryStore defines the interface for tracking analytics requests.
type HistoryStore interface {
	// BeginRun records a pending request and returns its unique ID
	BeginRun(repo schema.RepoRef, message string, startTime time.Time) (int64, error)

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, succeeded bool, explanationLength int) error

	// ListRuns returns up to limit runs, newest first. limit <= 0 means all runs.
	ListRuns(limit int) ([]schema.HistoryRecord, error)

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// Close closes the underlying connection
	Close() error
}
