package source

import (
	"context"
	"time"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
)

// GitSource reads committer dates from a local clone.
// The repository reference only labels the result; the clone decides the data.
type GitSource struct {
	client     contract.GitClient
	repoPath   string
	maxCommits int
	since      time.Time
}

var _ contract.CommitSource = &GitSource{}

// NewGitSource creates a source over the clone at repoPath.
func NewGitSource(client contract.GitClient, repoPath string, maxCommits int, since time.Time) *GitSource {
	return &GitSource{client: client, repoPath: repoPath, maxCommits: maxCommits, since: since}
}

// Kind implements the CommitSource interface.
func (s *GitSource) Kind() schema.SourceKind {
	return schema.GitSource
}

// FetchCommits implements the CommitSource interface.
func (s *GitSource) FetchCommits(ctx context.Context, _ schema.RepoRef) ([]schema.CommitRecord, error) {
	dates, err := s.client.GetCommitDates(ctx, s.repoPath, s.since, s.maxCommits)
	if err != nil {
		return nil, unavailable("git log in %s: %v", s.repoPath, err)
	}
	records := make([]schema.CommitRecord, 0, len(dates))
	for _, d := range dates {
		records = append(records, schema.CommitRecord{CommittedAt: d})
	}
	return records, nil
}
