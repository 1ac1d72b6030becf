package source

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v52/github"
	"golang.org/x/oauth2"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
)

// GitHubSource lists commits on the default branch through the GitHub REST API.
type GitHubSource struct {
	client     *github.Client
	maxCommits int
	since      time.Time
}

var _ contract.CommitSource = &GitHubSource{}

// NewGitHubClient builds a GitHub API client authenticated with token.
// An empty token gives an anonymous client; baseURL targets GitHub Enterprise when set.
func NewGitHubClient(ctx context.Context, token, baseURL string) (*github.Client, error) {
	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(ctx, ts)
	}
	client := github.NewClient(httpClient)
	if baseURL != "" {
		u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
		if err != nil {
			return nil, err
		}
		client.BaseURL = u
	}
	return client, nil
}

// NewGitHubSource creates a source reading at most maxCommits commits newer than since.
// A zero since means the whole history.
func NewGitHubSource(client *github.Client, maxCommits int, since time.Time) *GitHubSource {
	return &GitHubSource{client: client, maxCommits: maxCommits, since: since}
}

// Kind implements the CommitSource interface.
func (s *GitHubSource) Kind() schema.SourceKind {
	return schema.GitHubSource
}

// FetchCommits implements the CommitSource interface.
func (s *GitHubSource) FetchCommits(ctx context.Context, repo schema.RepoRef) ([]schema.CommitRecord, error) {
	options := &github.CommitsListOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}
	if !s.since.IsZero() {
		options.Since = s.since
	}

	records := []schema.CommitRecord{}
	page := 1
	for {
		options.Page = page
		commits, resp, err := s.client.Repositories.ListCommits(ctx, repo.Owner, repo.Repo, options)
		if err != nil {
			return nil, unavailable("list commits for %s: %v", repo, err)
		}

		for _, commit := range commits {
			records = append(records, schema.CommitRecord{CommittedAt: commitDate(commit)})
			if s.maxCommits > 0 && len(records) >= s.maxCommits {
				return records, nil
			}
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		page = resp.NextPage
	}
	return records, nil
}

// commitDate prefers the committer date and falls back to the author date.
// A commit with neither yields an empty timestamp, which aggregation rejects.
func commitDate(commit *github.RepositoryCommit) string {
	if commit.Commit == nil {
		return ""
	}
	if c := commit.Commit.Committer; c != nil && c.Date != nil {
		return c.GetDate().Time.UTC().Format(time.RFC3339)
	}
	if a := commit.Commit.Author; a != nil && a.Date != nil {
		return a.GetDate().Time.UTC().Format(time.RFC3339)
	}
	return ""
}
