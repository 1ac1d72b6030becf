// Package schema has configs, models and shared types for all parts of repopulse.
package schema

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// committedAtAliases lists the JSON field names that may hold a commit timestamp.
// Feeds disagree on naming, so the first non-empty one wins.
var committedAtAliases = []string{"committed_date", "committedDate", "committed_at", "date"}

// CommitRecord is one commit from a data feed. Only the timestamp matters here.
// CommittedAt keeps the raw ISO-8601 string so malformed values survive decoding
// and can be rejected individually by the aggregator.
type CommitRecord struct {
	CommittedAt string `json:"committed_date"`
}

// UnmarshalJSON accepts any of the known timestamp field names.
func (c *CommitRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.CommittedAt = ""
	for _, key := range committedAtAliases {
		val, ok := raw[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(val, &s); err != nil {
			// Non-string timestamps are kept verbatim and rejected later
			s = strings.TrimSpace(string(val))
		}
		if s != "" {
			c.CommittedAt = s
			return nil
		}
	}
	return nil
}

// DailyCount is the number of commits that fall on one UTC calendar date.
type DailyCount struct {
	Date  string `json:"date" yaml:"date" parquet:"date"`    // YYYY-MM-DD
	Count int    `json:"count" yaml:"count" parquet:"count"` // Commits on that date
}

// RepoRef identifies a GitHub repository.
type RepoRef struct {
	Owner string `json:"owner" yaml:"owner"`
	Repo  string `json:"repo" yaml:"repo"`
}

// String returns "owner/repo".
func (r RepoRef) String() string {
	return r.Owner + "/" + r.Repo
}

// IsZero reports whether neither owner nor repo is set.
func (r RepoRef) IsZero() bool {
	return r.Owner == "" && r.Repo == ""
}

// repoNamePattern is the character set GitHub allows in owner and repository names.
var repoNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// validRepoName rejects names that could escape a path template or markup.
func validRepoName(name string) bool {
	return name != "." && name != ".." && repoNamePattern.MatchString(name)
}

// NewRepoRef builds a RepoRef after checking both names.
func NewRepoRef(owner, repo string) (RepoRef, error) {
	owner, repo = strings.TrimSpace(owner), strings.TrimSpace(repo)
	if owner == "" || repo == "" {
		return RepoRef{}, fmt.Errorf("invalid repository %q: expected owner/repo", owner+"/"+repo)
	}
	if !validRepoName(owner) {
		return RepoRef{}, fmt.Errorf("invalid owner %q: only letters, digits, '-', '_' and '.' are allowed", owner)
	}
	if !validRepoName(repo) {
		return RepoRef{}, fmt.Errorf("invalid repository name %q: only letters, digits, '-', '_' and '.' are allowed", repo)
	}
	return RepoRef{Owner: owner, Repo: repo}, nil
}

// ParseRepoRef parses "owner/repo" into a RepoRef.
func ParseRepoRef(s string) (RepoRef, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return RepoRef{}, fmt.Errorf("invalid repository %q: expected owner/repo", s)
	}
	return NewRepoRef(parts[0], parts[1])
}
