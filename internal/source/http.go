package source

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
)

// maxFeedBytes caps the size of a commit feed read over HTTP.
const maxFeedBytes = 64 << 20

// HTTPSource fetches a commit feed with a GET to a static path.
type HTTPSource struct {
	baseURL      string
	pathTemplate string
	client       *http.Client
}

var _ contract.CommitSource = &HTTPSource{}

// NewHTTPSource creates a source for baseURL + pathTemplate. A nil client gets a 30 second timeout.
func NewHTTPSource(baseURL, pathTemplate string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPSource{baseURL: baseURL, pathTemplate: pathTemplate, client: client}
}

// Kind implements the CommitSource interface.
func (s *HTTPSource) Kind() schema.SourceKind {
	return schema.HTTPSource
}

// FetchCommits implements the CommitSource interface.
func (s *HTTPSource) FetchCommits(ctx context.Context, repo schema.RepoRef) ([]schema.CommitRecord, error) {
	url := s.baseURL + contract.ExpandRepoTemplate(s.pathTemplate, repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, unavailable("create request: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, unavailable("GET %s: %v", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, unavailable("GET %s: received status code %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, unavailable("read response body: %v", err)
	}
	return DecodeRecords(body)
}
