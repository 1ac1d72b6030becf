package source

import (
	"context"
	"os"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
)

// FileSource reads a commit feed from the local filesystem.
type FileSource struct {
	pathTemplate string
}

var _ contract.CommitSource = &FileSource{}

// NewFileSource creates a source reading pathTemplate with {owner} and {repo} expanded.
func NewFileSource(pathTemplate string) *FileSource {
	return &FileSource{pathTemplate: pathTemplate}
}

// Kind implements the CommitSource interface.
func (s *FileSource) Kind() schema.SourceKind {
	return schema.FileSource
}

// FetchCommits implements the CommitSource interface.
func (s *FileSource) FetchCommits(ctx context.Context, repo schema.RepoRef) ([]schema.CommitRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("%v", err)
	}
	path := contract.ExpandRepoTemplate(s.pathTemplate, repo)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, unavailable("read %s: %v", path, err)
	}
	return DecodeRecords(data)
}
