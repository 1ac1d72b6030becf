package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitRecordUnmarshalAliases(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"committed_date", `{"committed_date":"2024-02-29T10:00:00Z"}`, "2024-02-29T10:00:00Z"},
		{"committedDate", `{"committedDate":"2024-02-29T10:00:00Z"}`, "2024-02-29T10:00:00Z"},
		{"committed_at", `{"committed_at":"2024-02-29"}`, "2024-02-29"},
		{"date", `{"date":"2024-03-01T00:00:00+02:00"}`, "2024-03-01T00:00:00+02:00"},
		{"first non-empty wins", `{"committed_date":"","date":"2024-01-01"}`, "2024-01-01"},
		{"non-string kept verbatim", `{"committed_date":12345}`, "12345"},
		{"no timestamp", `{"sha":"abc"}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec CommitRecord
			require.NoError(t, json.Unmarshal([]byte(tt.input), &rec))
			assert.Equal(t, tt.expected, rec.CommittedAt)
		})
	}
}

func TestCommitRecordUnmarshalInvalid(t *testing.T) {
	var rec CommitRecord
	assert.Error(t, json.Unmarshal([]byte(`["not","an","object"]`), &rec))
}

func TestCommitRecordSliceResetsFields(t *testing.T) {
	var recs []CommitRecord
	require.NoError(t, json.Unmarshal([]byte(`[{"date":"2024-01-01"},{"sha":"x"}]`), &recs))
	require.Len(t, recs, 2)
	assert.Equal(t, "2024-01-01", recs[0].CommittedAt)
	assert.Empty(t, recs[1].CommittedAt)
}

func TestParseRepoRef(t *testing.T) {
	ref, err := ParseRepoRef(" octo/hello ")
	require.NoError(t, err)
	assert.Equal(t, RepoRef{Owner: "octo", Repo: "hello"}, ref)
	assert.Equal(t, "octo/hello", ref.String())
	assert.False(t, ref.IsZero())

	for _, bad := range []string{"", "octo", "octo/", "/hello", "a/b/c", "../hello", "octo/..", "octo/hello world"} {
		_, err := ParseRepoRef(bad)
		assert.Error(t, err, bad)
	}
	assert.True(t, RepoRef{}.IsZero())
}

func TestValidSets(t *testing.T) {
	assert.Contains(t, ValidOutputModes, ParquetOut)
	assert.Contains(t, ValidDatabaseBackends, RedisBackend)
	assert.Contains(t, ValidOrderPolicies, FirstSeenOrder)
	assert.Contains(t, ValidSourceKinds, GitSource)
	assert.NotContains(t, ValidSourceKinds, SourceKind("svn"))
}

func TestNewRepoRef(t *testing.T) {
	ref, err := NewRepoRef(" octo-org ", "hello.go_v2")
	require.NoError(t, err)
	assert.Equal(t, RepoRef{Owner: "octo-org", Repo: "hello.go_v2"}, ref)

	tests := []struct {
		name  string
		owner string
		repo  string
	}{
		{"empty owner", "", "hello"},
		{"empty repo", "octo", " "},
		{"current directory", ".", "hello"},
		{"parent directory", "octo", ".."},
		{"path separator", "octo/../../etc", "hello"},
		{"backslash", `octo\hello`, "x"},
		{"markup", "</script><script>alert(1)</script>", "x"},
		{"quote", `octo"`, "hello"},
		{"template placeholder", "{owner}", "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRepoRef(tt.owner, tt.repo)
			assert.Error(t, err)
		})
	}
}
