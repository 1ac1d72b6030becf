package contract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/repopulse/schema"
)

func TestGetPlainLabel(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{name: "no activity", input: 0.0, expected: QuietValue},
		{name: "just before steady", input: 39.9, expected: QuietValue},
		{name: "exactly steady", input: 40.0, expected: SteadyValue},
		{name: "just before busy", input: 59.9, expected: SteadyValue},
		{name: "exactly busy", input: 60.0, expected: BusyValue},
		{name: "just before peak", input: 79.9, expected: BusyValue},
		{name: "exactly peak", input: 80.0, expected: PeakValue},
		{name: "the peak itself", input: 100.0, expected: PeakValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetPlainLabel(tt.input))
		})
	}
}

func TestGetColorLabel(t *testing.T) {
	prev := color.NoColor
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = prev })

	label := GetColorLabel(95)
	assert.Contains(t, label, PeakValue)
	assert.NotEqual(t, PeakValue, label, "colored label should carry escape codes")
}

func TestActivityScore(t *testing.T) {
	assert.InDelta(t, 50.0, ActivityScore(2, 4), 1e-9)
	assert.InDelta(t, 100.0, ActivityScore(4, 4), 1e-9)
	assert.Zero(t, ActivityScore(3, 0))
}

func TestSelectOutputFile(t *testing.T) {
	f, err := SelectOutputFile("")
	require.NoError(t, err)
	assert.Equal(t, os.Stdout, f)

	path := filepath.Join(t.TempDir(), "out.csv")
	f, err = SelectOutputFile(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.FileExists(t, path)
}

func TestGetDBFilePath(t *testing.T) {
	assert.True(t, strings.HasSuffix(GetCacheDBFilePath(), ".repopulse_cache.db"))
	assert.True(t, strings.HasSuffix(GetHistoryDBFilePath(), ".repopulse_history.db"))
	assert.NotEqual(t, GetCacheDBFilePath(), GetHistoryDBFilePath())
}

func TestExpandRepoTemplate(t *testing.T) {
	repo := schema.RepoRef{Owner: "octo", Repo: "hello"}
	assert.Equal(t, "data/octo/hello.json", ExpandRepoTemplate("data/{owner}/{repo}.json", repo))
	assert.Equal(t, "https://x.test/commits.json", ExpandRepoTemplate("https://x.test/commits.json", repo))
}

func TestParseRemoteRepo(t *testing.T) {
	tests := []struct {
		name        string
		remote      string
		expected    schema.RepoRef
		expectError bool
	}{
		{name: "ssh scp form", remote: "git@github.com:octo/hello.git", expected: schema.RepoRef{Owner: "octo", Repo: "hello"}},
		{name: "https", remote: "https://github.com/octo/hello", expected: schema.RepoRef{Owner: "octo", Repo: "hello"}},
		{name: "https trailing slash and suffix", remote: "https://github.com/octo/hello.git/", expected: schema.RepoRef{Owner: "octo", Repo: "hello"}},
		{name: "ssh url", remote: "ssh://git@github.com/octo/hello.git", expected: schema.RepoRef{Owner: "octo", Repo: "hello"}},
		{name: "local path", remote: "/tmp/hello", expectError: true},
		{name: "empty", remote: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRemoteRepo(tt.remote)
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestMaskSecret(t *testing.T) {
	assert.Empty(t, MaskSecret(""))
	assert.Equal(t, "****", MaskSecret("abc"))
	assert.Equal(t, "********6789", MaskSecret("ghp_0123456789"))
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"yes", "TRUE", "1"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.True(t, v, s)
	}
	for _, s := range []string{"no", "False", "0"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.False(t, v, s)
	}
	_, err := ParseBoolString("maybe")
	assert.Error(t, err)
}
