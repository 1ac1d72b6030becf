package contract

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/repopulse/schema"
)

// baseInput mirrors the viper defaults registered by the root command.
func baseInput() *ConfigRawInput {
	return &ConfigRawInput{
		RepoStr:         "octo/hello",
		Source:          "file",
		Output:          "text",
		Color:           "yes",
		DarkModeDefault: "no",
		CacheBackend:    "sqlite",
		HistoryBackend:  "none",
		Order:           "chronological",
		Days:            schema.DefaultWindowDays,
	}
}

func TestProcessAndValidateDefaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(context.Background(), cfg, new(MockGitClient), baseInput()))

	assert.Equal(t, schema.RepoRef{Owner: "octo", Repo: "hello"}, cfg.Repo)
	assert.Equal(t, schema.FileSource, cfg.Source)
	assert.Equal(t, DefaultDataPath, cfg.DataPath)
	assert.Equal(t, schema.ChronologicalOrder, cfg.Order)
	assert.Equal(t, schema.DefaultWindowDays, cfg.Days)
	assert.Equal(t, DefaultAnalyticsURL, cfg.AnalyticsURL)
	assert.Equal(t, DefaultAnalyticsTimeout, cfg.Timeout)
	assert.Equal(t, DefaultCacheTTL, cfg.CacheTTL)
	assert.Equal(t, DefaultMaxCommits, cfg.MaxCommits)
	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, schema.NoneBackend, cfg.HistoryBackend)
	assert.True(t, cfg.UseColors)
	assert.False(t, cfg.DarkModeDefault)
}

func TestProcessAndValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*ConfigRawInput)
	}{
		{"bad output", func(in *ConfigRawInput) { in.Output = "xml" }},
		{"parquet without file", func(in *ConfigRawInput) { in.Output = "parquet" }},
		{"bad color", func(in *ConfigRawInput) { in.Color = "sometimes" }},
		{"negative width", func(in *ConfigRawInput) { in.Width = -1 }},
		{"bad cache backend", func(in *ConfigRawInput) { in.CacheBackend = "mongo" }},
		{"mysql without dsn", func(in *ConfigRawInput) { in.CacheBackend = "mysql" }},
		{"postgres without dbname", func(in *ConfigRawInput) {
			in.CacheBackend = "postgresql"
			in.CacheDBConnect = "host=localhost"
		}},
		{"redis with http url", func(in *ConfigRawInput) {
			in.CacheBackend = "redis"
			in.CacheDBConnect = "http://localhost:6379"
		}},
		{"redis history", func(in *ConfigRawInput) {
			in.HistoryBackend = "redis"
			in.HistoryDBConnect = "localhost:6379"
		}},
		{"shared sqlite file", func(in *ConfigRawInput) {
			in.HistoryBackend = "sqlite"
			in.CacheDBConnect = "/tmp/shared.db"
			in.HistoryDBConnect = "/tmp/shared.db"
		}},
		{"bad cache ttl", func(in *ConfigRawInput) { in.CacheTTL = "forever" }},
		{"bad order", func(in *ConfigRawInput) { in.Order = "random" }},
		{"bad start", func(in *ConfigRawInput) { in.Start = "2024-13-01" }},
		{"bad end", func(in *ConfigRawInput) { in.End = "tomorrow" }},
		{"negative days", func(in *ConfigRawInput) { in.Days = -7 }},
		{"bad analytics url", func(in *ConfigRawInput) { in.AnalyticsURL = "ftp://example.com" }},
		{"bad timeout", func(in *ConfigRawInput) { in.Timeout = "0s" }},
		{"bad source", func(in *ConfigRawInput) { in.Source = "svn" }},
		{"bad repo", func(in *ConfigRawInput) { in.RepoStr = "just-a-name" }},
		{"too many commits", func(in *ConfigRawInput) { in.MaxCommits = MaxCommitsLimit + 1 }},
		{"http source without url", func(in *ConfigRawInput) { in.Source = "http" }},
		{"bad github base url", func(in *ConfigRawInput) {
			in.Source = "github"
			in.GitHubBaseURL = "not a url"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := baseInput()
			tt.modify(input)
			err := ProcessAndValidate(context.Background(), &Config{}, new(MockGitClient), input)
			assert.Error(t, err)
		})
	}
}

func TestProcessAndValidateSeriesOptions(t *testing.T) {
	input := baseInput()
	input.Start = "2024-01-01"
	input.End = "2024-01-31T23:00:00-05:00"
	input.Order = "FIRST-SEEN"
	input.Days = 0
	input.FillGaps = true

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(context.Background(), cfg, new(MockGitClient), input))
	assert.Equal(t, "2024-01-01", cfg.Start)
	assert.Equal(t, "2024-02-01", cfg.End)
	assert.Equal(t, schema.FirstSeenOrder, cfg.Order)
	assert.Zero(t, cfg.Days)
	assert.True(t, cfg.FillGaps)
}

func TestProcessAndValidateInvertedRangeIsAllowed(t *testing.T) {
	input := baseInput()
	input.Start = "2024-02-01"
	input.End = "2024-01-01"

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(context.Background(), cfg, new(MockGitClient), input))
	assert.Equal(t, "2024-02-01", cfg.Start)
	assert.Equal(t, "2024-01-01", cfg.End)
}

func TestProcessAndValidateHTTPSource(t *testing.T) {
	input := baseInput()
	input.Source = "http"
	input.DataURL = "https://example.com/"
	input.AnalyticsURL = "https://api.example.com/"
	input.Timeout = "30s"

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(context.Background(), cfg, new(MockGitClient), input))
	assert.Equal(t, "https://example.com", cfg.DataURL)
	assert.Equal(t, DefaultHTTPPath, cfg.HTTPPath)
	assert.Equal(t, "https://api.example.com", cfg.AnalyticsURL)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}

func TestProcessAndValidateGitHubTokenFallback(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghp_fromenv")

	input := baseInput()
	input.Source = "github"
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(context.Background(), cfg, new(MockGitClient), input))
	assert.Equal(t, "ghp_fromenv", cfg.GitHubToken)

	input.GitHubToken = "ghp_explicit"
	require.NoError(t, ProcessAndValidate(context.Background(), cfg, new(MockGitClient), input))
	assert.Equal(t, "ghp_explicit", cfg.GitHubToken)
}

func TestProcessAndValidateGitSource(t *testing.T) {
	ctx := context.Background()
	workDir, err := filepath.Abs(".")
	require.NoError(t, err)

	t.Run("repo inferred from origin", func(t *testing.T) {
		client := new(MockGitClient)
		client.On("GetRepoRoot", ctx, workDir).Return("/mock/repo/root", nil)
		client.On("GetRemoteURL", ctx, "/mock/repo/root", "origin").Return("https://github.com/octo/inferred.git", nil)

		input := baseInput()
		input.Source = "git"
		input.RepoStr = ""

		cfg := &Config{}
		require.NoError(t, ProcessAndValidate(ctx, cfg, client, input))
		assert.Equal(t, "/mock/repo/root", cfg.RepoPath)
		assert.Equal(t, schema.RepoRef{Owner: "octo", Repo: "inferred"}, cfg.Repo)
		client.AssertExpectations(t)
	})

	t.Run("explicit repo wins", func(t *testing.T) {
		client := new(MockGitClient)
		client.On("GetRepoRoot", ctx, workDir).Return("/mock/repo/root", nil)

		input := baseInput()
		input.Source = "git"

		cfg := &Config{}
		require.NoError(t, ProcessAndValidate(ctx, cfg, client, input))
		assert.Equal(t, schema.RepoRef{Owner: "octo", Repo: "hello"}, cfg.Repo)
		client.AssertNotCalled(t, "GetRemoteURL", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("not a repository", func(t *testing.T) {
		client := new(MockGitClient)
		client.On("GetRepoRoot", ctx, workDir).Return("", errors.New("not a git repository"))

		input := baseInput()
		input.Source = "git"

		assert.Error(t, ProcessAndValidate(ctx, &Config{}, client, input))
	})
}

func TestCloneWithRange(t *testing.T) {
	cfg := &Config{Repo: schema.RepoRef{Owner: "a", Repo: "b"}, Start: "2024-01-01", Days: 7}
	clone := cfg.CloneWithRange("", "2024-02-01", 30)

	assert.Equal(t, "2024-01-01", cfg.Start)
	assert.Equal(t, 7, cfg.Days)
	assert.Empty(t, clone.Start)
	assert.Equal(t, "2024-02-01", clone.End)
	assert.Equal(t, 30, clone.Days)
	assert.Equal(t, cfg.Repo, clone.Repo)
}
