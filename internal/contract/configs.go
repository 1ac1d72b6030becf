package contract

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/huangsam/repopulse/schema"
)

// Default values for configuration.
const (
	DefaultAnalyticsURL     = "http://localhost:8000"
	DefaultAnalyticsTimeout = 5 * time.Minute
	DefaultCacheTTL         = time.Hour
	DefaultMaxCommits       = 1000
	MaxCommitsLimit         = 100000
	DefaultListenAddr       = "127.0.0.1:8080"
	DefaultDataPath         = "data/{owner}/{repo}/commits.json"
	DefaultHTTPPath         = "/data/{owner}/{repo}/commits.json"
)

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration.
// This struct remains the "final, validated" config.
type Config struct {
	Repo     schema.RepoRef
	Source   schema.SourceKind
	DataPath string // File template with {owner} and {repo} placeholders
	DataURL  string // Base URL for the http source
	HTTPPath string // Path template appended to DataURL
	RepoPath string // Local clone for the git source

	GitHubToken   string // Please use env var as this is plaintext
	GitHubBaseURL string // Empty means api.github.com
	MaxCommits    int

	Order    schema.OrderPolicy
	Start    string // Inclusive YYYY-MM-DD, empty if unbounded
	End      string // Inclusive YYYY-MM-DD, empty if unbounded
	Days     int    // Trailing window when no range is set, 0 = whole series
	FillGaps bool

	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool

	AnalyticsURL string
	Timeout      time.Duration
	Message      string

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext
	CacheTTL       time.Duration

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	ListenAddr      string
	DarkModeDefault bool
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	RepoStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Source           string `mapstructure:"source"`
	DataPath         string `mapstructure:"data-path"`
	DataURL          string `mapstructure:"data-url"`
	HTTPPath         string `mapstructure:"http-path"`
	RepoPath         string `mapstructure:"repo-path"`
	GitHubToken      string `mapstructure:"github-token"`
	GitHubBaseURL    string `mapstructure:"github-base-url"`
	MaxCommits       int    `mapstructure:"max-commits"`
	Output           string `mapstructure:"output"`
	OutputFile       string `mapstructure:"output-file"`
	Width            int    `mapstructure:"width"`
	Color            string `mapstructure:"color"`
	AnalyticsURL     string `mapstructure:"analytics-url"`
	Timeout          string `mapstructure:"timeout"`
	CacheBackend     string `mapstructure:"cache-backend"`
	CacheDBConnect   string `mapstructure:"cache-db-connect"`
	CacheTTL         string `mapstructure:"cache-ttl"`
	HistoryBackend   string `mapstructure:"history-backend"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`
	DarkModeDefault  string `mapstructure:"dark-mode-default"`
	LogLevel         string `mapstructure:"log-level"`
	LogFormat        string `mapstructure:"log-format"`

	// --- Fields from seriesCmd.Flags() ---
	Order    string `mapstructure:"order"`
	Start    string `mapstructure:"start"`
	End      string `mapstructure:"end"`
	Days     int    `mapstructure:"days"`
	FillGaps bool   `mapstructure:"fill-gaps"`

	// --- Fields from askCmd.Flags() ---
	Message string `mapstructure:"message"`

	// --- Fields from serveCmd.Flags() ---
	Listen string `mapstructure:"listen"`
}

// Clone returns a copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// CloneWithRange creates a copy of the Config with a new date range and window.
func (c *Config) CloneWithRange(start, end string, days int) *Config {
	clone := c.Clone()
	clone.Start = start
	clone.End = end
	clone.Days = days
	return clone
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(ctx context.Context, cfg *Config, client GitClient, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processSeriesOptions(cfg, input, time.Now()); err != nil {
		return err
	}
	if err := processAnalyticsOptions(cfg, input); err != nil {
		return err
	}
	if err := processSource(ctx, cfg, client, input); err != nil {
		return err
	}
	return nil
}

// ProcessProfilingConfig enables profiling when a file prefix is given.
// The prefix must not name a directory since ".cpu.prof" and ".mem.prof" are appended to it.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	profilePrefix = strings.TrimSpace(profilePrefix)
	if profilePrefix == "" {
		return nil
	}
	if strings.HasSuffix(profilePrefix, "/") || strings.HasSuffix(profilePrefix, string(filepath.Separator)) {
		return fmt.Errorf("profile prefix %q must name a file, not a directory", profilePrefix)
	}
	profile.Enabled = true
	profile.Prefix = profilePrefix
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL, PostgreSQL and Redis backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	case schema.RedisBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if strings.Contains(connStr, "://") && !strings.HasPrefix(connStr, "redis://") && !strings.HasPrefix(connStr, "rediss://") {
			return fmt.Errorf("Redis connection string must be host:port or a redis:// URL")
		}
	}
	return nil
}

// validateBackendConfigs validates cache and history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, redis, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return fmt.Errorf("cache-db-connect: %w", err)
	}

	cfg.CacheTTL = DefaultCacheTTL
	if input.CacheTTL != "" {
		ttl, err := ParseLookbackDuration(input.CacheTTL)
		if err != nil {
			return fmt.Errorf("invalid --cache-ttl: %w", err)
		}
		cfg.CacheTTL = ttl
	}

	// --- History Backend Validation ---
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(input.HistoryBackend))
	if cfg.HistoryBackend == "" {
		cfg.HistoryBackend = schema.NoneBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	if cfg.HistoryBackend == schema.RedisBackend {
		return fmt.Errorf("history backend does not support redis. must be sqlite, mysql, postgresql, none")
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	if err := ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return fmt.Errorf("history-db-connect: %w", err)
	}

	// Cache and history must not share a SQLite file since both run migrations of their own
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.HistoryBackend == schema.SQLiteBackend {
		cachePath := cfg.CacheDBConnect
		if cachePath == "" {
			cachePath = GetCacheDBFilePath()
		}
		historyPath := cfg.HistoryDBConnect
		if historyPath == "" {
			historyPath = GetHistoryDBFilePath()
		}
		if cachePath == historyPath {
			return fmt.Errorf("cache and history storage must use different SQLite database files. Both resolve to %q", cachePath)
		}
	}

	return nil
}

// validateSimpleInputs processes and validates the output related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.ListenAddr = input.Listen
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	darkMode, err := ParseBoolString(input.DarkModeDefault)
	if err != nil {
		return fmt.Errorf("invalid --dark-mode-default value: %w", err)
	}
	cfg.DarkModeDefault = darkMode

	if input.Width < 0 {
		return fmt.Errorf("width cannot be negative (received %d)", input.Width)
	}

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, yaml, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}
	return nil
}

// processSeriesOptions handles ordering, date range and window parameters.
func processSeriesOptions(cfg *Config, input *ConfigRawInput, now time.Time) error {
	cfg.Order = schema.OrderPolicy(strings.ToLower(input.Order))
	if cfg.Order == "" {
		cfg.Order = schema.ChronologicalOrder
	}
	if _, ok := schema.ValidOrderPolicies[cfg.Order]; !ok {
		return fmt.Errorf("invalid order '%s'. must be chronological, first-seen", input.Order)
	}

	start, err := ParseDateBound(input.Start, now)
	if err != nil {
		return fmt.Errorf("invalid --start: %w", err)
	}
	end, err := ParseDateBound(input.End, now)
	if err != nil {
		return fmt.Errorf("invalid --end: %w", err)
	}
	cfg.Start = start
	cfg.End = end

	if input.Days < 0 {
		return fmt.Errorf("days cannot be negative (received %d)", input.Days)
	}
	cfg.Days = input.Days
	cfg.FillGaps = input.FillGaps
	return nil
}

// processAnalyticsOptions handles the analytics endpoint parameters.
func processAnalyticsOptions(cfg *Config, input *ConfigRawInput) error {
	cfg.AnalyticsURL = strings.TrimRight(strings.TrimSpace(input.AnalyticsURL), "/")
	if cfg.AnalyticsURL == "" {
		cfg.AnalyticsURL = DefaultAnalyticsURL
	}
	if err := validateBaseURL(cfg.AnalyticsURL); err != nil {
		return fmt.Errorf("invalid --analytics-url: %w", err)
	}

	cfg.Timeout = DefaultAnalyticsTimeout
	if input.Timeout != "" {
		timeout, err := ParseLookbackDuration(input.Timeout)
		if err != nil {
			return fmt.Errorf("invalid --timeout: %w", err)
		}
		cfg.Timeout = timeout
	}

	cfg.Message = strings.TrimSpace(input.Message)
	cfg.GitHubToken = strings.TrimSpace(input.GitHubToken)
	if cfg.GitHubToken == "" {
		cfg.GitHubToken = strings.TrimSpace(os.Getenv("GITHUB_TOKEN"))
	}
	return nil
}

// processSource resolves the commit source and the repository it reads.
func processSource(ctx context.Context, cfg *Config, client GitClient, input *ConfigRawInput) error {
	cfg.Source = schema.SourceKind(strings.ToLower(input.Source))
	if cfg.Source == "" {
		cfg.Source = schema.FileSource
	}
	if _, ok := schema.ValidSourceKinds[cfg.Source]; !ok {
		return fmt.Errorf("invalid source '%s'. must be file, http, github, git", input.Source)
	}

	if input.RepoStr != "" {
		repo, err := schema.ParseRepoRef(input.RepoStr)
		if err != nil {
			return err
		}
		cfg.Repo = repo
	}

	cfg.MaxCommits = input.MaxCommits
	if cfg.MaxCommits == 0 {
		cfg.MaxCommits = DefaultMaxCommits
	}
	if cfg.MaxCommits < 0 || cfg.MaxCommits > MaxCommitsLimit {
		return fmt.Errorf("max-commits must be greater than 0 and cannot exceed %d (received %d)", MaxCommitsLimit, input.MaxCommits)
	}

	switch cfg.Source {
	case schema.FileSource:
		cfg.DataPath = input.DataPath
		if cfg.DataPath == "" {
			cfg.DataPath = DefaultDataPath
		}
	case schema.HTTPSource:
		cfg.DataURL = strings.TrimRight(strings.TrimSpace(input.DataURL), "/")
		if cfg.DataURL == "" {
			return fmt.Errorf("--data-url is required when using the http source")
		}
		if err := validateBaseURL(cfg.DataURL); err != nil {
			return fmt.Errorf("invalid --data-url: %w", err)
		}
		cfg.HTTPPath = input.HTTPPath
		if cfg.HTTPPath == "" {
			cfg.HTTPPath = DefaultHTTPPath
		}
	case schema.GitHubSource:
		cfg.GitHubBaseURL = strings.TrimSpace(input.GitHubBaseURL)
		if cfg.GitHubBaseURL != "" {
			if err := validateBaseURL(cfg.GitHubBaseURL); err != nil {
				return fmt.Errorf("invalid --github-base-url: %w", err)
			}
		}
	case schema.GitSource:
		if err := resolveGitRepo(ctx, cfg, client, input); err != nil {
			return err
		}
	}
	return nil
}

// resolveGitRepo resolves the local clone and, when no repository was given,
// derives owner/repo from its origin remote.
func resolveGitRepo(ctx context.Context, cfg *Config, client GitClient, input *ConfigRawInput) error {
	searchPath := input.RepoPath
	if searchPath == "" {
		searchPath = "."
	}
	absSearchPath, err := filepath.Abs(searchPath)
	if err != nil {
		return err
	}
	absSearchPath = filepath.Clean(absSearchPath)

	gitRoot, err := client.GetRepoRoot(ctx, absSearchPath)
	if err != nil {
		return err
	}
	cfg.RepoPath = gitRoot

	if !cfg.Repo.IsZero() {
		return nil
	}
	remote, err := client.GetRemoteURL(ctx, gitRoot, "origin")
	if err != nil {
		return fmt.Errorf("no repository given and origin remote is unavailable: %w", err)
	}
	repo, err := ParseRemoteRepo(remote)
	if err != nil {
		return err
	}
	cfg.Repo = repo
	return nil
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https (received %q)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}
