// Package cmd defines the command-line interface for repopulse.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/repopulse/core"
	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(seriesCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(prefsCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	prefsCmd.AddCommand(prefsDarkModeCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("source", string(schema.FileSource), "Commit source: file or http or github or git")
	rootCmd.PersistentFlags().String("data-path", contract.DefaultDataPath, "Feed file template for the file source ({owner} and {repo} are replaced)")
	rootCmd.PersistentFlags().String("data-url", "", "Base URL of the http source")
	rootCmd.PersistentFlags().String("http-path", contract.DefaultHTTPPath, "Feed path template appended to --data-url")
	rootCmd.PersistentFlags().String("repo-path", "", "Local clone read by the git source (default: current directory)")
	rootCmd.PersistentFlags().String("github-token", "", "GitHub token for the github source and the analytics header (prefer REPOPULSE_GITHUB_TOKEN or GITHUB_TOKEN)")
	rootCmd.PersistentFlags().String("github-base-url", "", "GitHub Enterprise API base URL (default: api.github.com)")
	rootCmd.PersistentFlags().Int("max-commits", contract.DefaultMaxCommits, "Maximum commits read from the github and git sources")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or yaml or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("analytics-url", contract.DefaultAnalyticsURL, "Base URL of the analytics service")
	rootCmd.PersistentFlags().String("timeout", "5 minutes", "How long to wait for the analytics service")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or redis or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Connection string for the cache (SQLite file, MySQL DSN, PostgreSQL keywords or redis address)")
	rootCmd.PersistentFlags().String("cache-ttl", "1 hour", "How long fetched commits stay cached")
	rootCmd.PersistentFlags().String("history-backend", string(schema.NoneBackend), "Analytics history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Connection string for the history store (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("dark-mode-default", "no", "Theme used until a preference is stored (yes/no)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("log-format", "console", "Log format: console or json")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of seriesCmd to Viper
	seriesCmd.Flags().String("order", string(schema.ChronologicalOrder), "Series order: chronological or first-seen")
	seriesCmd.Flags().String("start", "", "Inclusive start date in YYYY-MM-DD, RFC3339 or time ago")
	seriesCmd.Flags().String("end", "", "Inclusive end date in YYYY-MM-DD, RFC3339 or time ago")
	seriesCmd.Flags().Int("days", schema.DefaultWindowDays, "Trailing days shown when no range is set (0 = whole series)")
	seriesCmd.Flags().Bool("fill-gaps", false, "Insert zero-count days between active days")
	if err := viper.BindPFlags(seriesCmd.Flags()); err != nil {
		contract.LogFatal("Error binding series flags", err)
	}

	// Bind all flags of askCmd to Viper
	askCmd.Flags().StringP("message", "m", "", "Question to ask about the repository")
	if err := viper.BindPFlags(askCmd.Flags()); err != nil {
		contract.LogFatal("Error binding ask flags", err)
	}

	// Bind all flags of serveCmd to Viper
	serveCmd.Flags().String("listen", contract.DefaultListenAddr, "Address the web front end listens on")
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		contract.LogFatal("Error binding serve flags", err)
	}

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}

// runExecutor runs a core entry point with the shared config and exits on failure.
func runExecutor(executeFunc core.ExecutorFunc, failure string) {
	if err := executeFunc(rootCtx, cfg, storeManager); err != nil {
		contract.LogFatal(failure, err)
	}
}
