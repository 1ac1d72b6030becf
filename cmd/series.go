package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huangsam/repopulse/core"
)

// seriesCmd prints the daily commit series of a repository.
var seriesCmd = &cobra.Command{
	Use:   "series [owner/repo]",
	Short: "Show the number of commits per day for a repository",
	Long: `Count commits per UTC calendar day and print the resulting daily series.

Commit timestamps come from one of four sources:
- file:   a local JSON feed (default data/{owner}/{repo}/commits.json)
- http:   the same feed served under --data-url
- github: the commit list of the default branch via the GitHub API
- git:    the history of a local clone (owner/repo may be taken from its origin)

Without --start or --end the trailing --days entries are shown (7 by default).
Records with malformed timestamps are skipped and reported.

Examples:
  # Last week of activity from the local feed
  repopulse series langchain-ai/langchain

  # A fixed range with empty days included, as JSON
  repopulse series langchain-ai/langchain --start 2024-01-01 --end 2024-01-31 --fill-gaps --output json

  # Read straight from GitHub
  GITHUB_TOKEN=... repopulse series golang/go --source github --days 30

  # Use the current clone
  repopulse series --source git --days 0 --output parquet --output-file series.parquet`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runExecutor(core.ExecuteSeries, "Cannot build daily series")
	},
}
