package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huangsam/repopulse/core"
)

// askCmd forwards a question about a repository to the analytics service.
var askCmd = &cobra.Command{
	Use:   "ask owner/repo --message <question>",
	Short: "Ask the analytics service a question about a repository",
	Long: `Send a question about a repository to the analytics service and print its explanation.

The GitHub token is forwarded to the service in the x-gh-pat header. Set it with
REPOPULSE_GITHUB_TOKEN or GITHUB_TOKEN rather than on the command line.

A progress timer runs on stderr while the request is pending. When a history
backend is configured, every request is recorded for 'repopulse history'.

Examples:
  # Ask about commit patterns
  repopulse ask langchain-ai/langchain -m "Which weekdays see the most commits?"

  # Save the answer as JSON
  repopulse ask golang/go -m "Summarize recent activity" --output json --output-file answer.json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runExecutor(core.ExecuteAsk, "Cannot get an answer")
	},
}
