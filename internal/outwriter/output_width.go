package outwriter

import (
	"os"

	"golang.org/x/term"

	"github.com/huangsam/repopulse/internal/contract"
)

// Bar width bounds for the text series table.
const (
	minBarWidth = 10
	maxBarWidth = 60
)

// GetTerminalWidth returns the --width override, the detected terminal width or 80.
func GetTerminalWidth(cfg *contract.Config) int {
	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		return cfg.Width
	}
	detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detectedWidth <= 0 {
		// Fallback to conservative default if terminal size can't be detected
		return 80
	}
	return detectedWidth
}

// GetMaxBarWidth calculates how many cells the activity bar may use.
func GetMaxBarWidth(cfg *contract.Config) int {
	// Date + Commits + Activity columns with borders/padding
	baseWidth := 40

	available := GetTerminalWidth(cfg) - baseWidth
	if available < minBarWidth {
		return minBarWidth
	}
	if available > maxBarWidth {
		return maxBarWidth
	}
	return available
}
