package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/huangsam/repopulse/schema"
)

// Activity label constants.
const (
	PeakValue   = "Peak"   // Peak value
	BusyValue   = "Busy"   // Busy value
	SteadyValue = "Steady" // Steady value
	QuietValue  = "Quiet"  // Quiet value
)

// Color variables for console output.
var (
	PeakColor   = color.New(color.FgRed, color.Bold)     // PeakColor marks the busiest days.
	BusyColor   = color.New(color.FgMagenta, color.Bold) // BusyColor marks strong activity.
	SteadyColor = color.New(color.FgYellow)              // SteadyColor marks ordinary activity, not bold.
	QuietColor  = color.New(color.FgCyan)                // QuietColor marks little or no activity.
)

// ActivityScore expresses count as a percentage of peak.
func ActivityScore(count, peak int) float64 {
	if peak <= 0 {
		return 0
	}
	return float64(count) / float64(peak) * 100
}

// GetPlainLabel returns a plain text label for a day's activity score.
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainLabel(score float64) string {
	switch {
	case score >= 80:
		return PeakValue
	case score >= 60:
		return BusyValue
	case score >= 40:
		return SteadyValue
	default:
		return QuietValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
func GetColorLabel(score float64) string {
	text := GetPlainLabel(score)

	switch text {
	case PeakValue:
		return PeakColor.Sprint(text)
	case BusyValue:
		return BusyColor.Sprint(text)
	case SteadyValue:
		return SteadyColor.Sprint(text)
	default:
		return QuietColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It falls back to os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	Logger().Fatal(msg, zap.Error(err))
}

// LogWarn logs a warning message.
func LogWarn(msg string, err error) {
	Logger().Warn(msg, zap.Error(err))
}

// GetDBFilePath returns the path to a SQLite DB file in the home directory.
func GetDBFilePath(name string) string {
	file := ".repopulse_" + name + ".db"
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return file
	}
	return filepath.Join(homeDir, file)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for the commit cache and preferences.
func GetCacheDBFilePath() string {
	return GetDBFilePath("cache")
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for analytics history.
func GetHistoryDBFilePath() string {
	return GetDBFilePath("history")
}

// ExpandRepoTemplate substitutes {owner} and {repo} in a path or URL template.
func ExpandRepoTemplate(tmpl string, repo schema.RepoRef) string {
	return strings.NewReplacer("{owner}", repo.Owner, "{repo}", repo.Repo).Replace(tmpl)
}

// ParseRemoteRepo extracts owner/repo from a GitHub remote URL such as
// git@github.com:owner/repo.git or https://github.com/owner/repo.
func ParseRemoteRepo(remote string) (schema.RepoRef, error) {
	s := strings.TrimSpace(remote)
	s = strings.TrimSuffix(strings.TrimSuffix(s, "/"), ".git")
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	s = strings.TrimPrefix(s, "git@")
	s = strings.Replace(s, ":", "/", 1)

	parts := strings.Split(s, "/")
	if len(parts) < 3 || parts[0] == "" {
		return schema.RepoRef{}, fmt.Errorf("cannot derive owner/repo from remote %q", remote)
	}
	return schema.ParseRepoRef(strings.Join(parts[len(parts)-2:], "/"))
}

// MaskSecret hides all but the last four characters of a credential.
func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return strings.Repeat("*", 8) + s[len(s)-4:]
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
