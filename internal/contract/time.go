package contract

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/repopulse/schema"
)

// Define the regular expression to capture "N [units] ago"
// e.g., "2 years ago", "3 months ago", "1 week ago".
var relativeTimeRe = regexp.MustCompile(`^(\d+)\s+(year|month|week|day|hour|minute)s?\s+ago$`)

// ParseRelativeTime converts strings like "2 years ago" into a time.Time in the past.
func ParseRelativeTime(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	matches := relativeTimeRe.FindStringSubmatch(s)
	if len(matches) == 0 {
		return time.Time{}, fmt.Errorf("invalid relative time format: %s", s)
	}

	value, err := strconv.Atoi(matches[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid relative time value: %w", err)
	}
	switch matches[2] {
	case "year":
		return now.AddDate(-value, 0, 0), nil
	case "month":
		return now.AddDate(0, -value, 0), nil
	case "week":
		return now.AddDate(0, 0, -7*value), nil
	case "day":
		return now.AddDate(0, 0, -value), nil
	case "hour":
		return now.Add(time.Duration(-value) * time.Hour), nil
	default: // "minute"
		return now.Add(time.Duration(-value) * time.Minute), nil
	}
}

// Define the regular expression to capture "N [units]".
var lookbackDurationRe = regexp.MustCompile(`^(\d+)\s+(year|month|week|day|hour|minute)s?$`)

// ParseLookbackDuration converts strings like "3 months" or "720h" into a single time.Duration.
// Go duration syntax is tried first, then the human-readable form.
func ParseLookbackDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if duration, err := time.ParseDuration(s); err == nil {
		if duration <= 0 {
			return 0, errors.New("duration must be positive")
		}
		return duration, nil
	}

	matches := lookbackDurationRe.FindStringSubmatch(strings.ToLower(s))
	if len(matches) == 0 {
		return 0, fmt.Errorf("invalid duration format: %s", s)
	}

	value, _ := strconv.Atoi(matches[1])
	const day = 24 * time.Hour
	var unit time.Duration
	switch matches[2] {
	case "year":
		unit = 365 * day // Approximation
	case "month":
		unit = 30 * day // Approximation
	case "week":
		unit = 7 * day
	case "day":
		unit = day
	case "hour":
		unit = time.Hour
	default: // "minute"
		unit = time.Minute
	}

	if value == 0 {
		return 0, errors.New("duration must be positive")
	}
	return time.Duration(value) * unit, nil
}

// ParseDateBound normalizes a user-supplied range bound into a UTC YYYY-MM-DD date.
// It accepts a calendar date, an RFC3339 timestamp or "N [units] ago".
// An empty input stays empty, meaning unbounded.
func ParseDateBound(s string, now time.Time) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if t, err := time.Parse(schema.DateLayout, s); err == nil {
		return t.Format(schema.DateLayout), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC().Format(schema.DateLayout), nil
	}
	t, err := ParseRelativeTime(s, now)
	if err != nil {
		return "", fmt.Errorf("invalid date %q. Expected YYYY-MM-DD, RFC3339 or 'N [units] ago'", s)
	}
	if y := t.UTC().Year(); y < 1 || y > 9999 {
		return "", fmt.Errorf("date %q is out of range", s)
	}
	return t.UTC().Format(schema.DateLayout), nil
}
