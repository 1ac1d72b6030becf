// Package series turns raw commit timestamps into a daily commit count series.
package series

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/repopulse/schema"
)

// timestampLayouts are tried in order. Layouts without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	schema.DateLayout,
}

// Aggregation is the outcome of AggregateDaily.
type Aggregation struct {
	Series   []schema.DailyCount
	Total    int                        // Records counted into Series
	Skipped  int                        // Records rejected for malformed timestamps
	Rejected []*MalformedTimestampError // One entry per skipped record, in input order
}

// ParseTimestamp parses an ISO-8601 commit timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// DateOf returns the UTC calendar date of a timestamp as YYYY-MM-DD.
func DateOf(s string) (string, error) {
	t, err := ParseTimestamp(s)
	if err != nil {
		return "", err
	}
	return t.UTC().Format(schema.DateLayout), nil
}

// AggregateDaily counts commits per UTC calendar date.
//
// With schema.ChronologicalOrder (or an empty policy) the series is sorted by
// ascending date. With schema.FirstSeenOrder dates appear in the order they were
// first encountered in records. Records with a malformed timestamp are skipped
// and reported in the result instead of aborting the aggregation.
func AggregateDaily(records []schema.CommitRecord, order schema.OrderPolicy) Aggregation {
	counts := make(map[string]int)
	var seen []string
	var agg Aggregation

	for i, rec := range records {
		date, err := DateOf(rec.CommittedAt)
		if err != nil {
			agg.Skipped++
			agg.Rejected = append(agg.Rejected, &MalformedTimestampError{Index: i, Value: rec.CommittedAt, Err: err})
			continue
		}
		if _, ok := counts[date]; !ok {
			seen = append(seen, date)
		}
		counts[date]++
		agg.Total++
	}

	if order != schema.FirstSeenOrder {
		slices.Sort(seen) // YYYY-MM-DD sorts lexicographically
	}

	agg.Series = make([]schema.DailyCount, 0, len(seen))
	for _, date := range seen {
		agg.Series = append(agg.Series, schema.DailyCount{Date: date, Count: counts[date]})
	}
	return agg
}

// WindowLastN returns the trailing n entries of series, or all of them if the
// series is shorter. It does not sort. n <= 0 yields an empty series.
func WindowLastN(series []schema.DailyCount, n int) []schema.DailyCount {
	if n <= 0 {
		return []schema.DailyCount{}
	}
	if n >= len(series) {
		return slices.Clone(series)
	}
	return slices.Clone(series[len(series)-n:])
}

// FilterRange keeps entries whose date lies in [start, end]. An empty bound is
// unbounded on that side. A start after end yields an empty series.
func FilterRange(series []schema.DailyCount, start, end string) []schema.DailyCount {
	out := make([]schema.DailyCount, 0, len(series))
	if start != "" && end != "" && start > end {
		return out
	}
	for _, dc := range series {
		if start != "" && dc.Date < start {
			continue
		}
		if end != "" && dc.Date > end {
			continue
		}
		out = append(out, dc)
	}
	return out
}

// FillGaps inserts zero-count entries for the days missing between the first
// and last date of an ascending series. Unsorted or unparsable input is
// returned unchanged.
func FillGaps(series []schema.DailyCount) []schema.DailyCount {
	if len(series) < 2 {
		return slices.Clone(series)
	}
	first, err := time.Parse(schema.DateLayout, series[0].Date)
	if err != nil {
		return slices.Clone(series)
	}
	last, err := time.Parse(schema.DateLayout, series[len(series)-1].Date)
	if err != nil || last.Before(first) {
		return slices.Clone(series)
	}

	counts := make(map[string]int, len(series))
	for i, dc := range series {
		if i > 0 && dc.Date <= series[i-1].Date {
			return slices.Clone(series)
		}
		counts[dc.Date] = dc.Count
	}

	days := int(last.Sub(first).Hours()/24) + 1
	out := make([]schema.DailyCount, 0, days)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		date := d.Format(schema.DateLayout)
		out = append(out, schema.DailyCount{Date: date, Count: counts[date]})
	}
	return out
}

// Summarize condenses a series into totals and its busiest day.
func Summarize(series []schema.DailyCount) schema.SeriesSummary {
	summary := schema.SeriesSummary{Days: len(series)}
	for _, dc := range series {
		summary.TotalCommits += dc.Count
		if dc.Count > summary.PeakCount || (dc.Count == summary.PeakCount && summary.PeakDate != "" && dc.Date < summary.PeakDate) {
			summary.PeakCount = dc.Count
			summary.PeakDate = dc.Date
		}
	}
	if summary.Days > 0 {
		summary.MeanPerDay = float64(summary.TotalCommits) / float64(summary.Days)
	}
	return summary
}
