package series

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/repopulse/schema"
)

func records(timestamps ...string) []schema.CommitRecord {
	out := make([]schema.CommitRecord, 0, len(timestamps))
	for _, ts := range timestamps {
		out = append(out, schema.CommitRecord{CommittedAt: ts})
	}
	return out
}

func sampleSeries() []schema.DailyCount {
	return []schema.DailyCount{
		{Date: "2024-01-01", Count: 1},
		{Date: "2024-01-02", Count: 2},
		{Date: "2024-01-03", Count: 1},
	}
}

func TestAggregateDailyEndToEnd(t *testing.T) {
	agg := AggregateDaily(records("2024-01-01T10:00:00Z", "2024-01-01T23:59:00Z", "2024-01-02T00:00:01Z"), schema.ChronologicalOrder)

	assert.Equal(t, []schema.DailyCount{
		{Date: "2024-01-01", Count: 2},
		{Date: "2024-01-02", Count: 1},
	}, agg.Series)
	assert.Equal(t, 3, agg.Total)
	assert.Zero(t, agg.Skipped)
	assert.Empty(t, agg.Rejected)
}

func TestAggregateDailyEmptyInput(t *testing.T) {
	agg := AggregateDaily(nil, schema.ChronologicalOrder)
	assert.NotNil(t, agg.Series)
	assert.Empty(t, agg.Series)
	assert.Zero(t, agg.Total)
	assert.Zero(t, agg.Skipped)
}

func TestAggregateDailyUsesUTCDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"zulu", "2024-03-10T08:00:00Z", "2024-03-10"},
		{"negative offset crosses midnight", "2024-03-10T21:30:00-05:00", "2024-03-11"},
		{"positive offset crosses midnight", "2024-03-10T01:00:00+09:00", "2024-03-09"},
		{"fractional seconds", "2024-03-10T08:00:00.123456Z", "2024-03-10"},
		{"zone-less read as UTC", "2024-03-10T23:59:59", "2024-03-10"},
		{"space separator with offset", "2024-03-10 23:00:00+00:00", "2024-03-10"},
		{"bare date", "2024-03-10", "2024-03-10"},
		{"surrounding whitespace", "  2024-03-10T08:00:00Z ", "2024-03-10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := AggregateDaily(records(tt.input), schema.ChronologicalOrder)
			require.Len(t, agg.Series, 1)
			assert.Equal(t, tt.expected, agg.Series[0].Date)
		})
	}
}

func TestAggregateDailyMalformedRecords(t *testing.T) {
	valid := records("2024-01-02T10:00:00Z", "2024-01-01T10:00:00Z", "2024-01-02T11:00:00Z")
	mixed := records("2024-01-02T10:00:00Z", "not-a-date", "2024-01-01T10:00:00Z", "2024-01-02T11:00:00Z")

	expected := AggregateDaily(valid, schema.ChronologicalOrder)
	got := AggregateDaily(mixed, schema.ChronologicalOrder)

	assert.Equal(t, expected.Series, got.Series)
	assert.Equal(t, 1, got.Skipped)
	assert.Equal(t, 3, got.Total)
	require.Len(t, got.Rejected, 1)
	assert.Equal(t, 1, got.Rejected[0].Index)
	assert.Equal(t, "not-a-date", got.Rejected[0].Value)
	assert.True(t, errors.Is(got.Rejected[0], ErrMalformedTimestamp))
	assert.Contains(t, got.Rejected[0].Error(), "record 1")
}

func TestAggregateDailyRejectsEmptyAndInvalidTimestamps(t *testing.T) {
	agg := AggregateDaily(records("", "2024-13-01T00:00:00Z", "2024-02-30", "yesterday"), schema.ChronologicalOrder)
	assert.Empty(t, agg.Series)
	assert.Equal(t, 4, agg.Skipped)
	assert.Len(t, agg.Rejected, 4)
}

func TestAggregateDailyOrderPolicies(t *testing.T) {
	input := records(
		"2024-01-03T10:00:00Z",
		"2024-01-01T10:00:00Z",
		"2024-01-03T12:00:00Z",
		"2024-01-02T10:00:00Z",
	)

	chrono := AggregateDaily(input, schema.ChronologicalOrder)
	assert.Equal(t, []schema.DailyCount{
		{Date: "2024-01-01", Count: 1},
		{Date: "2024-01-02", Count: 1},
		{Date: "2024-01-03", Count: 2},
	}, chrono.Series)

	defaulted := AggregateDaily(input, "")
	assert.Equal(t, chrono.Series, defaulted.Series)

	firstSeen := AggregateDaily(input, schema.FirstSeenOrder)
	assert.Equal(t, []schema.DailyCount{
		{Date: "2024-01-03", Count: 2},
		{Date: "2024-01-01", Count: 1},
		{Date: "2024-01-02", Count: 1},
	}, firstSeen.Series)
}

func TestAggregateDailyProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	base := time.Date(2023, time.December, 25, 0, 0, 0, 0, time.UTC)

	for iter := range 50 {
		n := rng.Intn(200)
		input := make([]schema.CommitRecord, n)
		for i := range input {
			ts := base.Add(time.Duration(rng.Int63n(int64(30 * 24 * time.Hour))))
			input[i] = schema.CommitRecord{CommittedAt: ts.Format(time.RFC3339)}
		}

		agg := AggregateDaily(input, schema.ChronologicalOrder)

		// Count conservation
		sum := 0
		for _, dc := range agg.Series {
			sum += dc.Count
		}
		assert.Equal(t, n, sum, "iteration %d", iter)

		// Uniqueness and ordering
		seen := map[string]bool{}
		for i, dc := range agg.Series {
			assert.False(t, seen[dc.Date], "duplicate date %s", dc.Date)
			seen[dc.Date] = true
			if i > 0 {
				assert.Less(t, agg.Series[i-1].Date, dc.Date)
			}
		}

		// Permutation invariance
		shuffled := append([]schema.CommitRecord(nil), input...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, agg.Series, AggregateDaily(shuffled, schema.ChronologicalOrder).Series)
	}
}

func TestWindowLastN(t *testing.T) {
	long := make([]schema.DailyCount, 10)
	for i := range long {
		long[i] = schema.DailyCount{Date: time.Date(2024, 1, i+1, 0, 0, 0, 0, time.UTC).Format(schema.DateLayout), Count: i}
	}

	tests := []struct {
		name     string
		series   []schema.DailyCount
		n        int
		expected []schema.DailyCount
	}{
		{"longer than window", long, 7, long[3:]},
		{"exactly window", long[:7], 7, long[:7]},
		{"shorter than window", sampleSeries(), 7, sampleSeries()},
		{"window of one", sampleSeries(), 1, sampleSeries()[2:]},
		{"zero window", sampleSeries(), 0, []schema.DailyCount{}},
		{"negative window", sampleSeries(), -3, []schema.DailyCount{}},
		{"empty series", nil, 7, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WindowLastN(tt.series, tt.n)
			if len(tt.expected) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestWindowLastNDoesNotAlias(t *testing.T) {
	in := sampleSeries()
	out := WindowLastN(in, 2)
	out[0].Count = 99
	assert.Equal(t, 2, in[1].Count)
}

func TestWindowLastNDoesNotSort(t *testing.T) {
	in := []schema.DailyCount{{Date: "2024-01-03", Count: 1}, {Date: "2024-01-01", Count: 1}}
	assert.Equal(t, in, WindowLastN(in, 5))
}

func TestFilterRange(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		expected   []schema.DailyCount
	}{
		{"single day", "2024-01-02", "2024-01-02", []schema.DailyCount{{Date: "2024-01-02", Count: 2}}},
		{"start after end", "2024-02-01", "2024-01-01", []schema.DailyCount{}},
		{"unbounded both sides", "", "", sampleSeries()},
		{"unbounded start", "", "2024-01-02", sampleSeries()[:2]},
		{"unbounded end", "2024-01-02", "", sampleSeries()[1:]},
		{"inclusive bounds", "2024-01-01", "2024-01-03", sampleSeries()},
		{"outside data", "2025-01-01", "2025-12-31", []schema.DailyCount{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterRange(sampleSeries(), tt.start, tt.end)
			require.NotNil(t, got)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFillGaps(t *testing.T) {
	in := []schema.DailyCount{
		{Date: "2024-02-27", Count: 3},
		{Date: "2024-03-01", Count: 1},
	}
	assert.Equal(t, []schema.DailyCount{
		{Date: "2024-02-27", Count: 3},
		{Date: "2024-02-28", Count: 0},
		{Date: "2024-02-29", Count: 0},
		{Date: "2024-03-01", Count: 1},
	}, FillGaps(in))

	t.Run("unsorted input unchanged", func(t *testing.T) {
		unsorted := []schema.DailyCount{{Date: "2024-01-03", Count: 1}, {Date: "2024-01-01", Count: 1}}
		assert.Equal(t, unsorted, FillGaps(unsorted))
	})

	t.Run("short input unchanged", func(t *testing.T) {
		assert.Empty(t, FillGaps(nil))
		one := []schema.DailyCount{{Date: "2024-01-03", Count: 1}}
		assert.Equal(t, one, FillGaps(one))
	})
}

func TestSummarize(t *testing.T) {
	summary := Summarize([]schema.DailyCount{
		{Date: "2024-01-01", Count: 2},
		{Date: "2024-01-02", Count: 5},
		{Date: "2024-01-03", Count: 5},
		{Date: "2024-01-04", Count: 0},
	})
	assert.Equal(t, 4, summary.Days)
	assert.Equal(t, 12, summary.TotalCommits)
	assert.Equal(t, "2024-01-02", summary.PeakDate)
	assert.Equal(t, 5, summary.PeakCount)
	assert.InDelta(t, 3.0, summary.MeanPerDay, 1e-9)

	assert.Equal(t, schema.SeriesSummary{}, Summarize(nil))
}
