package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleSeries() schema.SeriesResult {
	return schema.SeriesResult{
		Repo:    schema.RepoRef{Owner: "octo", Repo: "hello"},
		Source:  schema.FileSource,
		Order:   schema.ChronologicalOrder,
		Window:  7,
		Records: 7,
		Skipped: 1,
		Points: []schema.DailyCount{
			{Date: "2024-03-01", Count: 1},
			{Date: "2024-03-02", Count: 4},
			{Date: "2024-03-04", Count: 1},
		},
		Summary: schema.SeriesSummary{Days: 3, TotalCommits: 6, PeakDate: "2024-03-02", PeakCount: 4, MeanPerDay: 2},
	}
}

func TestWriteSeriesResultsTable(t *testing.T) {
	cfg := &contract.Config{Output: schema.TextOut, Width: 120, CacheBackend: schema.SQLiteBackend}

	var buf bytes.Buffer
	err := WriteSeriesResults(&buf, sampleSeries(), cfg, 100*time.Millisecond)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Daily commits for octo/hello (file, chronological order)")
	assert.Contains(t, output, "2024-03-01")
	assert.Contains(t, output, "2024-03-02")
	assert.Contains(t, output, "2024-03-04")
	assert.Contains(t, output, contract.PeakValue)
	assert.Contains(t, output, contract.QuietValue)
	assert.Contains(t, output, "3 days, 6 commits, mean 2.00 per day, peak 4 on 2024-03-02")
	assert.Contains(t, output, "Skipped 1 of 7 records with malformed timestamps")
	assert.Contains(t, output, "Series built in 100ms. Cache backend: sqlite")
}

func TestWriteSeriesResultsTableEmpty(t *testing.T) {
	cfg := &contract.Config{Output: schema.TextOut, Width: 80, CacheBackend: schema.NoneBackend}
	result := schema.SeriesResult{Repo: schema.RepoRef{Owner: "octo", Repo: "hello"}, Points: []schema.DailyCount{}}

	var buf bytes.Buffer
	require.NoError(t, WriteSeriesResults(&buf, result, cfg, time.Second))

	output := buf.String()
	assert.Contains(t, output, "No commits in range.")
	assert.Contains(t, output, "0 days, 0 commits")
	assert.NotContains(t, output, "peak")
	assert.NotContains(t, output, "Skipped")
}

func TestWriteSeriesResultsJSON(t *testing.T) {
	cfg := &contract.Config{Output: schema.JSONOut}

	var buf bytes.Buffer
	require.NoError(t, WriteSeriesResults(&buf, sampleSeries(), cfg, 0))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	points, ok := decoded["points"].([]any)
	require.True(t, ok)
	require.Len(t, points, 3)
	first := points[0].(map[string]any)
	assert.Equal(t, "2024-03-01", first["date"])
	assert.Equal(t, float64(1), first["count"])
	assert.Equal(t, "octo", decoded["repo"].(map[string]any)["owner"])
}

func TestWriteSeriesResultsYAML(t *testing.T) {
	cfg := &contract.Config{Output: schema.YAMLOut}

	var buf bytes.Buffer
	require.NoError(t, WriteSeriesResults(&buf, sampleSeries(), cfg, 0))

	var decoded schema.SeriesResult
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, sampleSeries().Points, decoded.Points)
	assert.Equal(t, 4, decoded.Summary.PeakCount)
	assert.True(t, strings.HasPrefix(buf.String(), "repo:\n  owner: octo"))
}

func TestWriteSeriesResultsCSV(t *testing.T) {
	cfg := &contract.Config{Output: schema.CSVOut}

	var buf bytes.Buffer
	require.NoError(t, WriteSeriesResults(&buf, sampleSeries(), cfg, 0))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"owner", "repo", "date", "count", "label"}, records[0])
	assert.Equal(t, []string{"octo", "hello", "2024-03-02", "4", contract.PeakValue}, records[2])
	assert.Equal(t, []string{"octo", "hello", "2024-03-04", "1", contract.QuietValue}, records[3])
}

func TestWriteSeriesResultsParquet(t *testing.T) {
	cfg := &contract.Config{Output: schema.ParquetOut}

	var buf bytes.Buffer
	require.NoError(t, WriteSeriesResults(&buf, sampleSeries(), cfg, 0))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("PAR1")))
}

func TestActivityBar(t *testing.T) {
	tests := []struct {
		name  string
		count int
		peak  int
		width int
		want  int
	}{
		{"peak fills width", 4, 4, 20, 20},
		{"half", 2, 4, 20, 10},
		{"small count gets one cell", 1, 1000, 20, 1},
		{"zero count", 0, 4, 20, 0},
		{"zero peak", 3, 0, 20, 0},
		{"zero width", 3, 4, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := activityBar(tt.count, tt.peak, tt.width)
			assert.Equal(t, tt.want, strings.Count(bar, barRune))
		})
	}
}

func TestGetMaxBarWidth(t *testing.T) {
	assert.Equal(t, minBarWidth, GetMaxBarWidth(&contract.Config{Width: 30}))
	assert.Equal(t, 40, GetMaxBarWidth(&contract.Config{Width: 80}))
	assert.Equal(t, maxBarWidth, GetMaxBarWidth(&contract.Config{Width: 300}))
	assert.Equal(t, 120, GetTerminalWidth(&contract.Config{Width: 120}))
}
