package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/internal/parquet"
	"github.com/huangsam/repopulse/schema"
)

// barRune draws the activity bar.
const barRune = "█"

// WriteSeriesResults outputs the daily series, dispatching based on the output format configured.
func WriteSeriesResults(w io.Writer, result schema.SeriesResult, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeJSON(w, result); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.YAMLOut:
		if err := writeYAML(w, result); err != nil {
			return fmt.Errorf("error writing YAML output: %w", err)
		}
	case schema.CSVOut:
		if err := writeCSVResultsForSeries(w, result); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := parquet.WriteDailyPoints(w, parquet.ConvertDailyCounts(result.Repo, result.Points)); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		// Default to human-readable table
		if err := writeSeriesTable(w, result, cfg, duration); err != nil {
			return fmt.Errorf("error writing series table output: %w", err)
		}
	}
	return nil
}

// writeCSVResultsForSeries writes one row per day.
func writeCSVResultsForSeries(w io.Writer, result schema.SeriesResult) error {
	header := []string{"owner", "repo", "date", "count", "label"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, dc := range result.Points {
			row := []string{
				result.Repo.Owner,
				result.Repo.Repo,
				dc.Date,
				strconv.Itoa(dc.Count),
				contract.GetPlainLabel(contract.ActivityScore(dc.Count, result.Summary.PeakCount)),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeSeriesTable prints the series in a table with a bar per day.
func writeSeriesTable(w io.Writer, result schema.SeriesResult, cfg *contract.Config, duration time.Duration) error {
	_, _ = fmt.Fprintf(w, "📈 Daily commits for %s (%s, %s order)\n", result.Repo, result.Source, result.Order)

	if len(result.Points) == 0 {
		_, _ = fmt.Fprintln(w, "No commits in range.")
	} else {
		table := tablewriter.NewWriter(w)

		headers := []string{"Date", "Commits", "Activity", "Bar"}
		table.Header(headers)

		table.Configure(func(cfg *tablewriter.Config) {
			cfg.Row.Alignment.PerColumn = []tw.Align{tw.AlignLeft, tw.AlignRight, tw.AlignLeft, tw.AlignLeft}
		})

		barWidth := GetMaxBarWidth(cfg)
		peak := result.Summary.PeakCount
		var data [][]string
		for _, dc := range result.Points {
			score := contract.ActivityScore(dc.Count, peak)
			label := contract.GetPlainLabel(score)
			if cfg.UseColors {
				label = contract.GetColorLabel(score)
			}
			data = append(data, []string{
				dc.Date,
				strconv.Itoa(dc.Count),
				label,
				activityBar(dc.Count, peak, barWidth),
			})
		}

		if err := table.Bulk(data); err != nil {
			return err
		}
		if err := table.Render(); err != nil {
			return err
		}
	}

	s := result.Summary
	_, _ = fmt.Fprintf(w, "%d days, %d commits, mean %.2f per day", s.Days, s.TotalCommits, s.MeanPerDay)
	if s.PeakCount > 0 {
		_, _ = fmt.Fprintf(w, ", peak %d on %s", s.PeakCount, s.PeakDate)
	}
	_, _ = fmt.Fprintln(w)
	if result.Skipped > 0 {
		_, _ = fmt.Fprintf(w, "Skipped %d of %d records with malformed timestamps\n", result.Skipped, result.Records)
	}
	_, _ = fmt.Fprintf(w, "Series built in %v. Cache backend: %s\n", duration, cfg.CacheBackend)
	return nil
}

// activityBar scales count against peak to at most width cells.
// Any non-zero count gets at least one cell.
func activityBar(count, peak, width int) string {
	if count <= 0 || peak <= 0 || width <= 0 {
		return ""
	}
	cells := count * width / peak
	if cells < 1 {
		cells = 1
	}
	return strings.Repeat(barRune, min(cells, width))
}
