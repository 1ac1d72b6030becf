package outwriter

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/huangsam/repopulse/schema"
)

// statusTimeFormat renders absolute times next to their humanized form.
const statusTimeFormat = "2006-01-02 15:04:05"

// formatWhen renders t as "2024-01-02 15:04:05 (3 hours ago)", or "-" when unset.
func formatWhen(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return fmt.Sprintf("%s (%s)", t.Local().Format(statusTimeFormat), humanize.Time(t))
}

// WriteStoreStatus prints one row per key/value store.
func WriteStoreStatus(w io.Writer, statuses ...schema.StoreStatus) error {
	table := tablewriter.NewWriter(w)

	headers := []string{"Backend", "Table", "Connected", "Entries", "Last Entry", "Oldest Entry", "Size"}
	table.Header(headers)

	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	var data [][]string
	for _, s := range statuses {
		size := "-"
		if s.TableSizeBytes > 0 {
			size = humanize.Bytes(uint64(s.TableSizeBytes))
		}
		data = append(data, []string{
			s.Backend,
			s.Table,
			strconv.FormatBool(s.Connected),
			humanize.Comma(int64(s.TotalEntries)),
			formatWhen(s.LastEntryTime),
			formatWhen(s.OldestEntryTime),
			size,
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// WriteHistoryStatus prints the history summary followed by the recent runs.
func WriteHistoryStatus(w io.Writer, status schema.HistoryStatus, recent []schema.HistoryRecord) error {
	_, _ = fmt.Fprintf(w, "History Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return nil
	}
	_, _ = fmt.Fprintf(w, "Total Runs: %s\n", humanize.Comma(int64(status.TotalRuns)))
	if status.TotalRuns == 0 {
		return nil
	}
	_, _ = fmt.Fprintf(w, "Failed Runs: %s\n", humanize.Comma(int64(status.FailedRuns)))
	_, _ = fmt.Fprintf(w, "Last Run ID: %d\n", status.LastRunID)
	_, _ = fmt.Fprintf(w, "Last Run: %s\n", formatWhen(status.LastRunTime))
	_, _ = fmt.Fprintf(w, "Oldest Run: %s\n", formatWhen(status.OldestRunTime))

	if len(recent) == 0 {
		return nil
	}
	_, _ = fmt.Fprintln(w, "Recent Runs:")

	table := tablewriter.NewWriter(w)
	headers := []string{"ID", "Repository", "Started", "Duration", "Result", "Explanation"}
	table.Header(headers)

	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.PerColumn = []tw.Align{tw.AlignRight, tw.AlignLeft, tw.AlignLeft, tw.AlignRight, tw.AlignLeft, tw.AlignRight}
	})

	var data [][]string
	for _, r := range recent {
		data = append(data, []string{
			strconv.FormatInt(r.RunID, 10),
			schema.RepoRef{Owner: r.Owner, Repo: r.Repo}.String(),
			humanize.Time(r.StartTime),
			formatDuration(r.DurationMs),
			runResult(r),
			humanize.Bytes(uint64(r.ExplanationLength)),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func formatDuration(ms *int64) string {
	if ms == nil {
		return "-"
	}
	return (time.Duration(*ms) * time.Millisecond).String()
}

func runResult(r schema.HistoryRecord) string {
	switch {
	case r.EndTime == nil:
		return "pending"
	case r.Succeeded:
		return "ok"
	default:
		return "failed"
	}
}
