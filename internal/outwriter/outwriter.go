// Package outwriter has output and writer logic.
package outwriter

import (
	"io"
	"os"
	"time"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct {
	out    io.Writer // Results written without --output-file
	notice io.Writer // Progress and "wrote file" notices
}

// NewOutWriter creates an output writer on stdout and stderr.
func NewOutWriter() *OutWriter {
	return &OutWriter{out: os.Stdout, notice: os.Stderr}
}

// NewOutWriterTo creates an output writer on the given streams.
func NewOutWriterTo(out, notice io.Writer) *OutWriter {
	return &OutWriter{out: out, notice: notice}
}

// WriteSeries prints the daily series using the configured output format.
func (ow *OutWriter) WriteSeries(result schema.SeriesResult, cfg *contract.Config, duration time.Duration) error {
	return ow.withTarget(cfg.OutputFile, "Wrote daily series", func(w io.Writer) error {
		return WriteSeriesResults(w, result, cfg, duration)
	})
}

// WriteAsk prints an analytics answer using the configured output format.
func (ow *OutWriter) WriteAsk(result schema.AskResult, cfg *contract.Config) error {
	return ow.withTarget(cfg.OutputFile, "Wrote analytics answer", func(w io.Writer) error {
		return WriteAskResult(w, result, cfg)
	})
}

// WriteProgress reports how long an analytics request has been pending.
func (ow *OutWriter) WriteProgress(elapsedSeconds int) {
	writeProgress(ow.notice, elapsedSeconds)
}

// FinishProgress ends the progress line.
func (ow *OutWriter) FinishProgress() {
	_, _ = io.WriteString(ow.notice, "\n")
}

// WriteStoreStatus prints the key/value store status.
func (ow *OutWriter) WriteStoreStatus(statuses ...schema.StoreStatus) error {
	return WriteStoreStatus(ow.out, statuses...)
}

// WriteHistoryStatus prints the history store status with its most recent runs.
func (ow *OutWriter) WriteHistoryStatus(status schema.HistoryStatus, recent []schema.HistoryRecord) error {
	return WriteHistoryStatus(ow.out, status, recent)
}

// withTarget writes to outputFile when one is given and to ow.out otherwise.
func (ow *OutWriter) withTarget(outputFile, successMsg string, writer func(io.Writer) error) error {
	if outputFile == "" {
		return writer(ow.out)
	}
	return writeWithFile(ow.notice, outputFile, writer, successMsg)
}
