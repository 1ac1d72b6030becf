package outwriter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
)

// askRecord is the flat shape of an answer in structured outputs.
type askRecord struct {
	Owner       string `json:"owner" yaml:"owner"`
	Repo        string `json:"repo" yaml:"repo"`
	Message     string `json:"message" yaml:"message"`
	Explanation string `json:"explanation" yaml:"explanation"`
	ElapsedMs   int64  `json:"elapsed_ms" yaml:"elapsed_ms"`
}

func newAskRecord(result schema.AskResult) askRecord {
	return askRecord{
		Owner:       result.Request.Owner,
		Repo:        result.Request.Repo,
		Message:     result.Request.Message,
		Explanation: result.Response.Explanation,
		ElapsedMs:   result.Elapsed.Milliseconds(),
	}
}

// WriteAskResult outputs an analytics answer, dispatching based on the output format configured.
func WriteAskResult(w io.Writer, result schema.AskResult, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeJSON(w, newAskRecord(result))
	case schema.YAMLOut:
		return writeYAML(w, newAskRecord(result))
	case schema.CSVOut:
		rec := newAskRecord(result)
		header := []string{"owner", "repo", "message", "elapsed_ms", "explanation"}
		return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
			return cw.Write([]string{rec.Owner, rec.Repo, rec.Message, strconv.FormatInt(rec.ElapsedMs, 10), rec.Explanation})
		})
	case schema.ParquetOut:
		return errors.New("parquet output is only available for the series command")
	default:
		repo := schema.RepoRef{Owner: result.Request.Owner, Repo: result.Request.Repo}
		_, _ = fmt.Fprintf(w, "💬 %s: %s\n\n", repo, result.Request.Message)
		_, _ = fmt.Fprintln(w, result.Response.Explanation)
		_, _ = fmt.Fprintf(w, "\nAnswered in %v\n", result.Elapsed.Round(time.Millisecond))
		return nil
	}
}

// writeProgress redraws the pending line with the elapsed seconds.
func writeProgress(w io.Writer, elapsedSeconds int) {
	_, _ = fmt.Fprintf(w, "\r⏳ Waiting for analytics... %ds", elapsedSeconds)
}
