// Package source acquires raw commit records from files, HTTP, GitHub or a local clone.
package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/huangsam/repopulse/schema"
)

// ErrDataUnavailable is wrapped by every acquisition failure.
var ErrDataUnavailable = errors.New("commit data unavailable")

// unavailable wraps err so that errors.Is(err, ErrDataUnavailable) holds.
func unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDataUnavailable, fmt.Sprintf(format, args...))
}

// envelope is the object form of a commit feed.
type envelope struct {
	Commits []schema.CommitRecord `json:"commits"`
}

// DecodeRecords parses a commit feed. The feed is either a JSON array of commit
// objects or an object holding that array under "commits".
func DecodeRecords(data []byte) ([]schema.CommitRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, unavailable("empty payload")
	}

	if trimmed[0] == '{' {
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, unavailable("parse commit feed: %v", err)
		}
		if env.Commits == nil {
			return nil, unavailable("commit feed object has no commits array")
		}
		return env.Commits, nil
	}

	var records []schema.CommitRecord
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, unavailable("parse commit feed: %v", err)
	}
	if records == nil {
		records = []schema.CommitRecord{}
	}
	return records, nil
}
