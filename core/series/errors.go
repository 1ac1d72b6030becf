package series

import (
	"errors"
	"fmt"
)

// ErrMalformedTimestamp is wrapped by every MalformedTimestampError.
var ErrMalformedTimestamp = errors.New("malformed commit timestamp")

// MalformedTimestampError describes a record whose timestamp could not be parsed.
type MalformedTimestampError struct {
	Index int    // Position of the record in the input
	Value string // Raw timestamp as received
	Err   error  // Last parse error
}

func (e *MalformedTimestampError) Error() string {
	return fmt.Sprintf("record %d: %s %q: %v", e.Index, ErrMalformedTimestamp, e.Value, e.Err)
}

// Unwrap lets errors.Is match ErrMalformedTimestamp as well as the parse error.
func (e *MalformedTimestampError) Unwrap() []error {
	return []error{ErrMalformedTimestamp, e.Err}
}
