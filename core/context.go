package core

import "context"

// Context keys for execution options
type contextKey string

const (
	quietKey contextKey = "quiet"
	runIDKey contextKey = "runID"
)

// WithQuiet marks the context so progress output is suppressed.
// The MCP server uses it because stdio carries the protocol.
func WithQuiet(ctx context.Context) context.Context {
	return context.WithValue(ctx, quietKey, true)
}

// isQuiet returns whether progress output should be suppressed
func isQuiet(ctx context.Context) bool {
	val := ctx.Value(quietKey)
	if val == nil {
		return false // default: show progress
	}
	quiet, ok := val.(bool)
	return ok && quiet
}

// withRunID stores the history run ID of the current request
func withRunID(ctx context.Context, runID int64) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunIDFrom returns the history run ID recorded for the request, if any.
func RunIDFrom(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(runIDKey).(int64)
	return id, ok && id > 0
}
