package types

import "context"

// contextKey is used for storing values in context.Context.
type contextKey string

const keyRunID contextKey = "run_id"

// WithRunID adds the agent run ID to context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, keyRunID, runID)
}

// RunID extracts the agent run ID from context.
func RunID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyRunID).(string)
	return v, ok && v != ""
}
