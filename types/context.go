package types

import "context"

// contextKey is used for storing values in context.Context.
type contextKey string

const (
	keyTraceID   contextKey = "trace_id"
	keyRunID     contextKey = "run_id"
	keyStepIndex contextKey = "step_index"
)

// WithTraceID adds trace ID to context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, keyTraceID, traceID)
}

// TraceID extracts trace ID from context.
func TraceID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyTraceID).(string)
	return v, ok && v != ""
}

// WithRunID adds the pipeline run ID to context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, keyRunID, runID)
}

// RunID extracts the pipeline run ID from context.
func RunID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyRunID).(string)
	return v, ok && v != ""
}

// WithStepIndex adds the zero-based pipeline step index to context.
func WithStepIndex(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, keyStepIndex, index)
}

// StepIndex extracts the pipeline step index from context.
func StepIndex(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(keyStepIndex).(int)
	return v, ok
}
