package logging

import (
	"context"
	"log/slog"
)

// ctxKey is an unexported type for context keys defined in this package.
type ctxKey string

const (
	loggerKey ctxKey = "logger"
	flowIDKey ctxKey = "flowID"
)

// WithLogger stores the provided logger on the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the flow-scoped logger or falls back to slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return slog.Default()
	}
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// WithFlowID stores a flow identifier on the context. A flow is one
// user-triggered sequence of calls (login, generate-then-list, ...).
func WithFlowID(ctx context.Context, flowID string) context.Context {
	if ctx == nil || flowID == "" {
		return ctx
	}
	return context.WithValue(ctx, flowIDKey, flowID)
}

// FlowIDFromContext retrieves a previously stored flow identifier.
func FlowIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if flowID, ok := ctx.Value(flowIDKey).(string); ok {
		return flowID
	}
	return ""
}
