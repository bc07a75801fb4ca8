package infrastructure

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// ContextWithTraceID returns ctx with a freshly generated trace id.
func ContextWithTraceID(ctx context.Context) context.Context {
	return WithTraceID(ctx, uuid.New().String())
}

// EnsureTraceID generates a trace id only when ctx has none, so ids
// minted at the edge survive through background work.
func EnsureTraceID(ctx context.Context) context.Context {
	if GetTraceID(ctx) == "" {
		return ContextWithTraceID(ctx)
	}
	return ctx
}

// LoggerWithContext returns the process logger carrying the trace id
// from ctx, when there is one.
func LoggerWithContext(ctx context.Context) *slog.Logger {
	logger := GetLogger()
	if traceID := GetTraceID(ctx); traceID != "" {
		logger = logger.With("trace_id", traceID)
	}
	return logger
}

// WithComponent tags a logger with the subsystem it serves.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With("component", component)
}

// WithError attaches err to the logger; nil passes through unchanged.
func WithError(logger *slog.Logger, err error) *slog.Logger {
	if err == nil {
		return logger
	}
	return logger.With("error", err.Error())
}
