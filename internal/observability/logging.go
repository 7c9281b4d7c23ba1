// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
	"os"
)

var logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

// SetLogger replaces the logger used by repository and async helpers.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

// RepoLogger provides structured logging for repository operations.
type RepoLogger struct {
	table string
}

// NewRepoLogger creates a new RepoLogger for the given table.
func NewRepoLogger(table string) *RepoLogger {
	return &RepoLogger{table: table}
}

// Debug logs a repository operation at debug level.
func (l *RepoLogger) Debug(ctx context.Context, operation string, attrs ...any) {
	logger.DebugContext(ctx, "repository "+operation,
		append([]any{slog.String("table", l.table), slog.String("operation", operation)}, attrs...)...)
}

// Warn logs an expected but noteworthy repository outcome.
func (l *RepoLogger) Warn(ctx context.Context, operation, msg string, attrs ...any) {
	logger.WarnContext(ctx, msg,
		append([]any{slog.String("table", l.table), slog.String("operation", operation)}, attrs...)...)
}

// LogError logs a repository error.
func (l *RepoLogger) LogError(ctx context.Context, err error, operation string) {
	logger.ErrorContext(ctx, "repository error",
		slog.String("table", l.table),
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// LogBestEffortFailure logs a side effect that failed and was swallowed.
func LogBestEffortFailure(ctx context.Context, operation string, err error, attrs ...any) {
	logger.WarnContext(ctx, "best-effort operation failed",
		append([]any{slog.String("operation", operation), slog.String("error", err.Error())}, attrs...)...)
}
