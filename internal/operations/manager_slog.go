package operations

import (
	"context"
	"log/slog"
	"time"
)

// logRunStart logs the start of a run
func (m *Manager) logRunStart(ctx context.Context, runID string, sources []SourceSpec) {
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = string(s.Indicator)
	}
	m.logger.InfoContext(ctx, "run start",
		slog.String("run_id", runID),
		slog.Any("sources", names),
		slog.String("window", m.config.Window.String()),
		slog.Int("max_parallel", m.config.maxParallel()))
}

// logRunComplete logs the outcome of a run
func (m *Manager) logRunComplete(ctx context.Context, report *RunReport, err error) {
	attrs := []any{
		slog.String("run_id", report.RunID),
		slog.String("status", string(report.Status)),
		slog.Duration("duration", report.Duration),
		slog.Int("canonical_rows", report.CanonicalRows),
	}
	if err != nil {
		m.logger.ErrorContext(ctx, "run failed", append(attrs,
			slog.Int("failed_sources", len(report.Failures)),
			slog.String("error", err.Error()))...)
		return
	}
	m.logger.InfoContext(ctx, "run complete", attrs...)
}

// logStageStart logs the start of a step
func (m *Manager) logStageStart(ctx context.Context, stepID string) {
	m.logger.DebugContext(ctx, "step start", slog.String("step", stepID))
}

// logStageComplete logs the completion of a step
func (m *Manager) logStageComplete(ctx context.Context, stepID string, duration time.Duration, msg string) {
	m.logger.InfoContext(ctx, "step complete",
		slog.String("step", stepID),
		slog.Duration("duration", duration),
		slog.String("result", msg))
}

// logStageError logs a step error
func (m *Manager) logStageError(ctx context.Context, stepID string, err error) {
	m.logger.ErrorContext(ctx, "step failed",
		slog.String("step", stepID),
		slog.String("error", err.Error()))
}
