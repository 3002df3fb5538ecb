package services

import (
	"context"
	"log/slog"

	"gapminder/internal/operations"
	"gapminder/pkg/contracts/domain"
)

// PipelineRunner executes one pipeline run.
type PipelineRunner interface {
	Run(ctx context.Context, sources []operations.SourceSpec) (*operations.RunReport, error)
	Running() bool
	Progress() (operations.RunProgress, bool)
}

// RunHistory lists recorded runs, newest first.
type RunHistory interface {
	ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error)
}

// OperationService triggers pipeline runs and publishes their canonical
// table to the data service.
type OperationService struct {
	runner  PipelineRunner
	sources []operations.SourceSpec
	data    *DataService
	history RunHistory
	logger  *slog.Logger
}

// NewOperationService creates an operation service. history may be nil when
// no run store is configured.
func NewOperationService(runner PipelineRunner, sources []operations.SourceSpec, data *DataService, history RunHistory, logger *slog.Logger) *OperationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OperationService{
		runner:  runner,
		sources: sources,
		data:    data,
		history: history,
		logger:  logger.With(slog.String("service", "operations")),
	}
}

// Sources returns the configured sources.
func (s *OperationService) Sources() []operations.SourceSpec {
	out := make([]operations.SourceSpec, len(s.sources))
	copy(out, s.sources)
	return out
}

// Running reports whether a run is in progress.
func (s *OperationService) Running() bool {
	return s.runner.Running()
}

// Progress returns the active or most recent run. ok is false before the
// first run.
func (s *OperationService) Progress() (operations.RunProgress, bool) {
	return s.runner.Progress()
}

// Trigger runs the pipeline over the configured sources. Whenever alignment
// produced a table it is published, even if a sink failed afterwards. The
// previously served table stays in place when alignment did not run.
func (s *OperationService) Trigger(ctx context.Context) (*operations.RunReport, error) {
	report, err := s.runner.Run(ctx, s.sources)
	if report != nil && report.Result != nil {
		s.data.Publish(report.RunID, report.Result.Canonical)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "pipeline run did not complete cleanly",
			slog.String("error", err.Error()))
	}
	return report, err
}

// Runs returns up to limit recorded runs. Without a run store it returns an
// empty list.
func (s *OperationService) Runs(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if s.history == nil {
		return []domain.RunRecord{}, nil
	}
	runs, err := s.history.ListRuns(ctx, limit)
	if err != nil {
		return nil, err
	}
	if runs == nil {
		runs = []domain.RunRecord{}
	}
	return runs, nil
}
