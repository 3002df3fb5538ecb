package operations

import (
	"context"

	"gapminder/pkg/contracts/domain"
)

// Sink receives the result of every run that reaches alignment, including
// runs whose canonical table is empty.
type Sink interface {
	Name() string
	Export(ctx context.Context, res *domain.RunResult) error
}

// RunRecorder keeps the history of runs, successful or not.
type RunRecorder interface {
	RecordRun(ctx context.Context, rec domain.RunRecord) error
}

// LoaderFunc reads one wide source table.
type LoaderFunc func(path, sheet string) (domain.RawIndicatorTable, error)
