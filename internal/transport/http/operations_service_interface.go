package http

import (
	"context"

	"gapminder/internal/operations"
	"gapminder/pkg/contracts/domain"
)

// OperationServiceInterface defines the interface for pipeline runs
type OperationServiceInterface interface {
	Trigger(ctx context.Context) (*operations.RunReport, error)
	Runs(ctx context.Context, limit int) ([]domain.RunRecord, error)
	Running() bool
	Progress() (operations.RunProgress, bool)
}
