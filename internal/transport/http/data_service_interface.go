package http

import (
	"context"

	"gapminder/internal/dataprocessing"
	"gapminder/internal/services"
	"gapminder/pkg/contracts/domain"
)

// DataServiceInterface defines the interface for canonical table queries
type DataServiceInterface interface {
	Canonical(ctx context.Context, f services.CanonicalFilter) (domain.CanonicalTable, error)
	Countries(ctx context.Context) ([]string, error)
	Summary(ctx context.Context) (dataprocessing.Summary, error)
}
