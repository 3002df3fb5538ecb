package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"gapminder/internal/dataprocessing"
	"gapminder/pkg/contracts/domain"
)

// CanonicalSource is a store holding the last published canonical table.
type CanonicalSource interface {
	LoadCanonical(ctx context.Context) (domain.CanonicalTable, string, error)
}

// CanonicalFilter narrows the served canonical table. Zero values mean no
// constraint.
type CanonicalFilter struct {
	Country  string
	YearFrom *int
	YearTo   *int
}

func (f CanonicalFilter) validate() error {
	if f.YearFrom != nil && f.YearTo != nil && *f.YearFrom > *f.YearTo {
		return fmt.Errorf("%w: year_from %d is after year_to %d", ErrInvalidFilter, *f.YearFrom, *f.YearTo)
	}
	return nil
}

func (f CanonicalFilter) keep(r domain.CanonicalRow) bool {
	if f.Country != "" && r.Country != f.Country {
		return false
	}
	if f.YearFrom != nil && int(r.Year) < *f.YearFrom {
		return false
	}
	if f.YearTo != nil && int(r.Year) > *f.YearTo {
		return false
	}
	return true
}

// Snapshot is the published canonical table with its provenance.
type Snapshot struct {
	RunID       string
	PublishedAt time.Time
	Table       domain.CanonicalTable
}

// DataService serves the most recently published canonical table. Readers
// never observe a partially replaced table.
type DataService struct {
	mu       sync.RWMutex
	snapshot *Snapshot
	logger   *slog.Logger
}

// NewDataService creates an empty data service.
func NewDataService(logger *slog.Logger) *DataService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DataService{logger: logger.With(slog.String("service", "data"))}
}

// Publish swaps in a new canonical table.
func (s *DataService) Publish(runID string, ct domain.CanonicalTable) {
	if ct.Rows == nil {
		ct.Rows = []domain.CanonicalRow{}
	}
	snap := &Snapshot{RunID: runID, PublishedAt: time.Now(), Table: ct}

	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()

	s.logger.Info("canonical table published",
		slog.String("run_id", runID),
		slog.Int("rows", ct.Len()))
}

// Restore publishes the table persisted by src, if any.
func (s *DataService) Restore(ctx context.Context, src CanonicalSource) error {
	ct, runID, err := src.LoadCanonical(ctx)
	if err != nil {
		return fmt.Errorf("restore canonical table: %w", err)
	}
	if runID == "" {
		s.logger.InfoContext(ctx, "no persisted canonical table")
		return nil
	}
	s.Publish(runID, ct)
	return nil
}

// Snapshot returns the current snapshot or ErrNoCanonicalData.
func (s *DataService) Snapshot() (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return nil, ErrNoCanonicalData
	}
	return s.snapshot, nil
}

// Loaded reports whether a table has been published.
func (s *DataService) Loaded() bool {
	_, err := s.Snapshot()
	return err == nil
}

// Canonical returns the rows matching f. An empty result is not an error.
func (s *DataService) Canonical(ctx context.Context, f CanonicalFilter) (domain.CanonicalTable, error) {
	if err := f.validate(); err != nil {
		return domain.CanonicalTable{}, err
	}
	snap, err := s.Snapshot()
	if err != nil {
		return domain.CanonicalTable{}, err
	}
	out := snap.Table.Filter(f.keep)
	s.logger.DebugContext(ctx, "canonical query",
		slog.String("country", f.Country),
		slog.Int("rows", out.Len()))
	return out, nil
}

// Countries returns the distinct countries sorted by name.
func (s *DataService) Countries(ctx context.Context) ([]string, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	countries := snap.Table.Countries()
	if countries == nil {
		countries = []string{}
	}
	sort.Strings(countries)
	return countries, nil
}

// Summary describes the current canonical table.
func (s *DataService) Summary(ctx context.Context) (dataprocessing.Summary, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return dataprocessing.Summary{}, err
	}
	return dataprocessing.DescribeCanonical(snap.Table), nil
}
