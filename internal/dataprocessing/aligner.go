package dataprocessing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	apperrors "gapminder/internal/errors"
	"gapminder/pkg/contracts/domain"
)

// ErrIndicatorSet is returned when Align does not receive exactly one table
// per canonical indicator.
var ErrIndicatorSet = errors.New("aligner needs exactly one table per indicator")

// Align inner-joins the four reshaped tables on (year, country). Tables are
// matched to columns by their Indicator tag, so argument order does not
// matter. The fold runs population, life_expectancy, income, hdi and the
// row order follows the population table. Disjoint keys or an empty input
// give an empty table and a nil error.
func Align(tables ...domain.ReshapedTable) (domain.CanonicalTable, error) {
	byInd, err := selectTables(tables)
	if err != nil {
		return domain.CanonicalTable{}, err
	}

	base := byInd[domain.IndicatorPopulation]
	rows := make([]domain.CanonicalRow, 0, len(base.Records))
	seen := make(map[domain.Key]struct{}, len(base.Records))
	for _, r := range base.Records {
		if _, dup := seen[r.Key()]; dup {
			return domain.CanonicalTable{}, duplicateKey(base, r.Key())
		}
		seen[r.Key()] = struct{}{}
		rows = append(rows, domain.CanonicalRow{Year: r.Year, Country: r.Country, Population: r.Value})
	}

	for _, ind := range domain.CanonicalIndicators[1:] {
		t := byInd[ind]
		idx, err := uniqueIndex(t)
		if err != nil {
			return domain.CanonicalTable{}, err
		}
		joined := make([]domain.CanonicalRow, 0, len(rows))
		for _, row := range rows {
			v, ok := idx[row.Key()]
			if !ok {
				continue
			}
			row.Set(ind, v)
			joined = append(joined, row)
		}
		rows = joined
	}

	return domain.CanonicalTable{Rows: rows}, nil
}

// JoinCanonical inner-joins two canonical tables on (year, country). Rows
// and values come from a; b only restricts the key set.
func JoinCanonical(a, b domain.CanonicalTable) domain.CanonicalTable {
	keys := make(map[domain.Key]struct{}, len(b.Rows))
	for _, r := range b.Rows {
		keys[r.Key()] = struct{}{}
	}
	return a.Filter(func(r domain.CanonicalRow) bool {
		_, ok := keys[r.Key()]
		return ok
	})
}

func selectTables(tables []domain.ReshapedTable) (map[domain.Indicator]domain.ReshapedTable, error) {
	byInd := make(map[domain.Indicator]domain.ReshapedTable, len(tables))
	for _, t := range tables {
		if !t.Indicator.Valid() {
			return nil, fmt.Errorf("%w: table %q has unknown indicator %q", ErrIndicatorSet, t.Name, t.Indicator)
		}
		if _, dup := byInd[t.Indicator]; dup {
			return nil, fmt.Errorf("%w: %s given more than once", ErrIndicatorSet, t.Indicator)
		}
		byInd[t.Indicator] = t
	}
	for _, ind := range domain.CanonicalIndicators {
		if _, ok := byInd[ind]; !ok {
			return nil, fmt.Errorf("%w: %s missing", ErrIndicatorSet, ind)
		}
	}
	return byInd, nil
}

func uniqueIndex(t domain.ReshapedTable) (map[domain.Key]float64, error) {
	idx := make(map[domain.Key]float64, len(t.Records))
	for _, r := range t.Records {
		if _, dup := idx[r.Key()]; dup {
			return nil, duplicateKey(t, r.Key())
		}
		idx[r.Key()] = r.Value
	}
	return idx, nil
}

func duplicateKey(t domain.ReshapedTable, k domain.Key) error {
	return apperrors.NewSchemaError(t.Name, fmt.Sprintf("duplicate key %s", k))
}

// Aligner wraps Align with logging.
type Aligner struct {
	logger *slog.Logger
}

// NewAligner creates an aligner. A nil logger uses slog.Default().
func NewAligner(logger *slog.Logger) *Aligner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aligner{logger: logger.With("component", "aligner")}
}

// Align joins the tables and logs the outcome. An empty result is logged
// as a warning, not returned as an error.
func (a *Aligner) Align(ctx context.Context, tables ...domain.ReshapedTable) (domain.CanonicalTable, error) {
	if err := ctx.Err(); err != nil {
		return domain.CanonicalTable{}, err
	}

	ct, err := Align(tables...)
	if err != nil {
		a.logger.ErrorContext(ctx, "align failed", slog.String("error", err.Error()))
		return ct, err
	}

	attrs := make([]any, 0, len(tables)+1)
	for _, t := range tables {
		attrs = append(attrs, slog.Int(t.Indicator.String()+"_records", t.Len()))
	}
	attrs = append(attrs, slog.Int("rows", ct.Len()))

	if ct.Empty() {
		a.logger.WarnContext(ctx, "join produced no rows", attrs...)
	} else {
		a.logger.InfoContext(ctx, "align complete", attrs...)
	}
	return ct, nil
}
