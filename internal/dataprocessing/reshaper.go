package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	apperrors "gapminder/internal/errors"
	"gapminder/pkg/contracts/domain"
)

// Reshape converts a wide indicator table into its long form. It runs the
// stages Transpose, ApplyPolicy, Flatten, FilterWindow and Coerce in order;
// each stage returns a new value and leaves its input untouched.
func Reshape(raw domain.RawIndicatorTable, opts ReshapeOptions) (domain.ReshapedTable, ReshapeStats, error) {
	return reshape(context.Background(), raw, opts)
}

func reshape(ctx context.Context, raw domain.RawIndicatorTable, opts ReshapeOptions) (domain.ReshapedTable, ReshapeStats, error) {
	rows, cols := raw.Shape()
	stats := ReshapeStats{
		Source:      raw.Name,
		Indicator:   opts.Indicator,
		Impute:      opts.Impute,
		Countries:   rows,
		YearColumns: cols,
	}
	empty := domain.ReshapedTable{Name: raw.Name, Indicator: opts.Indicator}

	ym, err := Transpose(raw)
	if err != nil {
		return empty, stats, err
	}
	if err := ctx.Err(); err != nil {
		return empty, stats, err
	}

	ym, ps, err := ApplyPolicy(ym, opts.Impute)
	if err != nil {
		return empty, stats, err
	}
	stats.CountriesDropped = ps.Dropped
	stats.CountriesSkipped = ps.Skipped
	stats.CellsImputed = ps.Imputed

	flat := Flatten(ym)
	stats.RecordsFlattened = len(flat)

	kept := FilterWindow(flat, opts.window())
	stats.RecordsOutOfWindow = len(flat) - len(kept)
	if err := ctx.Err(); err != nil {
		return empty, stats, err
	}

	out, err := Coerce(raw.Name, opts.Indicator, kept)
	if err != nil {
		return empty, stats, err
	}
	stats.Records = out.Len()
	return out, stats, nil
}

// Transpose turns the country-major raw table into a year-major table and
// validates both axes. The country header name is not needed and may be blank.
func Transpose(raw domain.RawIndicatorTable) (YearMajorTable, error) {
	if len(raw.YearLabels) == 0 {
		return YearMajorTable{}, apperrors.NewSchemaError(raw.Name, "no year columns")
	}
	if len(raw.Cells) != len(raw.Countries) {
		return YearMajorTable{}, apperrors.NewSchemaError(raw.Name,
			fmt.Sprintf("%d countries but %d data rows", len(raw.Countries), len(raw.Cells)))
	}

	years := make([]domain.Year, len(raw.YearLabels))
	seenYear := make(map[domain.Year]string, len(raw.YearLabels))
	for i, label := range raw.YearLabels {
		y, err := domain.ParseYear(label)
		if err != nil {
			return YearMajorTable{}, apperrors.NewSchemaError(raw.Name, err.Error()).WithContext("column", i+1)
		}
		if prev, dup := seenYear[y]; dup {
			return YearMajorTable{}, apperrors.NewSchemaError(raw.Name,
				fmt.Sprintf("year %s appears as both %q and %q", y, prev, label))
		}
		seenYear[y] = label
		years[i] = y
	}

	countries := make([]string, len(raw.Countries))
	seenCountry := make(map[string]struct{}, len(raw.Countries))
	for i, c := range raw.Countries {
		c = strings.TrimSpace(c)
		if c == "" {
			return YearMajorTable{}, apperrors.NewSchemaError(raw.Name, "empty country label").WithContext("row", i+2)
		}
		if _, dup := seenCountry[c]; dup {
			return YearMajorTable{}, apperrors.NewSchemaError(raw.Name, fmt.Sprintf("duplicate country %q", c))
		}
		if len(raw.Cells[i]) > len(raw.YearLabels) {
			return YearMajorTable{}, apperrors.NewSchemaError(raw.Name,
				fmt.Sprintf("row for %q has %d cells, header has %d years", c, len(raw.Cells[i]), len(raw.YearLabels)))
		}
		seenCountry[c] = struct{}{}
		countries[i] = c
	}

	cells := make([][]string, len(years))
	for y := range years {
		row := make([]string, len(countries))
		for c := range countries {
			row[c] = raw.Cell(c, y)
		}
		cells[y] = row
	}

	return YearMajorTable{Name: raw.Name, Years: years, Countries: countries, Cells: cells}, nil
}

// ApplyPolicy resolves missing cells country by country. With impute=false a
// country with any missing cell is removed. With impute=true each missing
// cell takes the mean of the country's present values; a country with no
// present value at all is skipped.
func ApplyPolicy(t YearMajorTable, impute bool) (YearMajorTable, PolicyStats, error) {
	var stats PolicyStats
	keep := make([]int, 0, len(t.Countries))
	fill := make(map[int]string)

	for c, country := range t.Countries {
		col := t.column(c)
		missing := 0
		for _, cell := range col {
			if domain.IsMissing(cell) {
				missing++
			}
		}

		switch {
		case missing == 0:
			keep = append(keep, c)
		case !impute:
			stats.Dropped = append(stats.Dropped, country)
		case missing == len(col):
			stats.Skipped = append(stats.Skipped, country)
		default:
			mean, err := countryMean(t, c, col)
			if err != nil {
				return YearMajorTable{}, stats, err
			}
			fill[c] = strconv.FormatFloat(mean, 'g', -1, 64)
			stats.Imputed += missing
			keep = append(keep, c)
		}
	}

	out := YearMajorTable{
		Name:      t.Name,
		Years:     append([]domain.Year(nil), t.Years...),
		Countries: make([]string, len(keep)),
		Cells:     make([][]string, len(t.Years)),
	}
	for i, c := range keep {
		out.Countries[i] = t.Countries[c]
	}
	for y := range t.Years {
		row := make([]string, len(keep))
		for i, c := range keep {
			cell := t.Cells[y][c]
			if v, ok := fill[c]; ok && domain.IsMissing(cell) {
				cell = v
			}
			row[i] = cell
		}
		out.Cells[y] = row
	}
	return out, stats, nil
}

func countryMean(t YearMajorTable, c int, col []string) (float64, error) {
	var sum float64
	var n int
	for y, cell := range col {
		if domain.IsMissing(cell) {
			continue
		}
		v, err := parseValue(cell)
		if err != nil {
			return 0, apperrors.NewCoercionError(t.Name, t.Countries[c], t.Years[y].String(), cell, err)
		}
		sum += v
		n++
	}
	return sum / float64(n), nil
}

// Flatten emits one record per (year, country), year-major with countries
// in source order.
func Flatten(t YearMajorTable) []TextRecord {
	out := make([]TextRecord, 0, len(t.Years)*len(t.Countries))
	for y, year := range t.Years {
		for c, country := range t.Countries {
			out = append(out, TextRecord{Year: year, Country: country, Text: t.Cells[y][c]})
		}
	}
	return out
}

// FilterWindow keeps records whose year falls inside w. Years are compared
// as dates, not as label text.
func FilterWindow(records []TextRecord, w domain.Window) []TextRecord {
	out := make([]TextRecord, 0, len(records))
	for _, r := range records {
		if w.Contains(r.Year) {
			out = append(out, r)
		}
	}
	return out
}

// Coerce parses every record value. The first failure rejects the whole
// table.
func Coerce(name string, ind domain.Indicator, records []TextRecord) (domain.ReshapedTable, error) {
	out := domain.ReshapedTable{
		Name:      name,
		Indicator: ind,
		Records:   make([]domain.LongRecord, 0, len(records)),
	}
	for _, r := range records {
		v, err := parseValue(r.Text)
		if err != nil {
			return domain.ReshapedTable{Name: name, Indicator: ind},
				apperrors.NewCoercionError(name, r.Country, r.Year.String(), r.Text, err)
		}
		out.Records = append(out.Records, domain.LongRecord{Year: r.Year, Country: r.Country, Value: v})
	}
	return out, nil
}

// parseValue accepts finite decimal numbers only.
func parseValue(text string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", text)
	}
	return v, nil
}

// Reshaper runs Reshape with logging and cancellation checks.
type Reshaper struct {
	logger *slog.Logger
}

// NewReshaper creates a reshaper. A nil logger uses slog.Default().
func NewReshaper(logger *slog.Logger) *Reshaper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reshaper{logger: logger.With("component", "reshaper")}
}

// Reshape is the context-aware form of the package-level Reshape.
func (r *Reshaper) Reshape(ctx context.Context, raw domain.RawIndicatorTable, opts ReshapeOptions) (domain.ReshapedTable, ReshapeStats, error) {
	out, stats, err := reshape(ctx, raw, opts)
	if err != nil {
		r.logger.ErrorContext(ctx, "reshape failed",
			slog.String("source", raw.Name),
			slog.String("indicator", opts.Indicator.String()),
			slog.String("error", err.Error()))
		return out, stats, err
	}

	for _, c := range stats.CountriesSkipped {
		r.logger.WarnContext(ctx, "country has no values in any year, skipped",
			slog.String("source", raw.Name),
			slog.String("country", c))
	}
	if len(stats.CountriesDropped) > 0 {
		r.logger.DebugContext(ctx, "countries dropped for missing values",
			slog.String("source", raw.Name),
			slog.Any("countries", stats.CountriesDropped))
	}

	r.logger.InfoContext(ctx, "reshape complete",
		slog.String("source", raw.Name),
		slog.String("indicator", opts.Indicator.String()),
		slog.Bool("impute", opts.Impute),
		slog.Int("countries_in", stats.Countries),
		slog.Int("countries_dropped", len(stats.CountriesDropped)),
		slog.Int("countries_skipped", len(stats.CountriesSkipped)),
		slog.Int("cells_imputed", stats.CellsImputed),
		slog.Int("records", stats.Records))
	return out, stats, nil
}
