package dataprocessing

import (
	"gapminder/pkg/contracts/domain"
)

// ReshapeOptions configures one reshape run.
type ReshapeOptions struct {
	// Indicator tags the output table for the aligner.
	Indicator domain.Indicator

	// Impute fills missing cells with the country mean instead of dropping
	// the country.
	Impute bool

	// Window is the inclusive temporal filter. The zero value means
	// domain.DefaultWindow.
	Window domain.Window
}

// DefaultReshapeOptions returns drop-policy options over the default window.
func DefaultReshapeOptions(ind domain.Indicator) ReshapeOptions {
	return ReshapeOptions{Indicator: ind, Window: domain.DefaultWindow}
}

func (o ReshapeOptions) window() domain.Window {
	if o.Window.Start.IsZero() && o.Window.End.IsZero() {
		return domain.DefaultWindow
	}
	return o.Window
}

// ReshapeStats describes what the reshaper did to one source.
type ReshapeStats struct {
	Source      string           `json:"source"`
	Indicator   domain.Indicator `json:"indicator"`
	Impute      bool             `json:"impute"`
	Countries   int              `json:"countries"`
	YearColumns int              `json:"year_columns"`

	// CountriesDropped lists countries removed by the drop policy.
	CountriesDropped []string `json:"countries_dropped,omitempty"`
	// CountriesSkipped lists countries with no value in any year under the
	// impute policy.
	CountriesSkipped []string `json:"countries_skipped,omitempty"`
	CellsImputed     int      `json:"cells_imputed"`

	RecordsFlattened   int `json:"records_flattened"`
	RecordsOutOfWindow int `json:"records_out_of_window"`
	Records            int `json:"records"`
}

// YearMajorTable is the transposed wide table: one row per year, one column
// per country. Cells keep their source text.
type YearMajorTable struct {
	Name      string
	Years     []domain.Year
	Countries []string
	Cells     [][]string // Cells[year][country]
}

// column returns the cells of one country across all years.
func (t YearMajorTable) column(c int) []string {
	out := make([]string, len(t.Years))
	for y := range t.Years {
		out[y] = t.Cells[y][c]
	}
	return out
}

// TextRecord is a flattened observation whose value has not been coerced.
type TextRecord struct {
	Year    domain.Year
	Country string
	Text    string
}

// PolicyStats reports the effect of the missing-value policy.
type PolicyStats struct {
	Dropped []string
	Skipped []string
	Imputed int
}
