package domain

import (
	"fmt"
	"math"
	"strings"
)

// missingTokens are cell spellings treated as an absent value.
var missingTokens = map[string]struct{}{
	"":     {},
	"nan":  {},
	"na":   {},
	"n/a":  {},
	"null": {},
	"none": {},
}

// IsMissing reports whether a raw cell holds no value.
func IsMissing(cell string) bool {
	_, ok := missingTokens[strings.ToLower(strings.TrimSpace(cell))]
	return ok
}

// RawIndicatorTable is a wide table as published: one row per country, one
// column per year label. Cells keep their source text; numeric coercion
// happens during reshaping.
type RawIndicatorTable struct {
	Name          string     `json:"name"`
	CountryHeader string     `json:"country_header"`
	YearLabels    []string   `json:"year_labels"`
	Countries     []string   `json:"countries"`
	Cells         [][]string `json:"cells"` // Cells[country][year]
}

// Cell returns the raw text at (country row, year column), or "" when the
// row is shorter than the header.
func (t RawIndicatorTable) Cell(country, year int) string {
	if country < 0 || country >= len(t.Cells) {
		return ""
	}
	row := t.Cells[country]
	if year < 0 || year >= len(row) {
		return ""
	}
	return row[year]
}

// Shape returns (rows, columns) excluding the country label column.
func (t RawIndicatorTable) Shape() (int, int) {
	return len(t.Countries), len(t.YearLabels)
}

// Key is the composite join key shared by every long table.
type Key struct {
	Year    Year   `json:"year"`
	Country string `json:"country"`
}

func (k Key) String() string { return fmt.Sprintf("(%s, %s)", k.Year, k.Country) }

// LongRecord is one observation of a single indicator.
type LongRecord struct {
	Year    Year    `json:"year"`
	Country string  `json:"country"`
	Value   float64 `json:"value"`
}

// Key returns the record's (year, country) pair.
func (r LongRecord) Key() Key { return Key{Year: r.Year, Country: r.Country} }

// ReshapedTable holds the long form of one indicator. Name is the source
// identifier (file name without path or extension) and also the value
// column name; Indicator is the canonical role used by the aligner.
type ReshapedTable struct {
	Name      string       `json:"name"`
	Indicator Indicator    `json:"indicator"`
	Records   []LongRecord `json:"records"`
}

// Len returns the number of records.
func (t ReshapedTable) Len() int { return len(t.Records) }

// Columns returns [year, country, <name>].
func (t ReshapedTable) Columns() []string {
	name := t.Name
	if name == "" {
		name = string(t.Indicator)
	}
	return []string{"year", "country", name}
}

// Index maps each key to its value.
func (t ReshapedTable) Index() map[Key]float64 {
	idx := make(map[Key]float64, len(t.Records))
	for _, r := range t.Records {
		idx[r.Key()] = r.Value
	}
	return idx
}

// Validate checks key uniqueness, the year window and value finiteness.
func (t ReshapedTable) Validate(w Window) error {
	seen := make(map[Key]struct{}, len(t.Records))
	for i, r := range t.Records {
		if _, dup := seen[r.Key()]; dup {
			return fmt.Errorf("%s: duplicate key %s at record %d", t.Name, r.Key(), i)
		}
		seen[r.Key()] = struct{}{}
		if !w.Contains(r.Year) {
			return fmt.Errorf("%s: year %s outside window %s", t.Name, r.Year, w)
		}
		if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
			return fmt.Errorf("%s: non-finite value at %s", t.Name, r.Key())
		}
	}
	return nil
}
