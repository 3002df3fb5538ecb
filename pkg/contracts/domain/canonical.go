package domain

// Canonical column names, in output order.
const (
	ColumnYear           = "year"
	ColumnCountry        = "country"
	ColumnPopulation     = "population"
	ColumnLifeExpectancy = "life_expectancy"
	ColumnIncome         = "income"
	ColumnHDI            = "hdi"
)

// CanonicalColumns is the fixed schema of the merged table.
var CanonicalColumns = []string{
	ColumnYear,
	ColumnCountry,
	ColumnPopulation,
	ColumnLifeExpectancy,
	ColumnIncome,
	ColumnHDI,
}

// CanonicalRow is one (year, country) observation with every indicator set.
type CanonicalRow struct {
	Year           Year    `json:"year"`
	Country        string  `json:"country"`
	Population     float64 `json:"population"`
	LifeExpectancy float64 `json:"life_expectancy"`
	Income         float64 `json:"income"`
	HDI            float64 `json:"hdi"`
}

// Key returns the row's (year, country) pair.
func (r CanonicalRow) Key() Key { return Key{Year: r.Year, Country: r.Country} }

// Value returns the indicator column of the row.
func (r CanonicalRow) Value(i Indicator) (float64, bool) {
	switch i {
	case IndicatorPopulation:
		return r.Population, true
	case IndicatorLifeExpectancy:
		return r.LifeExpectancy, true
	case IndicatorIncome:
		return r.Income, true
	case IndicatorHDI:
		return r.HDI, true
	}
	return 0, false
}

// Set assigns the indicator column of the row.
func (r *CanonicalRow) Set(i Indicator, v float64) bool {
	switch i {
	case IndicatorPopulation:
		r.Population = v
	case IndicatorLifeExpectancy:
		r.LifeExpectancy = v
	case IndicatorIncome:
		r.Income = v
	case IndicatorHDI:
		r.HDI = v
	default:
		return false
	}
	return true
}

// CanonicalTable is the joined output of the pipeline. An empty table is a
// valid result.
type CanonicalTable struct {
	Rows []CanonicalRow `json:"rows"`
}

// Columns returns the fixed canonical column names.
func (t CanonicalTable) Columns() []string {
	cols := make([]string, len(CanonicalColumns))
	copy(cols, CanonicalColumns)
	return cols
}

// Len returns the number of rows.
func (t CanonicalTable) Len() int { return len(t.Rows) }

// Empty reports whether the join produced no rows.
func (t CanonicalTable) Empty() bool { return len(t.Rows) == 0 }

// Split projects the table back into one ReshapedTable per indicator, in
// canonical order.
func (t CanonicalTable) Split() []ReshapedTable {
	out := make([]ReshapedTable, 0, len(CanonicalIndicators))
	for _, ind := range CanonicalIndicators {
		rt := ReshapedTable{
			Name:      string(ind),
			Indicator: ind,
			Records:   make([]LongRecord, 0, len(t.Rows)),
		}
		for _, row := range t.Rows {
			v, _ := row.Value(ind)
			rt.Records = append(rt.Records, LongRecord{Year: row.Year, Country: row.Country, Value: v})
		}
		out = append(out, rt)
	}
	return out
}

// Countries returns the distinct countries in first-seen order.
func (t CanonicalTable) Countries() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range t.Rows {
		if _, ok := seen[r.Country]; ok {
			continue
		}
		seen[r.Country] = struct{}{}
		out = append(out, r.Country)
	}
	return out
}

// Filter returns a new table holding the rows for which keep returns true.
func (t CanonicalTable) Filter(keep func(CanonicalRow) bool) CanonicalTable {
	out := CanonicalTable{Rows: make([]CanonicalRow, 0, len(t.Rows))}
	for _, r := range t.Rows {
		if keep(r) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}
