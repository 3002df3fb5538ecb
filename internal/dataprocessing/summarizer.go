package dataprocessing

import (
	"log/slog"
	"math"
	"sort"

	"gapminder/pkg/contracts/domain"
)

// statsMinColumns is the column count at which a summary includes
// per-column descriptive statistics. Single-indicator long tables have
// three columns and get shape, missing counts and year range only.
const statsMinColumns = 4

// ColumnStats holds descriptive statistics for one numeric column.
type ColumnStats struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"q25"`
	Q50    float64 `json:"q50"`
	Q75    float64 `json:"q75"`
	Max    float64 `json:"max"`
}

// ColumnMissing is the number of missing values in a column.
type ColumnMissing struct {
	Column  string `json:"column"`
	Missing int    `json:"missing"`
}

// Summary describes a reshaped or canonical table.
type Summary struct {
	Name    string          `json:"name"`
	Columns []string        `json:"columns"`
	Rows    int             `json:"rows"`
	Cols    int             `json:"cols"`
	Missing []ColumnMissing `json:"missing"`
	YearMin domain.Year     `json:"year_min,omitempty"`
	YearMax domain.Year     `json:"year_max,omitempty"`
	Stats   []ColumnStats   `json:"stats,omitempty"`
}

// Summarizer produces Summary values and logs them.
type Summarizer struct {
	logger *slog.Logger
}

// NewSummarizer creates a summarizer. A nil logger uses slog.Default().
func NewSummarizer(logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{logger: logger.With("component", "summarizer")}
}

// Reshaped summarizes one indicator table.
func (s *Summarizer) Reshaped(t domain.ReshapedTable) Summary {
	sum := Describe(t)
	s.log(sum)
	return sum
}

// Canonical summarizes the merged table.
func (s *Summarizer) Canonical(t domain.CanonicalTable) Summary {
	sum := DescribeCanonical(t)
	s.log(sum)
	return sum
}

func (s *Summarizer) log(sum Summary) {
	s.logger.Info("table summary",
		slog.String("table", sum.Name),
		slog.Int("rows", sum.Rows),
		slog.Int("cols", sum.Cols),
		slog.Int("year_min", int(sum.YearMin)),
		slog.Int("year_max", int(sum.YearMax)))
}

// Describe summarizes a long table.
func Describe(t domain.ReshapedTable) Summary {
	cols := t.Columns()
	sum := Summary{
		Name:    cols[2],
		Columns: cols,
		Rows:    t.Len(),
		Cols:    len(cols),
		Missing: zeroMissing(cols),
	}

	years := make([]domain.Year, len(t.Records))
	values := make([]float64, len(t.Records))
	for i, r := range t.Records {
		years[i] = r.Year
		values[i] = r.Value
	}
	sum.YearMin, sum.YearMax = yearRange(years)

	if sum.Cols >= statsMinColumns {
		sum.Stats = []ColumnStats{DescribeColumn(cols[2], values)}
	}
	return sum
}

// DescribeCanonical summarizes the canonical table, with statistics for
// every indicator column.
func DescribeCanonical(t domain.CanonicalTable) Summary {
	cols := t.Columns()
	sum := Summary{
		Name:    "canonical",
		Columns: cols,
		Rows:    t.Len(),
		Cols:    len(cols),
		Missing: zeroMissing(cols),
	}

	years := make([]domain.Year, len(t.Rows))
	for i, r := range t.Rows {
		years[i] = r.Year
	}
	sum.YearMin, sum.YearMax = yearRange(years)

	for _, ind := range domain.CanonicalIndicators {
		values := make([]float64, len(t.Rows))
		for i, r := range t.Rows {
			values[i], _ = r.Value(ind)
		}
		sum.Stats = append(sum.Stats, DescribeColumn(ind.String(), values))
	}
	return sum
}

// DescribeColumn computes count, mean, sample standard deviation, min,
// quartiles (linear interpolation) and max. Statistics that are undefined
// for the sample size are left at zero so the result always encodes as JSON.
func DescribeColumn(name string, values []float64) ColumnStats {
	cs := ColumnStats{Column: name, Count: len(values)}
	if len(values) == 0 {
		return cs
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	cs.Mean = sum / float64(len(sorted))

	if len(sorted) > 1 {
		var ss float64
		for _, v := range sorted {
			d := v - cs.Mean
			ss += d * d
		}
		cs.Std = math.Sqrt(ss / float64(len(sorted)-1))
	}

	cs.Min = sorted[0]
	cs.Max = sorted[len(sorted)-1]
	cs.Q25 = quantile(sorted, 0.25)
	cs.Q50 = quantile(sorted, 0.50)
	cs.Q75 = quantile(sorted, 0.75)
	return cs
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Correlation returns the Pearson correlation matrix of the canonical
// indicator columns, in canonical order. Entries involving a constant
// column are NaN.
func Correlation(t domain.CanonicalTable) [][]float64 {
	n := len(domain.CanonicalIndicators)
	cols := make([][]float64, n)
	for j, ind := range domain.CanonicalIndicators {
		cols[j] = make([]float64, len(t.Rows))
		for i, r := range t.Rows {
			cols[j][i], _ = r.Value(ind)
		}
	}

	out := make([][]float64, n)
	for a := 0; a < n; a++ {
		out[a] = make([]float64, n)
		for b := 0; b < n; b++ {
			out[a][b] = pearson(cols[a], cols[b])
		}
	}
	return out
}

func pearson(x, y []float64) float64 {
	if len(x) < 2 {
		return math.NaN()
	}
	var mx, my float64
	for i := range x {
		mx += x[i]
		my += y[i]
	}
	mx /= float64(len(x))
	my /= float64(len(y))

	var sxy, sxx, syy float64
	for i := range x {
		dx, dy := x[i]-mx, y[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return math.NaN()
	}
	return sxy / math.Sqrt(sxx*syy)
}

func zeroMissing(cols []string) []ColumnMissing {
	out := make([]ColumnMissing, len(cols))
	for i, c := range cols {
		out[i] = ColumnMissing{Column: c}
	}
	return out
}

func yearRange(years []domain.Year) (domain.Year, domain.Year) {
	if len(years) == 0 {
		return 0, 0
	}
	lo, hi := years[0], years[0]
	for _, y := range years[1:] {
		if y < lo {
			lo = y
		}
		if y > hi {
			hi = y
		}
	}
	return lo, hi
}
