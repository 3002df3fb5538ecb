package testutil

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"gapminder/pkg/contracts/domain"
)

// Wide builds a RawIndicatorTable from a header row and data rows in the
// same layout a published CSV uses: first column is the country.
func Wide(name string, header []string, rows ...[]string) domain.RawIndicatorTable {
	t := domain.RawIndicatorTable{
		Name:          name,
		CountryHeader: header[0],
		YearLabels:    append([]string(nil), header[1:]...),
	}
	for _, r := range rows {
		t.Countries = append(t.Countries, r[0])
		t.Cells = append(t.Cells, append([]string(nil), r[1:]...))
	}
	return t
}

// Sources holds one wide table per indicator.
type Sources map[domain.Indicator]domain.RawIndicatorTable

// TwoCountrySources is the small end-to-end scenario: countries A and B over
// 1990 and 1991 with every indicator present. The canonical result has four
// rows.
func TwoCountrySources() Sources {
	header := []string{"country", "1990", "1991"}
	return Sources{
		domain.IndicatorPopulation: Wide("population", header,
			[]string{"A", "100", "110"},
			[]string{"B", "200", "210"}),
		domain.IndicatorLifeExpectancy: Wide("life_expectancy", header,
			[]string{"A", "60.5", "61"},
			[]string{"B", "70", "70.5"}),
		domain.IndicatorIncome: Wide("income", header,
			[]string{"A", "1000", "1100"},
			[]string{"B", "2000", "2100"}),
		domain.IndicatorHDI: Wide("hdi", []string{"country", "1990", "1991"},
			[]string{"A", "0.5", "0.51"},
			[]string{"B", "0.7", "0.71"}),
	}
}

// WriteCSV writes rows to dir/name and returns the full path.
func WriteCSV(t *testing.T, dir, name string, rows [][]string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteSources writes each table as <indicator>.csv under dir.
func WriteSources(t *testing.T, dir string, src Sources) map[domain.Indicator]string {
	t.Helper()

	paths := make(map[domain.Indicator]string, len(src))
	for ind, tbl := range src {
		rows := [][]string{append([]string{tbl.CountryHeader}, tbl.YearLabels...)}
		for i, c := range tbl.Countries {
			rows = append(rows, append([]string{c}, tbl.Cells[i]...))
		}
		paths[ind] = WriteCSV(t, dir, string(ind)+".csv", rows)
	}
	return paths
}
