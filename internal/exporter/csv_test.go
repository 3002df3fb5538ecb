package exporter

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gapminder/internal/config"
	"gapminder/internal/dataprocessing"
	"gapminder/internal/files"
	"gapminder/internal/shared/testutil"
	"gapminder/pkg/contracts/domain"
)

func sampleCanonical() domain.CanonicalTable {
	return domain.CanonicalTable{Rows: []domain.CanonicalRow{
		{Year: 1995, Country: "A", Population: 1e7, LifeExpectancy: 60.5, Income: 1000, HDI: 0.5},
		{Year: 1996, Country: "Korea, Rep.", Population: 120, LifeExpectancy: 61, Income: 1100.25, HDI: 0.512},
	}}
}

func setupTestEnv(t *testing.T) (*files.Manager, string) {
	t.Helper()
	out := t.TempDir()
	paths := &config.Paths{
		OutputDir:    out,
		LongDir:      filepath.Join(out, "long"),
		CanonicalCSV: filepath.Join(out, config.CanonicalCSVName),
		CanonicalXLS: filepath.Join(out, config.CanonicalXLSXName),
	}
	logger, _ := testutil.NewTestLogger(t)
	return files.NewManager(paths, logger), out
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestEncodeCanonical(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeCanonical(&buf, sampleCanonical()))

	want := "year,country,population,life_expectancy,income,hdi\n" +
		"1995,A,10000000,60.5,1000,0.5\n" +
		"1996,\"Korea, Rep.\",120,61,1100.25,0.512\n"
	assert.Equal(t, want, buf.String())
}

func TestEncodeCanonical_EmptyTableWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeCanonical(&buf, domain.CanonicalTable{}))
	assert.Equal(t, strings.Join(domain.CanonicalColumns, ",")+"\n", buf.String())
}

func TestEncodeReshaped(t *testing.T) {
	tbl := domain.ReshapedTable{
		Name:      "population_total",
		Indicator: domain.IndicatorPopulation,
		Records:   []domain.LongRecord{{Year: 1990, Country: "A", Value: 100}},
	}
	var buf bytes.Buffer
	require.NoError(t, EncodeReshaped(&buf, tbl))
	assert.Equal(t, "year,country,population_total\n1990,A,100\n", buf.String())
}

func TestEncodeModelMatrix(t *testing.T) {
	m := dataprocessing.EncodeForModel(sampleCanonical())
	var buf bytes.Buffer
	require.NoError(t, EncodeModelMatrix(&buf, m))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"year", "country", "population", "income", "hdi", "life_expectancy"}, rows[0])
	assert.Equal(t, []string{"1995", "0", "10000000", "1000", "0.5", "60.5"}, rows[1])
	assert.Equal(t, []string{"1996", "1", "120", "1100.25", "0.512", "61"}, rows[2])
}

func TestCSVWriter_Export(t *testing.T) {
	m, out := setupTestEnv(t)
	w := NewCSVWriter(m, nil, WithLongTables(true))
	assert.Equal(t, "csv", w.Name())

	ct := sampleCanonical()
	res := &domain.RunResult{
		RunID: "run-1",
		Reshaped: []domain.ReshapedTable{{
			Name:      "hdi_human_development_index",
			Indicator: domain.IndicatorHDI,
			Records:   []domain.LongRecord{{Year: 1995, Country: "A", Value: 0.5}},
		}},
		Canonical: ct,
	}
	require.NoError(t, w.Export(context.Background(), res))

	rows := readCSV(t, filepath.Join(out, config.CanonicalCSVName))
	assert.Equal(t, domain.CanonicalColumns, rows[0])
	assert.Len(t, rows, 3)

	long := readCSV(t, filepath.Join(out, "long", "hdi_human_development_index.csv"))
	assert.Equal(t, [][]string{{"year", "country", "hdi_human_development_index"}, {"1995", "A", "0.5"}}, long)
}

func TestCSVWriter_ExportSkipsLongTablesByDefault(t *testing.T) {
	m, out := setupTestEnv(t)
	w := NewCSVWriter(m, nil)

	res := &domain.RunResult{
		Reshaped:  []domain.ReshapedTable{{Name: "x", Indicator: domain.IndicatorHDI}},
		Canonical: sampleCanonical(),
	}
	require.NoError(t, w.Export(context.Background(), res))
	assert.NoFileExists(t, filepath.Join(out, "long", "x.csv"))
}

func TestCSVWriter_BOM(t *testing.T) {
	m, out := setupTestEnv(t)
	w := NewCSVWriter(m, nil, WithBOM(true))

	path := filepath.Join(out, "bom.csv")
	require.NoError(t, w.WriteCanonical(path, domain.CanonicalTable{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}))
}

func TestCSVWriter_ExportCanceled(t *testing.T) {
	m, _ := setupTestEnv(t)
	w := NewCSVWriter(m, nil, WithLongTables(true))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := &domain.RunResult{Reshaped: []domain.ReshapedTable{{Name: "x"}}}
	assert.ErrorIs(t, w.Export(ctx, res), context.Canceled)
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{100, "100"},
		{0.1, "0.1"},
		{1e21, "1000000000000000000000"},
		{-2.5, "-2.5"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatFloat(tt.in))
	}
}
