package dataprocessing

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gapminder/internal/shared/testutil"
	"gapminder/pkg/contracts/domain"
)

func reshapeAll(t *testing.T, src testutil.Sources, impute map[domain.Indicator]bool) []domain.ReshapedTable {
	t.Helper()
	out := make([]domain.ReshapedTable, 0, len(src))
	for _, ind := range domain.CanonicalIndicators {
		opts := DefaultReshapeOptions(ind)
		opts.Impute = impute[ind]
		rt, _, err := Reshape(src[ind], opts)
		require.NoError(t, err, ind)
		out = append(out, rt)
	}
	return out
}

func long(ind domain.Indicator, recs ...domain.LongRecord) domain.ReshapedTable {
	return domain.ReshapedTable{Name: ind.String(), Indicator: ind, Records: recs}
}

func TestAlign_EndToEndTwoRows(t *testing.T) {
	header := []string{"country", "1995", "1996"}
	src := testutil.Sources{
		domain.IndicatorPopulation: testutil.Wide("population_total", header,
			[]string{"A", "100", "101"},
			[]string{"B", "200", "201"}),
		domain.IndicatorLifeExpectancy: testutil.Wide("life_expectancy_years", header,
			[]string{"A", "60", "61"},
			[]string{"B", "70", "71"}),
		// B has no 1995 income; under the drop policy B disappears from income.
		domain.IndicatorIncome: testutil.Wide("income", header,
			[]string{"A", "1000", "1001"},
			[]string{"B", "", "2001"}),
		domain.IndicatorHDI: testutil.Wide("hdi", header,
			[]string{"A", "0.5", "0.6"},
			[]string{"B", "0.7", "0.8"}),
	}

	ct, err := Align(reshapeAll(t, src, nil)...)
	require.NoError(t, err)

	assert.Equal(t, []string{"year", "country", "population", "life_expectancy", "income", "hdi"}, ct.Columns())
	want := []domain.CanonicalRow{
		{Year: 1995, Country: "A", Population: 100, LifeExpectancy: 60, Income: 1000, HDI: 0.5},
		{Year: 1996, Country: "A", Population: 101, LifeExpectancy: 61, Income: 1001, HDI: 0.6},
	}
	if diff := cmp.Diff(want, ct.Rows); diff != "" {
		t.Errorf("canonical mismatch (-want +got):\n%s", diff)
	}
}

func TestAlign_ArgumentOrderDoesNotMatter(t *testing.T) {
	tables := reshapeAll(t, testutil.TwoCountrySources(), nil)

	forward, err := Align(tables...)
	require.NoError(t, err)
	reversed, err := Align(tables[3], tables[2], tables[1], tables[0])
	require.NoError(t, err)

	assert.Equal(t, forward, reversed)
	assert.Equal(t, 4, forward.Len())
}

func TestAlign_RowOrderFollowsPopulation(t *testing.T) {
	pop := long(domain.IndicatorPopulation,
		domain.LongRecord{Year: 1991, Country: "B", Value: 1},
		domain.LongRecord{Year: 1990, Country: "A", Value: 2},
	)
	other := func(ind domain.Indicator) domain.ReshapedTable {
		return long(ind,
			domain.LongRecord{Year: 1990, Country: "A", Value: 3},
			domain.LongRecord{Year: 1991, Country: "B", Value: 4},
		)
	}

	ct, err := Align(pop, other(domain.IndicatorLifeExpectancy), other(domain.IndicatorIncome), other(domain.IndicatorHDI))
	require.NoError(t, err)
	require.Equal(t, 2, ct.Len())
	assert.Equal(t, "B", ct.Rows[0].Country)
	assert.Equal(t, "A", ct.Rows[1].Country)
}

func TestAlign_DisjointKeysGiveEmptyTable(t *testing.T) {
	a := domain.LongRecord{Year: 1990, Country: "A", Value: 1}
	b := domain.LongRecord{Year: 1990, Country: "B", Value: 1}

	ct, err := Align(
		long(domain.IndicatorPopulation, a),
		long(domain.IndicatorLifeExpectancy, a),
		long(domain.IndicatorIncome, b),
		long(domain.IndicatorHDI, a),
	)
	require.NoError(t, err)
	assert.True(t, ct.Empty())
	assert.Equal(t, domain.CanonicalColumns, ct.Columns())
}

func TestAlign_ZeroRowInput(t *testing.T) {
	a := domain.LongRecord{Year: 1990, Country: "A", Value: 1}

	ct, err := Align(
		long(domain.IndicatorPopulation, a),
		long(domain.IndicatorLifeExpectancy),
		long(domain.IndicatorIncome, a),
		long(domain.IndicatorHDI, a),
	)
	require.NoError(t, err)
	assert.Zero(t, ct.Len())
}

func TestAlign_IndicatorSetErrors(t *testing.T) {
	tables := reshapeAll(t, testutil.TwoCountrySources(), nil)

	tests := []struct {
		name   string
		tables []domain.ReshapedTable
	}{
		{"missing hdi", tables[:3]},
		{"duplicate income", []domain.ReshapedTable{tables[0], tables[1], tables[2], tables[2]}},
		{"untagged", []domain.ReshapedTable{tables[0], tables[1], tables[2], {Name: "x"}}},
		{"none", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Align(tt.tables...)
			assert.ErrorIs(t, err, ErrIndicatorSet)
		})
	}
}

func TestAlign_SplitRoundTrip(t *testing.T) {
	ct, err := Align(reshapeAll(t, testutil.TwoCountrySources(), nil)...)
	require.NoError(t, err)
	require.False(t, ct.Empty())

	again, err := Align(ct.Split()...)
	require.NoError(t, err)
	assert.Equal(t, ct, again)
}

func TestJoinCanonical_SelfJoinIdempotent(t *testing.T) {
	ct, err := Align(reshapeAll(t, testutil.TwoCountrySources(), nil)...)
	require.NoError(t, err)

	assert.Equal(t, ct, JoinCanonical(ct, ct))
}

func TestJoinCanonical_KeepsLeftValues(t *testing.T) {
	a := domain.CanonicalTable{Rows: []domain.CanonicalRow{
		{Year: 1990, Country: "A", Population: 1},
		{Year: 1990, Country: "B", Population: 2},
	}}
	b := domain.CanonicalTable{Rows: []domain.CanonicalRow{
		{Year: 1990, Country: "B", Population: 99},
	}}

	got := JoinCanonical(a, b)
	require.Equal(t, 1, got.Len())
	assert.Equal(t, 2.0, got.Rows[0].Population)
}

func TestAligner_LogsEmptyJoin(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	a := domain.LongRecord{Year: 1990, Country: "A", Value: 1}

	ct, err := NewAligner(logger).Align(context.Background(),
		long(domain.IndicatorPopulation, a),
		long(domain.IndicatorLifeExpectancy),
		long(domain.IndicatorIncome, a),
		long(domain.IndicatorHDI, a),
	)
	require.NoError(t, err)
	assert.True(t, ct.Empty())
	testutil.AssertLogContains(t, logs, slog.LevelWarn, "join produced no rows")
}
