package dataprocessing

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gapminder/internal/shared/testutil"
	"gapminder/pkg/contracts/domain"
)

func TestDescribeColumn(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   ColumnStats
	}{
		{
			name:   "four values",
			values: []float64{4, 1, 3, 2},
			want: ColumnStats{
				Column: "x", Count: 4, Mean: 2.5, Std: math.Sqrt(5.0 / 3.0),
				Min: 1, Q25: 1.75, Q50: 2.5, Q75: 3.25, Max: 4,
			},
		},
		{
			name:   "single value",
			values: []float64{7},
			want:   ColumnStats{Column: "x", Count: 1, Mean: 7, Min: 7, Q25: 7, Q50: 7, Q75: 7, Max: 7},
		},
		{
			name:   "empty",
			values: nil,
			want:   ColumnStats{Column: "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DescribeColumn("x", tt.values)
			assert.Equal(t, tt.want.Count, got.Count)
			assert.InDelta(t, tt.want.Mean, got.Mean, 1e-12)
			assert.InDelta(t, tt.want.Std, got.Std, 1e-12)
			assert.InDelta(t, tt.want.Q25, got.Q25, 1e-12)
			assert.InDelta(t, tt.want.Q50, got.Q50, 1e-12)
			assert.InDelta(t, tt.want.Q75, got.Q75, 1e-12)
			assert.Equal(t, tt.want.Min, got.Min)
			assert.Equal(t, tt.want.Max, got.Max)
		})
	}
}

func TestDescribe_LongTableHasNoStats(t *testing.T) {
	rt, _, err := Reshape(testutil.TwoCountrySources()[domain.IndicatorIncome], DefaultReshapeOptions(domain.IndicatorIncome))
	require.NoError(t, err)

	sum := Describe(rt)
	assert.Equal(t, "income", sum.Name)
	assert.Equal(t, 4, sum.Rows)
	assert.Equal(t, 3, sum.Cols)
	assert.Equal(t, domain.Year(1990), sum.YearMin)
	assert.Equal(t, domain.Year(1991), sum.YearMax)
	assert.Nil(t, sum.Stats)
	assert.Len(t, sum.Missing, 3)
}

func TestDescribeCanonical(t *testing.T) {
	ct, err := Align(reshapeAll(t, testutil.TwoCountrySources(), nil)...)
	require.NoError(t, err)

	sum := NewSummarizer(nil).Canonical(ct)
	assert.Equal(t, 6, sum.Cols)
	require.Len(t, sum.Stats, 4)
	assert.Equal(t, "population", sum.Stats[0].Column)
	assert.InDelta(t, 155.0, sum.Stats[0].Mean, 1e-9)
	for _, m := range sum.Missing {
		assert.Zero(t, m.Missing)
	}
}

func TestDescribeCanonical_EmptyEncodesAsJSON(t *testing.T) {
	sum := DescribeCanonical(domain.CanonicalTable{})

	_, err := json.Marshal(sum)
	assert.NoError(t, err)
	assert.Zero(t, sum.Rows)
}

func TestCorrelation(t *testing.T) {
	ct := domain.CanonicalTable{Rows: []domain.CanonicalRow{
		{Population: 1, LifeExpectancy: 2, Income: 3, HDI: 5},
		{Population: 2, LifeExpectancy: 4, Income: 1, HDI: 5},
		{Population: 3, LifeExpectancy: 6, Income: 2, HDI: 5},
	}}

	m := Correlation(ct)
	require.Len(t, m, 4)
	assert.InDelta(t, 1.0, m[0][0], 1e-12)
	assert.InDelta(t, 1.0, m[0][1], 1e-12)
	assert.InDelta(t, m[0][2], m[2][0], 1e-12)
	assert.True(t, math.IsNaN(m[0][3]))
}
