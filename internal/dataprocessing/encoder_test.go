package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gapminder/pkg/contracts/domain"
)

func sampleCanonical(n int) domain.CanonicalTable {
	names := []string{"Chad", "Austria", "Brazil"}
	ct := domain.CanonicalTable{}
	for i := 0; i < n; i++ {
		ct.Rows = append(ct.Rows, domain.CanonicalRow{
			Year:           domain.Year(1990 + i/len(names)),
			Country:        names[i%len(names)],
			Population:     float64(i),
			LifeExpectancy: float64(50 + i),
			Income:         float64(100 * i),
			HDI:            0.5,
		})
	}
	return ct
}

func TestEncodeForModel(t *testing.T) {
	m := EncodeForModel(sampleCanonical(3))

	assert.Equal(t, []string{"year", "country", "population", "income", "hdi"}, m.FeatureNames)
	assert.Equal(t, "life_expectancy", m.TargetName)
	assert.Equal(t, []string{"Austria", "Brazil", "Chad"}, m.Countries)
	require.Equal(t, 3, m.Len())

	// Row 0 is Chad, which sorts last.
	assert.Equal(t, []float64{1990, 2, 0, 0, 0.5}, m.Features[0])
	assert.Equal(t, []float64{1990, 0, 1, 100, 0.5}, m.Features[1])
	assert.Equal(t, []float64{50, 51, 52}, m.Target)
}

func TestTrainTestSplit(t *testing.T) {
	m := EncodeForModel(sampleCanonical(10))

	train, test, err := TrainTestSplit(m, 0.5, DefaultSplitSeed)
	require.NoError(t, err)
	assert.Equal(t, 5, test.Len())
	assert.Equal(t, 5, train.Len())

	seen := map[float64]bool{}
	for _, v := range append(append([]float64{}, train.Target...), test.Target...) {
		assert.False(t, seen[v], "sample %v appears twice", v)
		seen[v] = true
	}
	assert.Len(t, seen, 10)

	train2, test2, err := TrainTestSplit(m, 0.5, DefaultSplitSeed)
	require.NoError(t, err)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)
}

func TestTrainTestSplit_RoundsTestSizeUp(t *testing.T) {
	m := EncodeForModel(sampleCanonical(3))
	train, test, err := TrainTestSplit(m, DefaultTestRatio, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, test.Len())
	assert.Equal(t, 2, train.Len())
}

func TestTrainTestSplit_InvalidRatio(t *testing.T) {
	for _, r := range []float64{0, 1, -0.2, 1.5} {
		_, _, err := TrainTestSplit(ModelMatrix{}, r, 1)
		assert.Error(t, err, r)
	}
}
