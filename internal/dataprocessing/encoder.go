package dataprocessing

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gapminder/pkg/contracts/domain"
)

// ModelFeatures is the feature column order of an encoded matrix. The
// target column is life_expectancy.
var ModelFeatures = []string{
	domain.ColumnYear,
	domain.ColumnCountry,
	domain.ColumnPopulation,
	domain.ColumnIncome,
	domain.ColumnHDI,
}

// ModelMatrix is the canonical table encoded for a regression model.
// Countries maps a country code back to its name: code i is Countries[i].
type ModelMatrix struct {
	FeatureNames []string    `json:"feature_names"`
	TargetName   string      `json:"target_name"`
	Features     [][]float64 `json:"features"`
	Target       []float64   `json:"target"`
	Countries    []string    `json:"countries"`
}

// Len returns the number of samples.
func (m ModelMatrix) Len() int { return len(m.Target) }

// EncodeForModel converts the canonical table into numeric features. The
// year becomes its integer value and the country is label-encoded by its
// position in the sorted list of distinct country names.
func EncodeForModel(ct domain.CanonicalTable) ModelMatrix {
	countries := ct.Countries()
	sort.Strings(countries)
	codes := make(map[string]int, len(countries))
	for i, c := range countries {
		codes[c] = i
	}

	m := ModelMatrix{
		FeatureNames: append([]string(nil), ModelFeatures...),
		TargetName:   domain.ColumnLifeExpectancy,
		Features:     make([][]float64, len(ct.Rows)),
		Target:       make([]float64, len(ct.Rows)),
		Countries:    countries,
	}
	for i, r := range ct.Rows {
		m.Features[i] = []float64{
			float64(r.Year),
			float64(codes[r.Country]),
			r.Population,
			r.Income,
			r.HDI,
		}
		m.Target[i] = r.LifeExpectancy
	}
	return m
}

// DefaultTestRatio and DefaultSplitSeed reproduce the usual split of the
// published analysis.
const (
	DefaultTestRatio = 0.33
	DefaultSplitSeed = 42
)

// TrainTestSplit shuffles sample indices with a seeded generator and puts
// ceil(n*testRatio) samples in the test set. The same seed always gives the
// same split.
func TrainTestSplit(m ModelMatrix, testRatio float64, seed uint64) (train, test ModelMatrix, err error) {
	if testRatio <= 0 || testRatio >= 1 {
		return train, test, fmt.Errorf("test ratio must be in (0, 1), got %g", testRatio)
	}

	n := m.Len()
	perm := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)).Perm(n)
	nTest := min(int(math.Ceil(float64(n)*testRatio)), n)

	test = m.subset(perm[:nTest])
	train = m.subset(perm[nTest:])
	return train, test, nil
}

func (m ModelMatrix) subset(idx []int) ModelMatrix {
	out := ModelMatrix{
		FeatureNames: m.FeatureNames,
		TargetName:   m.TargetName,
		Countries:    m.Countries,
		Features:     make([][]float64, len(idx)),
		Target:       make([]float64, len(idx)),
	}
	for i, j := range idx {
		out.Features[i] = m.Features[j]
		out.Target[i] = m.Target[j]
	}
	return out
}
