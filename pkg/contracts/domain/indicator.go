package domain

import (
	"fmt"
	"strings"
)

// Indicator identifies the role a reshaped table plays in the canonical table.
type Indicator string

const (
	IndicatorPopulation     Indicator = "population"
	IndicatorLifeExpectancy Indicator = "life_expectancy"
	IndicatorIncome         Indicator = "income"
	IndicatorHDI            Indicator = "hdi"
)

// CanonicalIndicators is the fold order used when aligning, which is also the
// column order of the canonical table after year and country.
var CanonicalIndicators = []Indicator{
	IndicatorPopulation,
	IndicatorLifeExpectancy,
	IndicatorIncome,
	IndicatorHDI,
}

// ParseIndicator accepts the canonical names plus a few common aliases.
func ParseIndicator(s string) (Indicator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "population", "pop":
		return IndicatorPopulation, nil
	case "life_expectancy", "lifeexpectancy", "life-expectancy", "lex":
		return IndicatorLifeExpectancy, nil
	case "income", "gdp", "gdppercapita":
		return IndicatorIncome, nil
	case "hdi", "human_development", "human_development_index":
		return IndicatorHDI, nil
	}
	return "", fmt.Errorf("unknown indicator %q", s)
}

// Valid reports whether i is one of the canonical indicators.
func (i Indicator) Valid() bool {
	for _, c := range CanonicalIndicators {
		if i == c {
			return true
		}
	}
	return false
}

func (i Indicator) String() string { return string(i) }
