package exporter

import (
	"strconv"

	"gapminder/pkg/contracts/domain"
)

// formatFloat renders the shortest decimal that round-trips, never in
// exponent form.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatYear renders a year as its plain integer.
func formatYear(y domain.Year) string {
	return strconv.Itoa(int(y))
}

// canonicalRecord lays a row out in canonical column order.
func canonicalRecord(r domain.CanonicalRow) []string {
	return []string{
		formatYear(r.Year),
		r.Country,
		formatFloat(r.Population),
		formatFloat(r.LifeExpectancy),
		formatFloat(r.Income),
		formatFloat(r.HDI),
	}
}
