// Package dataprocessing turns wide indicator tables into the canonical
// (year, country) table.
//
// # Architecture
//
// Reshape runs five pure stages over one source table:
//
//  1. Transpose: country-major to year-major, validating both axes
//  2. ApplyPolicy: drop incomplete countries, or impute with the country mean
//  3. Flatten: one record per (year, country)
//  4. FilterWindow: keep years inside the temporal window, compared as dates
//  5. Coerce: parse every surviving value as a finite float64
//
// Align then inner-joins one table per indicator. Tables are matched by
// their Indicator tag, never by position.
//
// # Usage
//
//	pop, stats, err := dataprocessing.Reshape(raw, dataprocessing.DefaultReshapeOptions(domain.IndicatorPopulation))
//	if err != nil {
//	    return err
//	}
//	ct, err := dataprocessing.Align(pop, lex, income, hdi)
//
// An empty CanonicalTable is a valid result of Align.
//
// # Error Handling
//
// Schema problems (bad year labels, duplicate countries) are reported as
// SCHEMA errors and unparseable values as COERCION errors from
// internal/errors; both reject the whole source. Align returns
// ErrIndicatorSet when the table set is incomplete or repeats an indicator.
//
// # Downstream
//
// Describe and DescribeCanonical produce the summary tables shown by the
// CLI and API. EncodeForModel and TrainTestSplit prepare the canonical
// table for a regression model.
package dataprocessing
