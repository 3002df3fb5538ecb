package services

import "errors"

// Service errors
var (
	// ErrNoCanonicalData is returned before the first run has published a table.
	ErrNoCanonicalData = errors.New("no canonical table loaded")

	// ErrInvalidFilter is returned for a year range with from > to.
	ErrInvalidFilter = errors.New("invalid canonical filter")
)
