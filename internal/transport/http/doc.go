// Package http implements the HTTP handlers of the gapminder API. Handlers
// stay thin: they bind and validate the request, call a service, and render
// the result or an RFC 7807 problem.
//
// # Endpoints
//
//	GET  /api/health               liveness
//	GET  /api/health/ready         readiness (503 until a table is published)
//	GET  /api/version              build information
//	GET  /api/v1/canonical         canonical rows as JSON, filtered by
//	                               country, year_from and year_to
//	GET  /api/v1/canonical.csv     the same rows as CSV
//	GET  /api/v1/canonical.xlsx    the same rows as a workbook
//	GET  /api/v1/summary           descriptive statistics
//	GET  /api/v1/countries         distinct countries, sorted
//	POST /api/v1/runs              run the pipeline and publish the result
//	GET  /api/v1/runs              run history, newest first
//	GET  /api/v1/runs/status       whether a run is in progress
//	GET  /metrics                  Prometheus exposition
//
// An empty canonical table is a valid result and is served as an empty
// list, never as an error.
package http
