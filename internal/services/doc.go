// Package services sits between the HTTP handlers and the pipeline.
//
// DataService holds the canonical table currently being served and swaps it
// atomically when a run publishes a new one. OperationService triggers runs
// through the operations manager and publishes their result. HealthService
// reports liveness and readiness.
//
// Handlers depend on these services rather than on the pipeline packages
// directly, which keeps request handling independent of how runs execute.
package services
