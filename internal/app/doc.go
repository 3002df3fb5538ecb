// Package app wires a gapminder process together: configuration and paths,
// OpenTelemetry providers, the exporters selected by output.formats, the
// SQLite store, the pipeline manager, the services and the chi router.
//
// The CLI builds one Application per command. "run" and "summary" only use
// the pipeline side; "serve" also restores the persisted table, runs once
// and then serves the HTTP API until interrupted.
package app
