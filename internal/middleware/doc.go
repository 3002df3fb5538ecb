// Package middleware holds the HTTP middleware chain of the API server:
// request IDs, structured request logging, panic recovery, rate limiting,
// OpenTelemetry spans and metrics, and query binding with validation.
package middleware
