package infrastructure

import (
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// PipelineMetrics holds the pipeline and HTTP instruments.
type PipelineMetrics struct {
	RunsTotal           metric.Int64Counter
	StageDuration       metric.Float64Histogram
	ReshapeRecords      metric.Int64Counter
	CountriesDropped    metric.Int64Counter
	CellsImputed        metric.Int64Counter
	CanonicalRows       metric.Int64Gauge
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
}

// CreatePipelineMetrics registers the application instruments on meter.
// Creating them twice on one meter returns the same underlying instruments.
func CreatePipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	var m PipelineMetrics
	var errs []error
	counter := func(dst *metric.Int64Counter, name, desc string) {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		*dst = c
		errs = append(errs, wrapInstrument(name, err))
	}
	seconds := func(dst *metric.Float64Histogram, name, desc string) {
		h, err := meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
		*dst = h
		errs = append(errs, wrapInstrument(name, err))
	}

	counter(&m.RunsTotal, "pipeline_runs_total", "Pipeline runs by outcome")
	seconds(&m.StageDuration, "pipeline_stage_duration_seconds", "Duration of each pipeline stage")
	counter(&m.ReshapeRecords, "reshape_records_total", "Long records produced by the reshaper")
	counter(&m.CountriesDropped, "reshape_countries_dropped_total", "Countries removed by the missing-value policy")
	counter(&m.CellsImputed, "reshape_cells_imputed_total", "Missing cells filled with the country mean")
	counter(&m.HTTPRequestsTotal, "http_requests_total", "HTTP requests by route and status")
	seconds(&m.HTTPRequestDuration, "http_request_duration_seconds", "HTTP request duration")

	g, err := meter.Int64Gauge("canonical_rows", metric.WithDescription("Rows in the most recent canonical table"))
	m.CanonicalRows = g
	errs = append(errs, wrapInstrument("canonical_rows", err))

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &m, nil
}

func wrapInstrument(name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("instrument %s: %w", name, err)
}
