package operations

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"gapminder/internal/dataprocessing"
	"gapminder/internal/infrastructure"
)

const (
	TracerName = "gapminder.operations"
)

// PipelineTracer provides OpenTelemetry instrumentation for pipeline runs
type PipelineTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// NewPipelineTracer creates a tracer backed by the given providers. A nil
// providers value uses the global tracer and no-op metrics.
func NewPipelineTracer(providers *infrastructure.OTelProviders) (*PipelineTracer, error) {
	tracer := otel.Tracer(TracerName)
	meter := otel.GetMeterProvider().Meter(TracerName)
	if providers != nil {
		tracer = providers.Tracer
		meter = providers.Meter
	}

	metrics, err := infrastructure.CreatePipelineMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}
	return &PipelineTracer{tracer: tracer, metrics: metrics}, nil
}

// TraceRun creates a span for the entire run
func (pt *PipelineTracer) TraceRun(ctx context.Context, runID string, sources int) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("run.sources", sources),
		),
	)
}

// TraceStep creates a span for one step
func (pt *PipelineTracer) TraceStep(ctx context.Context, runID, stepID string) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, "pipeline.step."+stepID,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("step.id", stepID),
		),
	)
}

// RecordStepCompletion ends a step span and records its duration.
func (pt *PipelineTracer) RecordStepCompletion(ctx context.Context, span trace.Span, step string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.SetAttributes(attribute.Float64("step.duration_seconds", duration.Seconds()))

	pt.metrics.StageDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("stage", step),
			attribute.String("status", status),
		),
	)
	span.End()
}

// RecordReshape adds the reshape counters for one source.
func (pt *PipelineTracer) RecordReshape(ctx context.Context, stats dataprocessing.ReshapeStats) {
	attrs := metric.WithAttributes(attribute.String("indicator", string(stats.Indicator)))
	pt.metrics.ReshapeRecords.Add(ctx, int64(stats.Records), attrs)
	pt.metrics.CountriesDropped.Add(ctx, int64(len(stats.CountriesDropped)), attrs)
	pt.metrics.CellsImputed.Add(ctx, int64(stats.CellsImputed), attrs)

	trace.SpanFromContext(ctx).AddEvent("reshape.completed", trace.WithAttributes(
		attribute.String("indicator", string(stats.Indicator)),
		attribute.Int("records", stats.Records),
		attribute.Int("countries_dropped", len(stats.CountriesDropped)),
		attribute.Int("cells_imputed", stats.CellsImputed),
	))
}

// RecordRunCompletion ends the run span and records the outcome.
func (pt *PipelineTracer) RecordRunCompletion(ctx context.Context, span trace.Span, report *RunReport) {
	span.SetAttributes(
		attribute.String("run.status", string(report.Status)),
		attribute.Int("run.canonical_rows", report.CanonicalRows),
		attribute.Bool("run.empty_result", report.EmptyResult),
		attribute.Float64("run.duration_seconds", report.Duration.Seconds()),
	)

	pt.metrics.RunsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(report.Status))))
	if report.Result != nil {
		pt.metrics.CanonicalRows.Record(ctx, int64(report.CanonicalRows))
	}

	if report.Succeeded() {
		span.SetStatus(codes.Ok, "run completed")
	} else {
		span.SetStatus(codes.Error, fmt.Sprintf("run finished with status %s", report.Status))
	}
	span.End()
}
