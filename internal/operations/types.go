package operations

import (
	"time"

	"gapminder/internal/dataprocessing"
	"gapminder/pkg/contracts/domain"
)

// Step identifiers. Per-source steps are suffixed with ":<indicator>".
const (
	StepLoad    = "load"
	StepReshape = "reshape"
	StepAlign   = "align"
	StepExport  = "export"
)

// Default limits
const (
	DefaultMaxParallel = 4
	DefaultRunTimeout  = 5 * time.Minute
)

// StepID returns the identifier of a per-source step.
func StepID(step string, ind domain.Indicator) string {
	return step + ":" + string(ind)
}

// SourceSpec names one wide input table and how to reshape it.
type SourceSpec struct {
	Indicator domain.Indicator `json:"indicator"`
	Path      string           `json:"path"`
	Sheet     string           `json:"sheet,omitempty"`
	Impute    bool             `json:"impute"`
}

// SourceFailure is one source that did not reach the aligner.
type SourceFailure struct {
	Indicator domain.Indicator `json:"indicator"`
	Step      string           `json:"step"`
	Error     string           `json:"error"`
}

// SinkFailure is one sink that rejected the result.
type SinkFailure struct {
	Sink  string `json:"sink"`
	Error string `json:"error"`
}

// RunReport summarizes a pipeline run.
type RunReport struct {
	RunID         string                        `json:"run_id"`
	Status        domain.RunStatus              `json:"status"`
	StartedAt     time.Time                     `json:"started_at"`
	Duration      time.Duration                 `json:"duration"`
	Sources       []dataprocessing.ReshapeStats `json:"sources"`
	Steps         []StepSnapshot                `json:"steps"`
	CanonicalRows int                           `json:"canonical_rows"`
	EmptyResult   bool                          `json:"empty_result"`
	Failures      []SourceFailure               `json:"failures,omitempty"`
	SinkFailures  []SinkFailure                 `json:"sink_failures,omitempty"`

	// Result is nil unless alignment ran.
	Result *domain.RunResult `json:"-"`
}

// Record flattens the report into a history entry.
func (r *RunReport) Record() domain.RunRecord {
	rec := domain.RunRecord{
		RunID:         r.RunID,
		Status:        r.Status,
		StartedAt:     r.StartedAt,
		Duration:      r.Duration,
		Sources:       len(r.Sources) + len(r.Failures),
		CanonicalRows: r.CanonicalRows,
		EmptyResult:   r.EmptyResult,
	}
	for _, f := range r.Failures {
		rec.Failures = append(rec.Failures, f.Step+": "+f.Error)
	}
	for _, f := range r.SinkFailures {
		rec.Failures = append(rec.Failures, StepExport+":"+f.Sink+": "+f.Error)
	}
	return rec
}

// Succeeded reports whether every source aligned and every sink accepted
// the result.
func (r *RunReport) Succeeded() bool {
	return r.Status == domain.RunStatusCompleted && len(r.SinkFailures) == 0
}
