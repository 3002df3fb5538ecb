package domain

import (
	"time"
)

// RunStatus is the terminal state of a pipeline run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// StepStatus represents the status of a step
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// RunResult is what a successful run hands to its sinks.
type RunResult struct {
	RunID     string          `json:"run_id"`
	StartedAt time.Time       `json:"started_at"`
	Window    Window          `json:"window"`
	Reshaped  []ReshapedTable `json:"reshaped"`
	Canonical CanonicalTable  `json:"canonical"`
}

// RunRecord is the persisted history entry of one run.
type RunRecord struct {
	RunID         string        `json:"run_id" db:"run_id"`
	Status        RunStatus     `json:"status" db:"status"`
	StartedAt     time.Time     `json:"started_at" db:"started_at_ns"`
	Duration      time.Duration `json:"duration" db:"duration_ms"`
	Sources       int           `json:"sources" db:"sources"`
	CanonicalRows int           `json:"canonical_rows" db:"canonical_rows"`
	EmptyResult   bool          `json:"empty_result" db:"empty_result"`
	Failures      []string      `json:"failures,omitempty" db:"failures"`
}
