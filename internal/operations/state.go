package operations

import (
	"sync"
	"time"

	"gapminder/pkg/contracts/domain"
)

// RunState tracks the steps of one run in declaration order.
type RunState struct {
	mu        sync.RWMutex
	id        string
	status    domain.RunStatus
	startTime time.Time
	order     []string
	steps     map[string]*StepState
}

// NewRunState creates the state of a run with every step pending.
func NewRunState(id string, stepIDs []string) *RunState {
	rs := &RunState{
		id:        id,
		status:    domain.RunStatusRunning,
		startTime: time.Now(),
		order:     append([]string(nil), stepIDs...),
		steps:     make(map[string]*StepState, len(stepIDs)),
	}
	for _, sid := range stepIDs {
		rs.steps[sid] = NewStepState(sid)
	}
	return rs
}

// ID returns the run identifier.
func (r *RunState) ID() string { return r.id }

// StartTime returns when the run began.
func (r *RunState) StartTime() time.Time { return r.startTime }

// Step returns the state of a step, or nil for an unknown id.
func (r *RunState) Step(id string) *StepState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.steps[id]
}

// Finish sets the terminal status.
func (r *RunState) Finish(status domain.RunStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = status
}

// Status returns the run status.
func (r *RunState) Status() domain.RunStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// SkipPending marks every step that never started as skipped.
func (r *RunState) SkipPending(reason string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, sid := range r.order {
		if s := r.steps[sid]; s.Status() == domain.StepStatusPending {
			s.Skip(reason)
		}
	}
}

// Snapshots returns every step in declaration order.
func (r *RunState) Snapshots() []StepSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]StepSnapshot, 0, len(r.order))
	for _, sid := range r.order {
		out = append(out, r.steps[sid].Snapshot())
	}
	return out
}

// RunProgress is a point-in-time view of a run, served while it executes
// and after it finishes.
type RunProgress struct {
	RunID     string           `json:"run_id"`
	Status    domain.RunStatus `json:"status"`
	StartedAt time.Time        `json:"started_at"`
	Steps     []StepSnapshot   `json:"steps"`
}

// Progress returns the run status together with every step snapshot.
func (r *RunState) Progress() RunProgress {
	return RunProgress{
		RunID:     r.id,
		Status:    r.Status(),
		StartedAt: r.startTime,
		Steps:     r.Snapshots(),
	}
}
