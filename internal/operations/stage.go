package operations

import (
	"sync"
	"time"

	"gapminder/pkg/contracts/domain"
)

// StepState represents the runtime state of a step. Each step is written by
// exactly one goroutine; the mutex guards readers taking snapshots.
type StepState struct {
	mu        sync.RWMutex
	id        string
	status    domain.StepStatus
	startTime time.Time
	endTime   time.Time
	message   string
	err       error
}

// StepSnapshot is a point-in-time copy of a StepState.
type StepSnapshot struct {
	ID       string            `json:"id"`
	Status   domain.StepStatus `json:"status"`
	Duration time.Duration     `json:"duration"`
	Message  string            `json:"message,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// NewStepState creates a pending step.
func NewStepState(id string) *StepState {
	return &StepState{id: id, status: domain.StepStatusPending}
}

// ID returns the step identifier.
func (s *StepState) ID() string { return s.id }

// Start marks the step as active and sets the start time
func (s *StepState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startTime = time.Now()
	s.status = domain.StepStatusActive
}

// Complete marks the step as completed and sets the end time
func (s *StepState) Complete(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endTime = time.Now()
	s.status = domain.StepStatusCompleted
	s.message = message
}

// Fail marks the step as failed with the given error
func (s *StepState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endTime = time.Now()
	s.status = domain.StepStatusFailed
	s.err = err
}

// Skip marks the step as skipped with the given reason
func (s *StepState) Skip(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = domain.StepStatusSkipped
	s.message = reason
}

// Status returns the current status.
func (s *StepState) Status() domain.StepStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Duration returns the duration of the step execution
func (s *StepState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.duration()
}

func (s *StepState) duration() time.Duration {
	if s.startTime.IsZero() {
		return 0
	}
	if !s.endTime.IsZero() {
		return s.endTime.Sub(s.startTime)
	}
	return time.Since(s.startTime)
}

// Snapshot copies the step for reporting.
func (s *StepState) Snapshot() StepSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := StepSnapshot{
		ID:       s.id,
		Status:   s.status,
		Duration: s.duration(),
		Message:  s.message,
	}
	if s.err != nil {
		snap.Error = s.err.Error()
	}
	return snap
}
