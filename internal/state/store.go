package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/brickguide/internal/grid"
	"github.com/five82/brickguide/internal/guide"
)

// Status is the badge shown for an operation.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Retry describes the retry currently being waited on.
type Retry struct {
	Attempt     int
	MaxAttempts int
	Delay       time.Duration
	Reason      string
}

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Status    Status
	Guide     *guide.Payload
	Grid      grid.Grid
	HasGuide  bool
	LastError error
	Retry     *Retry

	StepsStatus Status
	Steps       []guide.Step
	StepsError  error

	LastUpdated         time.Time
	ConsecutiveFailures int // transient analysis failures in a row
}

// IsOffline reports whether the service has looked unreachable for several
// attempts in a row.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Busy reports whether any request is running.
func (s Snapshot) Busy() bool {
	return s.Status == StatusRunning || s.StepsStatus == StatusRunning
}

// Store coordinates concurrent updates to the snapshot. The zero value is
// idle and ready to use.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// BeginAnalysis marks an analysis as running. Steps belong to the previous
// guide and are dropped; the previous guide stays visible until replaced.
func (s *Store) BeginAnalysis() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Status = StatusRunning
	s.snapshot.LastError = nil
	s.snapshot.Retry = nil
	s.clearStepsLocked()
	s.touchLocked()
}

// SetGuide stores a successful analysis.
func (s *Store) SetGuide(p *guide.Payload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Status = StatusDone
	s.snapshot.Guide = p
	s.snapshot.HasGuide = p != nil
	s.snapshot.Grid = grid.Reconstruct(p.Document())
	s.snapshot.LastError = nil
	s.snapshot.Retry = nil
	s.snapshot.ConsecutiveFailures = 0
	s.touchLocked()
}

// FailAnalysis records a failed analysis. The previous guide is kept.
// Cancellations are not failures and are ignored.
func (s *Store) FailAnalysis(err error) {
	if err == nil || guide.IsCancelled(err) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Status = StatusError
	s.snapshot.LastError = err
	s.snapshot.Retry = nil
	if e, ok := guide.AsError(err); ok && e.Transient() {
		s.snapshot.ConsecutiveFailures++
	}
	s.touchLocked()
}

// NoteRetry records that a running request is waiting to retry.
func (s *Store) NoteRetry(ev guide.RetryEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := &Retry{Attempt: ev.Attempt, MaxAttempts: ev.MaxAttempts, Delay: ev.Delay}
	if ev.Err != nil {
		r.Reason = string(ev.Err.Kind)
	}
	s.snapshot.Retry = r
	s.touchLocked()
}

// BeginSteps marks step generation as running.
func (s *Store) BeginSteps() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.StepsStatus = StatusRunning
	s.snapshot.Steps = nil
	s.snapshot.StepsError = nil
	s.snapshot.Retry = nil
	s.touchLocked()
}

// SetSteps stores generated steps.
func (s *Store) SetSteps(steps []guide.Step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.StepsStatus = StatusDone
	s.snapshot.Steps = cloneSteps(steps)
	s.snapshot.StepsError = nil
	s.snapshot.Retry = nil
	s.touchLocked()
}

// SetStepsFor stores steps only while g is still the current guide, and
// reports whether they were stored.
func (s *Store) SetStepsFor(g *guide.Payload, steps []guide.Step) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g == nil || s.snapshot.Guide != g {
		return false
	}
	s.snapshot.StepsStatus = StatusDone
	s.snapshot.Steps = cloneSteps(steps)
	s.snapshot.StepsError = nil
	s.snapshot.Retry = nil
	s.touchLocked()
	return true
}

// FailSteps records a failed step generation. Cancellations are ignored.
func (s *Store) FailSteps(err error) {
	if err == nil || guide.IsCancelled(err) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.StepsStatus = StatusError
	s.snapshot.StepsError = err
	s.snapshot.Retry = nil
	s.touchLocked()
}

// Clear forgets the guide, steps and errors after an input change.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	failures := s.snapshot.ConsecutiveFailures
	s.snapshot = Snapshot{
		Status:              StatusIdle,
		StepsStatus:         StatusIdle,
		ConsecutiveFailures: failures,
	}
	s.touchLocked()
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	if snap.Status == "" {
		snap.Status = StatusIdle
	}
	if snap.StepsStatus == "" {
		snap.StepsStatus = StatusIdle
	}
	snap.Steps = cloneSteps(s.snapshot.Steps)
	snap.Grid.Cells = append([]string(nil), s.snapshot.Grid.Cells...)
	if s.snapshot.Retry != nil {
		r := *s.snapshot.Retry
		snap.Retry = &r
	}
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	if s.snapshot.StepsError != nil {
		snap.StepsError = fmt.Errorf("%w", s.snapshot.StepsError)
	}
	return snap
}

func (s *Store) clearStepsLocked() {
	s.snapshot.StepsStatus = StatusIdle
	s.snapshot.Steps = nil
	s.snapshot.StepsError = nil
}

func (s *Store) touchLocked() {
	s.snapshot.LastUpdated = time.Now()
}

func cloneSteps(steps []guide.Step) []guide.Step {
	if len(steps) == 0 {
		return nil
	}
	dup := make([]guide.Step, len(steps))
	copy(dup, steps)
	return dup
}
