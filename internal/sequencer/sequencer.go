// Package sequencer enforces latest-request-wins for one kind of operation.
//
// Every attempt takes a Ticket from Begin. Starting a new attempt, or calling
// Cancel, advances the counter and aborts the previous attempt's context. A
// finished attempt hands its result to Resolve, which applies it only while
// its ticket is still the newest one. The ticket comparison and the apply
// function run under the same lock, so no later attempt can slip in between.
//
// Contexts aborted by a sequencer carry ErrSuperseded or ErrCancelled as
// their cause. Neither is meant to be shown to a user.
package sequencer

import (
	"context"
	"errors"
	"sync"
)

// State is the lifecycle position of an attempt.
type State int

const (
	Idle State = iota
	InFlight
	Resolved
	Superseded
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case InFlight:
		return "in-flight"
	case Resolved:
		return "resolved"
	case Superseded:
		return "superseded"
	default:
		return "unknown"
	}
}

// Ticket identifies one attempt. Tickets from one Sequencer strictly
// increase.
type Ticket uint64

var (
	// ErrSuperseded is the cancel cause of an attempt replaced by a newer one.
	ErrSuperseded = errors.New("superseded by a newer request")
	// ErrCancelled is the cancel cause of an attempt aborted by Cancel.
	ErrCancelled = errors.New("request cancelled")
)

// Sequencer orders attempts of one operation type. The zero value is ready
// to use. A Sequencer must not be copied after first use.
type Sequencer struct {
	mu      sync.Mutex
	counter Ticket
	cancel  context.CancelCauseFunc
	state   State
}

// Begin starts a new attempt. The previous attempt, if any, is aborted with
// ErrSuperseded. The returned context is derived from ctx and must be used
// for all work belonging to the attempt.
func (s *Sequencer) Begin(ctx context.Context) (Ticket, context.Context) {
	attemptCtx, cancel := context.WithCancelCause(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel(ErrSuperseded)
	}
	s.counter++
	s.cancel = cancel
	s.state = InFlight
	return s.counter, attemptCtx
}

// Resolve applies a finished attempt's result. apply runs under the
// sequencer lock only when t is still current, and Resolved is returned.
// Otherwise apply is not called and Superseded is returned. apply may be nil
// and must not call back into the Sequencer.
func (s *Sequencer) Resolve(t Ticket, apply func()) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t != s.counter || s.state != InFlight {
		return Superseded
	}
	if apply != nil {
		apply()
	}
	s.state = Resolved
	if s.cancel != nil {
		s.cancel(nil)
		s.cancel = nil
	}
	return Resolved
}

// Report runs fn under the sequencer lock while t is current and unresolved,
// for progress updates that must not outlive their attempt. It reports
// whether fn ran.
func (s *Sequencer) Report(t Ticket, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t != s.counter || s.state != InFlight {
		return false
	}
	fn()
	return true
}

// Cancel aborts the in-flight attempt, if any, and invalidates every ticket
// issued so far.
func (s *Sequencer) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel(ErrCancelled)
		s.cancel = nil
	}
	s.counter++
	s.state = Idle
}

// IsCurrent reports whether t is the newest unresolved ticket.
func (s *Sequencer) IsCurrent(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return t == s.counter && s.state == InFlight
}

// State reports the state of the newest attempt.
func (s *Sequencer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current returns the counter value.
func (s *Sequencer) Current() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counter
}

// WasSuperseded reports whether ctx was aborted by a sequencer rather than
// by its parent or a timer.
func WasSuperseded(ctx context.Context) bool {
	cause := context.Cause(ctx)
	return errors.Is(cause, ErrSuperseded) || errors.Is(cause, ErrCancelled)
}
