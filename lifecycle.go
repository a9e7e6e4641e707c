package main

import (
	"github.com/google/uuid"
)

// Phase is the tag of RequestState
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSubmitting
	PhaseSuccess
	PhaseFailure
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSuccess:
		return "success"
	case PhaseFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// RequestState is the lifecycle's tagged variant. Result is set only in
// PhaseSuccess and Err only in PhaseFailure.
type RequestState struct {
	Phase     Phase
	RequestID string
	Query     ValidProtocolQuery
	Result    *RiskAssessment
	Err       error
}

// Ticket identifies one submission; Resolve and Reject only apply to the
// ticket currently in flight.
type Ticket struct {
	ID    string
	Query ValidProtocolQuery
}

// TransitionFunc observes a transition after it has been applied
type TransitionFunc func(from, to RequestState)

// Lifecycle is the request state machine:
//
//	Idle|Success|Failure --Begin--> Submitting --Resolve--> Success
//	                                Submitting --Reject---> Failure
//
// It is owned by a single goroutine and created in Idle.
type Lifecycle struct {
	state     RequestState
	listeners []TransitionFunc
	destroyed bool
	newID     func() string
}

// NewLifecycle creates a state machine in Idle
func NewLifecycle() *Lifecycle {
	return &Lifecycle{
		state: RequestState{Phase: PhaseIdle},
		newID: uuid.NewString,
	}
}

// State returns the current state
func (l *Lifecycle) State() RequestState {
	return l.state
}

// Phase returns the tag of the current state
func (l *Lifecycle) Phase() Phase {
	return l.state.Phase
}

// InFlight reports whether a request is unresolved
func (l *Lifecycle) InFlight() bool {
	return l.state.Phase == PhaseSubmitting
}

// OnTransition registers fn to run synchronously after every transition
func (l *Lifecycle) OnTransition(fn TransitionFunc) {
	l.listeners = append(l.listeners, fn)
}

// Begin moves to Submitting, discarding any prior result or error. It refuses
// (returns false) while a request is in flight, for a zero query, or after Destroy.
func (l *Lifecycle) Begin(query ValidProtocolQuery) (Ticket, bool) {
	if l.destroyed || query.IsZero() || l.state.Phase == PhaseSubmitting {
		return Ticket{}, false
	}

	t := Ticket{ID: l.newID(), Query: query}
	l.transition(RequestState{Phase: PhaseSubmitting, RequestID: t.ID, Query: query})
	return t, true
}

// Resolve moves Submitting to Success(result) if t is the in-flight ticket
func (l *Lifecycle) Resolve(t Ticket, result *RiskAssessment) bool {
	if !l.accepts(t) {
		return false
	}
	l.transition(RequestState{Phase: PhaseSuccess, RequestID: t.ID, Query: t.Query, Result: result})
	return true
}

// Reject moves Submitting to Failure(err) if t is the in-flight ticket
func (l *Lifecycle) Reject(t Ticket, err error) bool {
	if !l.accepts(t) {
		return false
	}
	l.transition(RequestState{Phase: PhaseFailure, RequestID: t.ID, Query: t.Query, Err: err})
	return true
}

// Destroy releases the machine; every later call is a no-op
func (l *Lifecycle) Destroy() {
	l.destroyed = true
	l.listeners = nil
}

// Destroyed reports whether Destroy was called
func (l *Lifecycle) Destroyed() bool {
	return l.destroyed
}

func (l *Lifecycle) accepts(t Ticket) bool {
	return !l.destroyed &&
		l.state.Phase == PhaseSubmitting &&
		t.ID != "" &&
		t.ID == l.state.RequestID
}

func (l *Lifecycle) transition(to RequestState) {
	from := l.state
	l.state = to
	for _, fn := range l.listeners {
		fn(from, to)
	}
}
