package main

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/text/message"
)

// Request is a submission accepted by the orchestrator and waiting to be executed
type Request struct {
	Ticket Ticket
	ctx    context.Context
}

// Completion is the outcome of executing a Request. It is applied back on the
// owning goroutine with Complete.
type Completion struct {
	Ticket   Ticket
	Result   *RiskAssessment
	Err      error
	Duration time.Duration
}

// Orchestrator owns one risk assessment screen: the query text, the request
// lifecycle, animation values and the active tab. It is created on mount and
// released with Destroy on unmount. Every method except Execute must be
// called from the owning goroutine.
type Orchestrator struct {
	analyzer  Analyzer
	lifecycle *Lifecycle
	anim      *AnimationCoordinator
	tabs      *TabSelector
	printer   *message.Printer
	logger    *log.Logger

	query ProtocolQuery

	ctx    context.Context
	cancel context.CancelFunc
}

// OrchestratorOptions configures NewOrchestrator
type OrchestratorOptions struct {
	Analyzer    Analyzer
	Logger      *log.Logger
	Locale      string
	LayoutWidth float64
	SnapAnim    bool
}

// NewOrchestrator mounts a screen in Idle
func NewOrchestrator(opts OrchestratorOptions) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	ctx, cancel := context.WithCancel(context.Background())

	o := &Orchestrator{
		analyzer:  opts.Analyzer,
		lifecycle: NewLifecycle(),
		anim:      NewAnimationCoordinator(AnimationFPS, opts.LayoutWidth, opts.SnapAnim),
		tabs:      NewTabSelector(),
		printer:   NewNumberPrinter(opts.Locale),
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
	o.lifecycle.OnTransition(o.anim.OnTransition)
	o.lifecycle.OnTransition(o.logTransition)
	return o
}

// SetQuery records the user's current input
func (o *Orchestrator) SetQuery(raw string) {
	o.query = ProtocolQuery(raw)
}

// Query returns the current input
func (o *Orchestrator) Query() string {
	return string(o.query)
}

// CanSubmit reports whether the submit control is enabled: the input
// validates and no request is in flight.
func (o *Orchestrator) CanSubmit() bool {
	if o.lifecycle.Destroyed() || o.lifecycle.InFlight() {
		return false
	}
	_, err := ValidateQuery(o.query)
	return err == nil
}

// Submit validates the current input and moves to Submitting. It returns nil
// with a *ValidationError when the input is refused, and nil with no error
// when a request is already in flight.
func (o *Orchestrator) Submit() (*Request, error) {
	if o.lifecycle.Destroyed() {
		return nil, nil
	}
	if o.lifecycle.InFlight() {
		o.logger.Debug("submit ignored, request in flight", "request", o.lifecycle.State().RequestID)
		return nil, nil
	}

	q, err := ValidateQuery(o.query)
	if err != nil {
		o.logger.Debug("submit refused", "err", err)
		return nil, err
	}

	ticket, ok := o.lifecycle.Begin(q)
	if !ok {
		return nil, nil
	}
	return &Request{Ticket: ticket, ctx: o.ctx}, nil
}

// Execute runs the analysis for req. It touches no orchestrator state and is
// safe to call from another goroutine; the returned Completion goes back
// through Complete.
func (o *Orchestrator) Execute(req *Request) Completion {
	start := time.Now()
	result, err := o.analyzer.Analyze(req.ctx, req.Ticket.Query)
	return Completion{
		Ticket:   req.Ticket,
		Result:   result,
		Err:      err,
		Duration: time.Since(start),
	}
}

// Complete applies a finished request. A completion without error or result
// lands in Failure. Completions for a destroyed screen or for a ticket that is
// no longer in flight are dropped and false is returned.
func (o *Orchestrator) Complete(c Completion) bool {
	if o.lifecycle.Destroyed() {
		return false
	}

	var applied bool
	switch {
	case c.Err != nil:
		applied = o.lifecycle.Reject(c.Ticket, c.Err)
	case c.Result == nil:
		applied = o.lifecycle.Reject(c.Ticket, newAnalysisError(AnalysisInvalid, o.analyzer.Name(), errors.New("empty assessment")))
	default:
		// The lifecycle holds its own copy; the analyzer may reuse its value
		applied = o.lifecycle.Resolve(c.Ticket, c.Result.Clone())
	}

	if !applied {
		o.logger.Debug("stale completion dropped", "request", c.Ticket.ID)
	}
	return applied
}

// Run submits raw and waits for the outcome on the calling goroutine. It is
// the headless path; the TUI splits it into Submit, Execute and Complete.
// Canceling ctx cancels the request, which then lands in Failure.
func (o *Orchestrator) Run(ctx context.Context, raw string) (RequestState, error) {
	o.SetQuery(raw)
	req, err := o.Submit()
	if err != nil {
		return o.State(), err
	}
	if req == nil {
		return o.State(), nil
	}

	rctx, cancel := context.WithCancel(req.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	req.ctx = rctx

	o.Complete(o.Execute(req))
	return o.State(), o.State().Err
}

// State returns the current lifecycle state
func (o *Orchestrator) State() RequestState {
	return o.lifecycle.State()
}

// Report returns the display view of the current result, or false when the
// state is not Success.
func (o *Orchestrator) Report() (ReportView, bool) {
	st := o.lifecycle.State()
	if st.Phase != PhaseSuccess || st.Result == nil {
		return ReportView{}, false
	}
	return NewReportView(st.Result, o.printer), true
}

// Animation exposes the coordinator to the renderer
func (o *Orchestrator) Animation() *AnimationCoordinator {
	return o.anim
}

// Tabs exposes the tab selector
func (o *Orchestrator) Tabs() *TabSelector {
	return o.tabs
}

// AnalyzerName names the backend for the status line
func (o *Orchestrator) AnalyzerName() string {
	return o.analyzer.Name()
}

// Destroy unmounts the screen: the in-flight request is canceled and any
// late completion becomes a no-op.
func (o *Orchestrator) Destroy() {
	o.cancel()
	o.lifecycle.Destroy()
}

func (o *Orchestrator) logTransition(from, to RequestState) {
	kv := []any{"from", from.Phase, "to", to.Phase, "request", to.RequestID}
	switch to.Phase {
	case PhaseSubmitting:
		o.logger.Info("analysis submitted", append(kv, "protocol", to.Query.String(), "backend", o.analyzer.Name())...)
	case PhaseSuccess:
		if to.Result != nil {
			kv = append(kv, "score", to.Result.Score, "level", to.Result.Level)
		}
		o.logger.Info("analysis resolved", kv...)
	case PhaseFailure:
		o.logger.Warn("analysis failed", append(kv, "err", to.Err)...)
	}
}
