// internal/workflow/workflow.go
//
// Submission orchestrator.
//
// Context
// -------
// One Orchestrator drives one form through
//
//	Idle → Validating → (Invalid | Submitting) → (Succeeded | Rejected | Failed) → Idle
//
// It owns no DOM.  Everything it touches goes through View, every delay
// through clock.Clock, every request through Transport, and every toast
// through Notifier, so the whole machine runs against in-memory fixtures in
// tests and against a parsed HTML document in the headless driver.
//
// Ordering
// --------
// • Error clearing precedes validation (form.Validator.Validate).
// • The submit control is disabled before dispatch is scheduled.
// • The control is re-enabled before the outcome toast is shown, on every
//   exit path.
//
// Notes
// -----
// • All view mutation happens under mu.  The network call does not.
// • A second Submit while one is in flight is not refused; the disabled
//   control is the only guard.
// • Oxford commas, two spaces after periods.
package workflow

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/adept-booking/internal/clock"
	"github.com/yanizio/adept-booking/internal/form"
	"github.com/yanizio/adept-booking/internal/notify"
)

// Toast texts.
const (
	MsgSucceeded = "Message sent successfully!"
	MsgRejected  = "An error occurred. Please try again."
	MsgFailed    = "Network error. Please check your connection and try again."
)

// Default timings and destinations.
const (
	DefaultDispatchDelay = 800 * time.Millisecond
	DefaultRedirectDelay = 1500 * time.Millisecond
	DefaultRedirectURL   = "/thank-you"
)

// Control is the submit button.
type Control interface {
	Disable() // busy: disabled, spinner, "Sending..."
	Enable()  // restore the original label
}

// View is everything the orchestrator needs from a page.
type View interface {
	form.Form
	SubmitControl() (Control, bool)
	FormData() []form.Pair
	Navigate(url string)
}

// Transport delivers a submission.  It never returns an error; failures are
// folded into form.Result.
type Transport interface {
	Send(ctx context.Context, s form.Submission) form.Result
}

// Notifier shows toasts.
type Notifier interface {
	Show(text string, sev notify.Severity) notify.ID
}

// State is the orchestrator's current phase.
type State int

const (
	Idle State = iota
	Validating
	Invalid
	Submitting
	Succeeded
	Rejected
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Invalid:
		return "invalid"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Rejected:
		return "rejected"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Config holds timings and the confirmation destination.  Zero fields take
// the defaults.
type Config struct {
	DispatchDelay time.Duration
	RedirectDelay time.Duration
	RedirectURL   string
}

func (c Config) withDefaults() Config {
	if c.DispatchDelay <= 0 {
		c.DispatchDelay = DefaultDispatchDelay
	}
	if c.RedirectDelay <= 0 {
		c.RedirectDelay = DefaultRedirectDelay
	}
	if c.RedirectURL == "" {
		c.RedirectURL = DefaultRedirectURL
	}
	return c
}

// Deps bundles collaborators.  Validator, Clock, and Log may be nil.
type Deps struct {
	View      View
	Transport Transport
	Notifier  Notifier
	Validator *form.Validator
	Clock     clock.Clock
	Log       *zap.SugaredLogger
	// OnState, when set, observes every transition.  It runs under the
	// orchestrator lock and must not call back into it.
	OnState func(from, to State)
}

// Orchestrator runs the submit workflow for one form.
type Orchestrator struct {
	cfg       Config
	view      View
	transport Transport
	notifier  Notifier
	validator *form.Validator
	clk       clock.Clock
	log       *zap.SugaredLogger
	onState   func(from, to State)

	mu    sync.Mutex
	state State
}

// New wires an Orchestrator.
func New(cfg Config, d Deps) *Orchestrator {
	o := &Orchestrator{
		cfg:       cfg.withDefaults(),
		view:      d.View,
		transport: d.Transport,
		notifier:  d.Notifier,
		validator: d.Validator,
		clk:       d.Clock,
		log:       d.Log,
		onState:   d.OnState,
	}
	if o.validator == nil {
		o.validator = form.NewValidator()
	}
	if o.clk == nil {
		o.clk = clock.Real()
	}
	if o.log == nil {
		o.log = zap.NewNop().Sugar()
	}
	return o
}

// State returns the current phase.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// setState records a transition.  Caller holds mu.
func (o *Orchestrator) setState(s State) {
	from := o.state
	o.state = s
	if o.onState != nil {
		o.onState(from, s)
	}
}

// Submit handles a submit event.  Invalid attempts come back already done.
// ctx is used for the outbound request only.
func (o *Orchestrator) Submit(ctx context.Context) *Attempt {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.setState(Validating)
	verdict := o.validator.Validate(o.view)
	att := newAttempt(verdict)

	if !verdict.Valid {
		o.setState(Invalid)
		o.setState(Idle)
		o.log.Infow("submit blocked", "errors", len(verdict.Errors), "trapped", verdict.Trapped)
		att.finish(form.Result{Outcome: form.OutcomeInvalid})
		return att
	}

	ctrl, hasCtrl := o.view.SubmitControl()
	if hasCtrl {
		ctrl.Disable()
	}
	o.setState(Submitting)

	o.clk.AfterFunc(o.cfg.DispatchDelay, func() {
		o.dispatch(ctx, ctrl, hasCtrl, att)
	})
	return att
}

// dispatch sends the form and reports the outcome.
func (o *Orchestrator) dispatch(ctx context.Context, ctrl Control, hasCtrl bool, att *Attempt) {
	o.mu.Lock()
	sub := form.NewSubmission(o.view.FormData())
	o.mu.Unlock()

	start := o.clk.Now()
	res := o.transport.Send(ctx, sub)

	o.mu.Lock()
	defer o.mu.Unlock()

	if hasCtrl {
		ctrl.Enable()
	}

	switch res.Outcome {
	case form.OutcomeSucceeded:
		o.setState(Succeeded)
		o.notifier.Show(MsgSucceeded, notify.Success)
		url := o.cfg.RedirectURL
		o.clk.AfterFunc(o.cfg.RedirectDelay, func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			o.view.Navigate(url)
		})
		o.log.Infow("submit succeeded", "fields", len(sub.Pairs), "took", o.clk.Now().Sub(start))
	case form.OutcomeRejected:
		o.setState(Rejected)
		o.notifier.Show(MsgRejected, notify.Danger)
		o.log.Warnw("submit rejected", "server_message", res.Message)
	default:
		if res.Outcome != form.OutcomeFailed {
			res = form.Failed(res.Err)
		}
		o.setState(Failed)
		o.notifier.Show(MsgFailed, notify.Danger)
		o.log.Errorw("submit failed", "error", res.Err)
	}

	o.setState(Idle)
	att.finish(res)
}

// Blur handles a blur event on id.  A non-empty (trimmed) value clears every
// error and re-validates the whole form; an empty or absent field does
// nothing.  It reports whether a validation pass ran.
func (o *Orchestrator) Blur(id form.FieldID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	f, ok := o.view.FindField(id)
	if !ok || strings.TrimSpace(f.Value()) == "" {
		return false
	}
	o.validator.Validate(o.view)
	return true
}
