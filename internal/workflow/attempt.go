package workflow

import (
	"context"
	"sync"

	"github.com/yanizio/adept-booking/internal/form"
)

// Attempt tracks one Submit call.
type Attempt struct {
	verdict form.Verdict
	done    chan struct{}

	mu  sync.Mutex
	res form.Result
}

func newAttempt(v form.Verdict) *Attempt {
	return &Attempt{verdict: v, done: make(chan struct{})}
}

func (a *Attempt) finish(r form.Result) {
	a.mu.Lock()
	a.res = r
	a.mu.Unlock()
	close(a.done)
}

// Done is closed once the outcome is known and shown.
func (a *Attempt) Done() <-chan struct{} { return a.done }

// Verdict is the validation result that started the attempt.
func (a *Attempt) Verdict() form.Verdict { return a.verdict }

// Result is the final outcome; Outcome is OutcomeNone while in flight.
func (a *Attempt) Result() form.Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.res
}

// Outcome is shorthand for Result().Outcome.
func (a *Attempt) Outcome() form.Outcome { return a.Result().Outcome }

// Wait blocks until the attempt is done or ctx ends.
func (a *Attempt) Wait(ctx context.Context) (form.Result, error) {
	select {
	case <-a.done:
		return a.Result(), nil
	case <-ctx.Done():
		return form.Result{}, ctx.Err()
	}
}
