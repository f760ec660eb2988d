// internal/form/result.go
//
// Adept Booking – Forms subsystem: submission outcomes.

package form

import "fmt"

// Outcome tags how one attempt ended.
type Outcome int

const (
	OutcomeNone      Outcome = iota // attempt still in flight
	OutcomeInvalid                  // validation failed, nothing sent
	OutcomeSucceeded                // server answered success:true
	OutcomeRejected                 // server answered, but not success:true
	OutcomeFailed                   // transport error, non-2xx, or unparsable body
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInvalid:
		return "invalid"
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeRejected:
		return "rejected"
	case OutcomeFailed:
		return "failed"
	default:
		return "none"
	}
}

// Result is the tagged outcome of the network call.  Message holds the
// server's text for Rejected; it is logged, never shown.  Err is set for
// Failed.
type Result struct {
	Outcome Outcome
	Message string
	Err     error
}

// Succeeded builds a success result.
func Succeeded() Result { return Result{Outcome: OutcomeSucceeded} }

// Rejected builds a business-level failure.
func Rejected(msg string) Result { return Result{Outcome: OutcomeRejected, Message: msg} }

// Failed builds a transport failure.
func Failed(err error) Result { return Result{Outcome: OutcomeFailed, Err: err} }

func (r Result) String() string {
	switch r.Outcome {
	case OutcomeRejected:
		return fmt.Sprintf("rejected(%q)", r.Message)
	case OutcomeFailed:
		return fmt.Sprintf("failed(%v)", r.Err)
	default:
		return r.Outcome.String()
	}
}
