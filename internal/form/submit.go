// internal/form/submit.go
//
// Adept Booking – Forms subsystem: consolidated server-side check.
//
// Context
//   The process handler wants one call that verifies the form-level meta
//   fields (CSRF, render timestamp), runs the same rules the page ran, and
//   returns the clean map or an error it can classify.  CheckSubmission
//   provides that so component code stays terse.
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"strings"
	"time"
)

// ErrTrapped marks a submission whose honeypot was filled.  Callers answer
// it silently.
var ErrTrapped = errors.New("form: honeypot filled")

// Guard holds the form-level checks.
type Guard struct {
	CSRF    *CSRF         // nil skips the token check
	MinFill time.Duration // zero skips the too-fast check
	Now     func() time.Time
}

// CheckSubmission validates values against fd.  On success it returns the
// declared fields, trimmed, plus the form ID.  On failure it returns
// ErrTrapped or a validation error (check with IsValidationError).
func CheckSubmission(fd *FormDef, values map[string]string, g Guard) (map[string]string, error) {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}

	// -------------------------------------------------------------------------
	// Form-level checks: honeypot first so bots learn nothing from meta errors
	// -------------------------------------------------------------------------
	posted := Posted{Def: fd, Values: values}
	verdict := NewValidator().Check(posted)
	if verdict.Trapped {
		return nil, ErrTrapped
	}

	if g.CSRF != nil && !g.CSRF.Verify(values[MetaCSRF]) {
		return nil, validationError{Fields: []ErrorField{{"", "Security token invalid.  Please refresh and try again."}}}
	}
	if msg := CheckTiming(values[MetaRenderTS], now(), g.MinFill); msg != "" {
		return nil, validationError{Fields: []ErrorField{{"", msg}}}
	}

	// -------------------------------------------------------------------------
	// Per-field rules
	// -------------------------------------------------------------------------
	if !verdict.Valid {
		return nil, validationError{Fields: verdict.Errors}
	}

	clean := make(map[string]string, len(fd.Fields)+1)
	for _, f := range fd.Fields {
		if f.Name == FieldHoneypot {
			continue
		}
		v := values[f.Name.Key()]
		if f.Type == "checkbox" {
			if v != "" && v != "false" {
				clean[f.Name.Key()] = "yes"
			}
			continue
		}
		clean[f.Name.Key()] = strings.TrimSpace(v)
	}
	clean[MetaFormID] = fd.ID
	return clean, nil
}
