// internal/form/validate.go
//
// Adept Booking – Forms subsystem: validation.
//
// Context
//   One Validator serves both sides of the workflow.  On the page it runs
//   against a view (dom.Document or a test fixture) and annotates every
//   failing field.  On the server it runs against Posted, a Finder over the
//   decoded JSON body, so the process endpoint enforces exactly the rules
//   the visitor saw.
//
// Workflow
//   •  Check evaluates every rule whose field is present.  No short-circuit,
//      so the visitor sees every problem at once.
//   •  Validate clears prior markers, calls Check, then marks each failing
//      field.  Silent rules (the honeypot) fail the verdict without a mark.
//   •  Server callers wrap Verdict.Errors in validationError and test for it
//      with IsValidationError.
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"strconv"
	"time"
)

// -----------------------------------------------------------------------------
// Error types
// -----------------------------------------------------------------------------

// ErrorField describes a single validation failure so the view can render a
// field-level message.
type ErrorField struct {
	Name    string // field name
	Message string // user-facing message
}

// validationError wraps []ErrorField and satisfies the error interface.
//
// It allows callers (process handler, driver) to distinguish user input
// errors from system failures via errors.As / IsValidationError.
type validationError struct{ Fields []ErrorField }

func (ve validationError) Error() string { return "form validation failed" }

// NewValidationError wraps fields as an error.
func NewValidationError(fields []ErrorField) error { return validationError{Fields: fields} }

// IsValidationError reports whether err came from failed validation.
func IsValidationError(err error) bool {
	var ve validationError
	return errors.As(err, &ve)
}

// ValidationFields extracts the field list from a validation error.
func ValidationFields(err error) []ErrorField {
	var ve validationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

// -----------------------------------------------------------------------------
// Validator
// -----------------------------------------------------------------------------

// Verdict is the outcome of one validation pass.
type Verdict struct {
	Valid   bool
	Errors  []ErrorField
	Trapped bool // honeypot filled
}

// Err returns nil for a valid verdict and a validation error otherwise.
func (v Verdict) Err() error {
	if v.Valid {
		return nil
	}
	return validationError{Fields: v.Errors}
}

// Validator evaluates a fixed rule set.
type Validator struct {
	rules []Rule
}

// NewValidator returns a Validator using the booking rules.
func NewValidator() *Validator { return &Validator{rules: DefaultRules()} }

// Check is the pure half of validation: no marks, no clearing.
func (v *Validator) Check(f Finder) Verdict {
	out := Verdict{Valid: true}
	for _, r := range v.rules {
		fld, ok := f.FindField(r.Field)
		if !ok {
			continue
		}
		if r.Check(fld) {
			continue
		}
		out.Valid = false
		if r.Silent {
			if r.Field == FieldHoneypot {
				out.Trapped = true
			}
			continue
		}
		out.Errors = append(out.Errors, ErrorField{Name: r.Field.Key(), Message: r.Message})
	}
	return out
}

// Validate clears prior error state, checks f, and marks each failing field.
func (v *Validator) Validate(f Form) Verdict {
	f.ClearErrors()
	out := v.Check(f)
	for _, e := range out.Errors {
		f.MarkInvalid(FieldID(e.Name), e.Message)
	}
	return out
}

// -----------------------------------------------------------------------------
// Server-side finder
// -----------------------------------------------------------------------------

// Posted adapts a decoded submission to Finder.  A field is present when the
// form definition declares it.  Checkbox state is "key present with a
// non-empty value", matching what a browser sends for a checked box.
type Posted struct {
	Def    *FormDef
	Values map[string]string
}

// FindField implements Finder.
func (p Posted) FindField(id FieldID) (Field, bool) {
	if p.Def != nil && !p.Def.Has(id) {
		return nil, false
	}
	v, ok := p.Values[id.Key()]
	return StaticField{Val: v, On: ok && v != "" && v != "false"}, true
}

// -----------------------------------------------------------------------------
// Timing check
// -----------------------------------------------------------------------------

// MaxFormAge bounds how long a rendered form stays submittable.
const MaxFormAge = 30 * time.Minute

// CheckTiming ensures the form was not submitted suspiciously fast or too
// late.  tsRaw is the render timestamp in Unix microseconds.  Returns empty
// string on success, a user-visible message on failure.
func CheckTiming(tsRaw string, now time.Time, minFill time.Duration) string {
	if tsRaw == "" {
		return "Timestamp missing.  Please reload the page."
	}
	ts, err := strconv.ParseInt(tsRaw, 10, 64)
	if err != nil {
		return "Bad timestamp.  Please retry."
	}
	delta := now.Sub(time.UnixMicro(ts))
	switch {
	case delta < minFill:
		return "Form submitted too quickly.  Please enter the fields manually."
	case delta > MaxFormAge:
		return "Form expired.  Please reload and submit again."
	default:
		return ""
	}
}
