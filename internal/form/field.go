// internal/form/field.go
//
// Adept Booking – Forms subsystem: field identities and view contracts.
//
// Context
//   The booking workflow validates a fixed set of fields.  Each one has a
//   stable identity (FieldID) that doubles as the submission key.  Views
//   never hand out raw selectors; callers ask for a field by identity and
//   get back a read-only Field, or nothing when the form variant does not
//   carry it.
//
//   •  Finder  – capability lookup used by the validator.
//   •  Form    – Finder plus the two mutations validation needs:
//                marking a field invalid and clearing every marker.
//
//------------------------------------------------------------------------------

package form

// FieldID names one validated field.  The string value is also the key the
// field is submitted under.
type FieldID string

const (
	FieldName     FieldID = "name"
	FieldEmail    FieldID = "email"
	FieldPhone    FieldID = "phone"
	FieldService  FieldID = "service"
	FieldMessage  FieldID = "message"
	FieldConsent  FieldID = "consent"
	FieldHoneypot FieldID = "website" // bot trap, rendered hidden
)

// AllFields lists every known identity in rendering order.
var AllFields = []FieldID{
	FieldName, FieldEmail, FieldPhone, FieldService,
	FieldMessage, FieldConsent, FieldHoneypot,
}

// Key returns the submission key for id.
func (id FieldID) Key() string { return string(id) }

// Known reports whether id is one of AllFields.
func (id FieldID) Known() bool {
	for _, f := range AllFields {
		if f == id {
			return true
		}
	}
	return false
}

// Field exposes the current state of one control.
type Field interface {
	Value() string // raw, untrimmed
	Checked() bool // checkbox state; false for non-checkboxes
}

// Finder locates fields by identity.  ok is false when the form does not
// contain the field, which makes the rule for that field a no-op.
type Finder interface {
	FindField(id FieldID) (f Field, ok bool)
}

// Form is what the validator needs from a view.
type Form interface {
	Finder
	MarkInvalid(id FieldID, message string)
	ClearErrors()
}

// StaticField is a plain Field value, handy for server-side finders and
// test fixtures.
type StaticField struct {
	Val string
	On  bool
}

func (s StaticField) Value() string { return s.Val }
func (s StaticField) Checked() bool { return s.On }
