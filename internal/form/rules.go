// internal/form/rules.go
//
// Adept Booking – Forms subsystem: the fixed booking rules.
//
// Context
//   Rules are fixed per field identity.  They are not loaded from YAML and
//   cannot be changed at runtime; form variants only decide which fields
//   exist.  The predicates are exported so the process endpoint enforces
//   the same rules the page enforces.
//
//------------------------------------------------------------------------------

package form

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Rule pairs a predicate with its user-facing message.  Silent rules fail
// the verdict without annotating the field.
type Rule struct {
	Field   FieldID
	Message string
	Check   func(Field) bool
	Silent  bool
}

// User-facing messages.
const (
	MsgName    = "Please enter a valid name (2-50 characters, letters only)"
	MsgEmail   = "Please enter a valid email address"
	MsgPhone   = "Please enter a valid phone number (10-20 digits)"
	MsgService = "Please select a service"
	MsgMessage = "Message must be at least 10 characters long"
	MsgConsent = "You must agree to the privacy policy"
)

var (
	nameRe  = regexp.MustCompile(`^[a-zA-Z\x{00C0}-\x{00FF}\s'-]+$`)
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^[0-9\s+\-()]+$`)
)

// ValidName accepts 2–50 letters (accented Latin included), whitespace,
// hyphens, and apostrophes.
func ValidName(v string) bool {
	v = strings.TrimSpace(v)
	n := utf8.RuneCountInString(v)
	return n >= 2 && n <= 50 && nameRe.MatchString(v)
}

// ValidEmail accepts local@domain.tld with no whitespace or extra "@".
func ValidEmail(v string) bool {
	return emailRe.MatchString(strings.TrimSpace(v))
}

// ValidPhone accepts 10–20 digits, whitespace, and "+-()".
func ValidPhone(v string) bool {
	v = strings.TrimSpace(v)
	n := utf8.RuneCountInString(v)
	return n >= 10 && n <= 20 && phoneRe.MatchString(v)
}

// ValidService requires a selection.  The value is not trimmed.
func ValidService(v string) bool { return v != "" }

// ValidMessage requires at least ten characters after trimming.
func ValidMessage(v string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(v)) >= 10
}

// EmptyHoneypot reports whether the bot trap was left alone.
func EmptyHoneypot(v string) bool { return v == "" }

// DefaultRules returns the booking rule set in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{Field: FieldName, Message: MsgName, Check: func(f Field) bool { return ValidName(f.Value()) }},
		{Field: FieldEmail, Message: MsgEmail, Check: func(f Field) bool { return ValidEmail(f.Value()) }},
		{Field: FieldPhone, Message: MsgPhone, Check: func(f Field) bool { return ValidPhone(f.Value()) }},
		{Field: FieldService, Message: MsgService, Check: func(f Field) bool { return ValidService(f.Value()) }},
		{Field: FieldMessage, Message: MsgMessage, Check: func(f Field) bool { return ValidMessage(f.Value()) }},
		{Field: FieldConsent, Message: MsgConsent, Check: func(f Field) bool { return f.Checked() }},
		{Field: FieldHoneypot, Silent: true, Check: func(f Field) bool { return EmptyHoneypot(f.Value()) }},
	}
}
