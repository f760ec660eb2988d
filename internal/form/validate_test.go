package form_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/yanizio/adept-booking/internal/form"
	"github.com/yanizio/adept-booking/internal/form/formtest"
)

func TestValidate_AllPass(t *testing.T) {
	f := formtest.Valid()
	v := form.NewValidator().Validate(f)

	if !v.Valid {
		t.Fatalf("Valid = false, errors %v", v.Errors)
	}
	if len(v.Errors) != 0 {
		t.Fatalf("Errors = %v, want none", v.Errors)
	}
	if len(f.Invalid()) != 0 {
		t.Fatalf("marks = %v, want none", f.Invalid())
	}
}

func TestValidate_ScenarioB_ShortName(t *testing.T) {
	f := formtest.Valid().Set(form.FieldName, "J")
	v := form.NewValidator().Validate(f)

	if v.Valid {
		t.Fatal("Valid = true, want false")
	}
	msg, ok := f.Invalid()[form.FieldName]
	if !ok || !strings.Contains(msg, "2-50 characters") {
		t.Fatalf("name mark = %q (present %v), want 2-50 characters", msg, ok)
	}
	if diff := cmp.Diff([]string{"name"}, f.InvalidIDs()); diff != "" {
		t.Fatalf("marked fields (-want +got):\n%s", diff)
	}
}

func TestValidate_HoneypotSilent(t *testing.T) {
	f := formtest.Valid().Set(form.FieldHoneypot, "http://spam.example")
	v := form.NewValidator().Validate(f)

	if v.Valid {
		t.Fatal("Valid = true with honeypot filled")
	}
	if !v.Trapped {
		t.Fatal("Trapped = false")
	}
	if len(v.Errors) != 0 || len(f.Invalid()) != 0 {
		t.Fatalf("visible errors %v / marks %v, want none", v.Errors, f.Invalid())
	}
}

func TestValidate_HoneypotBeatsEveryField(t *testing.T) {
	f := formtest.New().Set(form.FieldHoneypot, "x").Set(form.FieldName, "Jo")
	if v := form.NewValidator().Validate(f); v.Valid {
		t.Fatal("Valid = true with honeypot filled")
	}
}

func TestValidate_NoShortCircuit(t *testing.T) {
	f := formtest.New().
		Set(form.FieldName, "").
		Set(form.FieldEmail, "nope").
		Set(form.FieldPhone, "12").
		Set(form.FieldService, "").
		Set(form.FieldMessage, "short").
		Check(form.FieldConsent, false)

	v := form.NewValidator().Validate(f)
	want := []string{"consent", "email", "message", "name", "phone", "service"}
	if diff := cmp.Diff(want, f.InvalidIDs()); diff != "" {
		t.Fatalf("marked fields (-want +got):\n%s", diff)
	}
	if len(v.Errors) != 6 {
		t.Fatalf("errors = %d, want 6", len(v.Errors))
	}
	if v.Errors[0].Name != "name" || v.Errors[5].Name != "consent" {
		t.Fatalf("error order = %v", v.Errors)
	}
}

func TestValidate_AbsentFieldsSkipped(t *testing.T) {
	f := formtest.New().
		Set(form.FieldEmail, "a@b.co").
		Set(form.FieldMessage, "a long enough message")

	if v := form.NewValidator().Validate(f); !v.Valid {
		t.Fatalf("Valid = false, errors %v", v.Errors)
	}
}

func TestValidate_ClearsPriorMarks(t *testing.T) {
	f := formtest.Valid()
	f.MarkInvalid(form.FieldEmail, "stale")

	form.NewValidator().Validate(f)
	if len(f.Invalid()) != 0 {
		t.Fatalf("stale mark survived: %v", f.Invalid())
	}
	if f.Clears() != 1 {
		t.Fatalf("clears = %d, want 1", f.Clears())
	}
}

func TestCheck_DoesNotMark(t *testing.T) {
	f := formtest.Valid().Set(form.FieldEmail, "bad")
	v := form.NewValidator().Check(f)
	if v.Valid {
		t.Fatal("Valid = true")
	}
	if len(f.Invalid()) != 0 || f.Clears() != 0 {
		t.Fatal("Check touched the form")
	}
}

func TestRules(t *testing.T) {
	cases := []struct {
		name string
		fn   func(string) bool
		in   string
		want bool
	}{
		{"name two letters", form.ValidName, "Jo", true},
		{"name accented", form.ValidName, "Zoë Müller-Ørsted", true},
		{"name apostrophe", form.ValidName, "D'Arcy", true},
		{"name padded", form.ValidName, "  Jo  ", true},
		{"name one letter", form.ValidName, "J", false},
		{"name digits", form.ValidName, "R2D2", false},
		{"name too long", form.ValidName, strings.Repeat("a", 51), false},
		{"name fifty", form.ValidName, strings.Repeat("é", 50), true},
		{"email basic", form.ValidEmail, "a@b.co", true},
		{"email padded", form.ValidEmail, " a@b.co ", true},
		{"email no dot", form.ValidEmail, "a@b", false},
		{"email two at", form.ValidEmail, "a@b@c.d", false},
		{"email space", form.ValidEmail, "a b@c.d", false},
		{"phone ten", form.ValidPhone, "1234567890", true},
		{"phone punctuated", form.ValidPhone, "+1 (555) 123-4567", true},
		{"phone nine", form.ValidPhone, "123456789", false},
		{"phone letters", form.ValidPhone, "12345abcde", false},
		{"phone twenty one", form.ValidPhone, strings.Repeat("1", 21), false},
		{"service chosen", form.ValidService, "x", true},
		{"service empty", form.ValidService, "", false},
		{"message ten", form.ValidMessage, "1234567890", true},
		{"message padded short", form.ValidMessage, "   123456789   ", false},
		{"honeypot empty", form.EmptyHoneypot, "", true},
		{"honeypot filled", form.EmptyHoneypot, " ", false},
	}
	for _, tc := range cases {
		if got := tc.fn(tc.in); got != tc.want {
			t.Errorf("%s: f(%q) = %v, want %v", tc.name, tc.in, got, tc.want)
		}
	}
}

func TestPosted(t *testing.T) {
	fd := &form.FormDef{ID: "t", Fields: []form.FieldDef{
		{Name: form.FieldEmail}, {Name: form.FieldConsent},
	}}
	p := form.Posted{Def: fd, Values: map[string]string{"email": "a@b.co", "consent": "on", "name": "J"}}

	if _, ok := p.FindField(form.FieldName); ok {
		t.Fatal("undeclared field reported present")
	}
	c, ok := p.FindField(form.FieldConsent)
	if !ok || !c.Checked() {
		t.Fatal("consent not checked")
	}
	if v := form.NewValidator().Check(p); !v.Valid {
		t.Fatalf("Valid = false, errors %v", v.Errors)
	}

	p.Values = map[string]string{"email": "a@b.co"}
	if v := form.NewValidator().Check(p); v.Valid {
		t.Fatal("missing consent passed")
	}
}

func TestCheckTiming(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	ts := func(ago time.Duration) string {
		return itoa(now.Add(-ago).UnixMicro())
	}

	if msg := form.CheckTiming(ts(5*time.Second), now, 2*time.Second); msg != "" {
		t.Fatalf("5s ago: %q", msg)
	}
	if msg := form.CheckTiming(ts(time.Second), now, 2*time.Second); !strings.Contains(msg, "too quickly") {
		t.Fatalf("1s ago: %q", msg)
	}
	if msg := form.CheckTiming(ts(31*time.Minute), now, 2*time.Second); !strings.Contains(msg, "expired") {
		t.Fatalf("31m ago: %q", msg)
	}
	if msg := form.CheckTiming("", now, 0); msg == "" {
		t.Fatal("missing timestamp accepted")
	}
	if msg := form.CheckTiming("abc", now, 0); msg == "" {
		t.Fatal("bad timestamp accepted")
	}
}

func TestValidationErrorHelpers(t *testing.T) {
	err := form.NewValidationError([]form.ErrorField{{Name: "email", Message: "bad"}})
	if !form.IsValidationError(err) {
		t.Fatal("IsValidationError = false")
	}
	if got := form.ValidationFields(err); len(got) != 1 || got[0].Name != "email" {
		t.Fatalf("fields = %v", got)
	}
	if form.IsValidationError(form.ErrTrapped) {
		t.Fatal("ErrTrapped classified as validation error")
	}
}
