// Package formtest provides an in-memory form for validator and workflow
// tests.
package formtest

import (
	"sort"
	"sync"

	"github.com/yanizio/adept-booking/internal/form"
)

// Fixture is a form.Form backed by maps.  Fields that were never Set are
// absent.
type Fixture struct {
	mu      sync.Mutex
	fields  map[form.FieldID]form.StaticField
	order   []form.FieldID
	invalid map[form.FieldID]string
	clears  int
}

// New returns an empty fixture.
func New() *Fixture {
	return &Fixture{
		fields:  make(map[form.FieldID]form.StaticField),
		invalid: make(map[form.FieldID]string),
	}
}

// Valid returns a fixture holding the all-pass field set.
func Valid() *Fixture {
	return New().
		Set(form.FieldName, "Jo").
		Set(form.FieldEmail, "a@b.co").
		Set(form.FieldPhone, "1234567890").
		Set(form.FieldService, "x").
		Set(form.FieldMessage, "1234567890").
		Check(form.FieldConsent, true).
		Set(form.FieldHoneypot, "")
}

// Set stores a text value.
func (f *Fixture) Set(id form.FieldID, v string) *Fixture {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch(id)
	cur := f.fields[id]
	cur.Val = v
	f.fields[id] = cur
	return f
}

// Check stores a checkbox state.  A checked box posts "on".
func (f *Fixture) Check(id form.FieldID, on bool) *Fixture {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch(id)
	v := ""
	if on {
		v = "on"
	}
	f.fields[id] = form.StaticField{Val: v, On: on}
	return f
}

// Remove makes id absent.
func (f *Fixture) Remove(id form.FieldID) *Fixture {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.fields, id)
	for i, o := range f.order {
		if o == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return f
}

func (f *Fixture) touch(id form.FieldID) {
	if _, ok := f.fields[id]; !ok {
		f.order = append(f.order, id)
	}
}

// FindField implements form.Finder.
func (f *Fixture) FindField(id form.FieldID) (form.Field, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.fields[id]
	if !ok {
		return nil, false
	}
	return v, true
}

// MarkInvalid implements form.Form.
func (f *Fixture) MarkInvalid(id form.FieldID, msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalid[id] = msg
}

// ClearErrors implements form.Form.
func (f *Fixture) ClearErrors() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalid = make(map[form.FieldID]string)
	f.clears++
}

// Invalid returns the current marks.
func (f *Fixture) Invalid() map[form.FieldID]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[form.FieldID]string, len(f.invalid))
	for k, v := range f.invalid {
		out[k] = v
	}
	return out
}

// InvalidIDs returns the marked identities, sorted.
func (f *Fixture) InvalidIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.invalid))
	for k := range f.invalid {
		out = append(out, string(k))
	}
	sort.Strings(out)
	return out
}

// Clears counts ClearErrors calls.
func (f *Fixture) Clears() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clears
}

// Pairs returns what a browser would post: fields in insertion order,
// unchecked boxes omitted.
func (f *Fixture) Pairs() []form.Pair {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]form.Pair, 0, len(f.order))
	for _, id := range f.order {
		v := f.fields[id]
		if id == form.FieldConsent && !v.On {
			continue
		}
		out = append(out, form.Pair{Name: id.Key(), Value: v.Val})
	}
	return out
}
