// internal/form/submission.go
//
// Adept Booking – Forms subsystem: the transient submission value.
//
// Context
//   A Submission is captured from the view when dispatch fires and discarded
//   once the request resolves.  Its JSON form is one flat object.  A name
//   that repeats keeps the position of its first occurrence and the value of
//   its last, which is what building an object from FormData entries does.
//
//------------------------------------------------------------------------------

package form

import (
	"strings"

	"github.com/tidwall/sjson"
)

// Pair is one name/value entry in document order.
type Pair struct {
	Name  string
	Value string
}

// Submission is an ordered list of posted pairs.
type Submission struct {
	Pairs []Pair
}

// NewSubmission copies pairs into a Submission.
func NewSubmission(pairs []Pair) Submission {
	cp := make([]Pair, len(pairs))
	copy(cp, pairs)
	return Submission{Pairs: cp}
}

// Get returns the last value posted under name.
func (s Submission) Get(name string) (string, bool) {
	var (
		val string
		ok  bool
	)
	for _, p := range s.Pairs {
		if p.Name == name {
			val, ok = p.Value, true
		}
	}
	return val, ok
}

// Map flattens the submission, last value wins.
func (s Submission) Map() map[string]string {
	m := make(map[string]string, len(s.Pairs))
	for _, p := range s.Pairs {
		m[p.Name] = p.Value
	}
	return m
}

// MarshalJSON renders the flat object.  sjson keeps insertion order, so
// keys appear in first-occurrence order.  Unnamed pairs are skipped.
func (s Submission) MarshalJSON() ([]byte, error) {
	out := []byte("{}")
	var err error
	for _, p := range s.Pairs {
		if p.Name == "" {
			continue
		}
		out, err = sjson.SetBytes(out, escapePath(p.Name), p.Value)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// pathEscaper neutralises sjson path syntax so names are literal keys.
var pathEscaper = strings.NewReplacer(
	`\`, `\\`,
	`.`, `\.`,
	`*`, `\*`,
	`?`, `\?`,
	`|`, `\|`,
	`#`, `\#`,
	`@`, `\@`,
	`:`, `\:`,
	`!`, `\!`,
	`=`, `\=`,
	`<`, `\<`,
	`>`, `\>`,
	`%`, `\%`,
)

func escapePath(name string) string { return pathEscaper.Replace(name) }
