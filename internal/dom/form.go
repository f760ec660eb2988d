// internal/dom/form.go

package dom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/yanizio/adept-booking/internal/form"
	"github.com/yanizio/adept-booking/internal/workflow"
)

var _ workflow.View = (*Form)(nil)

// Inline styles applied by the error and busy states.
const (
	errorBorder  = "var(--color-error)"
	busyMarkup   = `<span class="spinner-border spinner-border-sm me-2" role="status" aria-hidden="true"></span>Sending...`
	defaultLabel = "Submit"
)

// Form is one <form> element of a Document.
type Form struct {
	doc  *Document
	node *html.Node
}

// Action returns the form's action attribute.
func (f *Form) Action() string {
	f.doc.mu.Lock()
	defer f.doc.mu.Unlock()
	return attrOr(f.node, "action", "")
}

// ID returns the data-form attribute written by the renderer.
func (f *Form) ID() string {
	f.doc.mu.Lock()
	defer f.doc.mu.Unlock()
	return attrOr(f.node, "data-form", "")
}

// -----------------------------------------------------------------------------
// Field lookup
// -----------------------------------------------------------------------------

// lookup maps an identity to its element.  Caller holds mu.
func (f *Form) lookup(id form.FieldID) *html.Node {
	switch id {
	case form.FieldMessage:
		// First of "#booking-message, textarea" in document order.
		return findFirst(f.node, func(n *html.Node) bool {
			return n.Data == "textarea" || attrOr(n, "id", "") == form.DOMID(form.FieldMessage)
		})
	case form.FieldHoneypot:
		return queryOne(f.node, `.//input[@name='website']`)
	default:
		if !id.Known() {
			return nil
		}
		return byID(f.node, form.DOMID(id))
	}
}

// FindField implements form.Finder.  The returned Field is a snapshot.
func (f *Form) FindField(id form.FieldID) (form.Field, bool) {
	f.doc.mu.Lock()
	defer f.doc.mu.Unlock()
	n := f.lookup(id)
	if n == nil {
		return nil, false
	}
	return form.StaticField{Val: controlValue(n), On: hasAttr(n, "checked")}, true
}

// controlValue reads what element.value would return.
func controlValue(n *html.Node) string {
	switch n.Data {
	case "textarea":
		return textOf(n)
	case "select":
		opt := selectedOption(n)
		if opt == nil {
			return ""
		}
		return optionValue(opt)
	case "input":
		t := strings.ToLower(attrOr(n, "type", "text"))
		if t == "checkbox" || t == "radio" {
			return attrOr(n, "value", "on")
		}
		return attrOr(n, "value", "")
	default:
		return attrOr(n, "value", "")
	}
}

func options(sel *html.Node) []*html.Node {
	return findAll(sel, func(n *html.Node) bool { return n.Data == "option" })
}

func selectedOption(sel *html.Node) *html.Node {
	opts := options(sel)
	for _, o := range opts {
		if hasAttr(o, "selected") {
			return o
		}
	}
	if len(opts) > 0 {
		return opts[0]
	}
	return nil
}

func optionValue(o *html.Node) string {
	if v, ok := attr(o, "value"); ok {
		return v
	}
	return strings.TrimSpace(textOf(o))
}

// -----------------------------------------------------------------------------
// Filling (driver side)
// -----------------------------------------------------------------------------

// Set assigns a value the way a user would: typing into inputs and
// textareas, picking a select option by value, and ticking a checkbox for
// any value other than "", "false", or "off".
func (f *Form) Set(id form.FieldID, val string) error {
	f.doc.mu.Lock()
	defer f.doc.mu.Unlock()

	n := f.lookup(id)
	if n == nil {
		return fmt.Errorf("dom: field %s not in form", id)
	}
	switch n.Data {
	case "textarea":
		setText(n, val)
	case "select":
		var hit *html.Node
		for _, o := range options(n) {
			if optionValue(o) == val {
				hit = o
				break
			}
		}
		if hit == nil {
			return fmt.Errorf("dom: %s has no option %q", id, val)
		}
		for _, o := range options(n) {
			removeAttr(o, "selected")
		}
		setAttr(hit, "selected", "")
	case "input":
		t := strings.ToLower(attrOr(n, "type", "text"))
		if t == "checkbox" || t == "radio" {
			switch strings.ToLower(val) {
			case "", "false", "off", "no":
				removeAttr(n, "checked")
			default:
				setAttr(n, "checked", "")
			}
			return nil
		}
		setAttr(n, "value", val)
	default:
		return fmt.Errorf("dom: field %s is a <%s>", id, n.Data)
	}
	return nil
}

// Options lists the select options of id as value/label pairs.
func (f *Form) Options(id form.FieldID) []form.Option {
	f.doc.mu.Lock()
	defer f.doc.mu.Unlock()
	n := f.lookup(id)
	if n == nil || n.Data != "select" {
		return nil
	}
	var out []form.Option
	for _, o := range options(n) {
		out = append(out, form.Option{Value: optionValue(o), Label: strings.TrimSpace(textOf(o))})
	}
	return out
}

// Has reports whether the form contains id.
func (f *Form) Has(id form.FieldID) bool {
	_, ok := f.FindField(id)
	return ok
}

// -----------------------------------------------------------------------------
// Error annotation
// -----------------------------------------------------------------------------

// MarkInvalid flags the field and shows msg in the inline feedback element
// next to it, creating that element when absent.
func (f *Form) MarkInvalid(id form.FieldID, msg string) {
	f.doc.mu.Lock()
	defer f.doc.mu.Unlock()

	n := f.lookup(id)
	if n == nil {
		return
	}
	addClass(n, "is-invalid")

	parent := n.Parent
	if parent != nil {
		fb := findFirst(parent, func(c *html.Node) bool { return hasClass(c, "invalid-feedback") })
		if fb == nil {
			fb = element("div", "class", "invalid-feedback")
			parent.AppendChild(fb)
		}
		setText(fb, msg)
		setStyle(fb, "display", "block")
	}

	setStyle(n, "border-color", errorBorder)
}

// ClearErrors removes every marker and hides every inline error.
func (f *Form) ClearErrors() {
	f.doc.mu.Lock()
	defer f.doc.mu.Unlock()

	for _, n := range findAll(f.node, func(c *html.Node) bool { return hasClass(c, "is-invalid") }) {
		removeClass(n, "is-invalid")
		setStyle(n, "border-color", "")
		setStyle(n, "animation", "")
	}
	for _, n := range findAll(f.node, func(c *html.Node) bool { return hasClass(c, "invalid-feedback") }) {
		setStyle(n, "display", "none")
	}
}

// FieldError returns the visible inline error for id, if any.
func (f *Form) FieldError(id form.FieldID) (string, bool) {
	f.doc.mu.Lock()
	defer f.doc.mu.Unlock()

	n := f.lookup(id)
	if n == nil || !hasClass(n, "is-invalid") || n.Parent == nil {
		return "", false
	}
	fb := findFirst(n.Parent, func(c *html.Node) bool { return hasClass(c, "invalid-feedback") })
	if fb == nil || style(fb, "display") == "none" {
		return "", false
	}
	return strings.TrimSpace(textOf(fb)), true
}

// -----------------------------------------------------------------------------
// Submit control
// -----------------------------------------------------------------------------

// SubmitControl returns the first [type=submit] in the form.
func (f *Form) SubmitControl() (workflow.Control, bool) {
	f.doc.mu.Lock()
	defer f.doc.mu.Unlock()
	n := queryOne(f.node, `.//*[@type='submit']`)
	if n == nil {
		return nil, false
	}
	return &Button{doc: f.doc, node: n}, true
}

// Button is the submit control.
type Button struct {
	doc  *Document
	node *html.Node
}

// Disable shows the busy state and remembers the original label.
func (b *Button) Disable() {
	b.doc.mu.Lock()
	defer b.doc.mu.Unlock()
	setAttr(b.node, "disabled", "")
	setAttr(b.node, "data-original-text", innerHTML(b.node))
	_ = setInnerHTML(b.node, busyMarkup)
	setStyle(b.node, "opacity", "0.7")
	setStyle(b.node, "cursor", "not-allowed")
}

// Enable restores the original label, or "Submit" when none was saved.
func (b *Button) Enable() {
	b.doc.mu.Lock()
	defer b.doc.mu.Unlock()
	removeAttr(b.node, "disabled")
	label := attrOr(b.node, "data-original-text", "")
	if label == "" {
		label = defaultLabel
	}
	if err := setInnerHTML(b.node, label); err != nil {
		setText(b.node, defaultLabel)
	}
	setStyle(b.node, "opacity", "1")
	setStyle(b.node, "cursor", "pointer")
}

// Disabled reports the disabled attribute.
func (b *Button) Disabled() bool {
	b.doc.mu.Lock()
	defer b.doc.mu.Unlock()
	return hasAttr(b.node, "disabled")
}

// Label returns the button's visible text.
func (b *Button) Label() string {
	b.doc.mu.Lock()
	defer b.doc.mu.Unlock()
	return strings.TrimSpace(textOf(b.node))
}

// -----------------------------------------------------------------------------
// Form data and navigation
// -----------------------------------------------------------------------------

// FormData collects name/value pairs the way a browser builds FormData:
// document order, disabled controls and buttons skipped, checkboxes and
// radios only when checked.
func (f *Form) FormData() []form.Pair {
	f.doc.mu.Lock()
	defer f.doc.mu.Unlock()

	var out []form.Pair
	walk(f.node, func(n *html.Node) bool {
		name, ok := attr(n, "name")
		if !ok || name == "" || hasAttr(n, "disabled") {
			return true
		}
		switch n.Data {
		case "input":
			switch t := strings.ToLower(attrOr(n, "type", "text")); t {
			case "submit", "button", "reset", "image", "file":
				return true
			case "checkbox", "radio":
				if !hasAttr(n, "checked") {
					return true
				}
			}
			out = append(out, form.Pair{Name: name, Value: controlValue(n)})
		case "textarea":
			out = append(out, form.Pair{Name: name, Value: textOf(n)})
		case "select":
			if opt := selectedOption(n); opt != nil {
				out = append(out, form.Pair{Name: name, Value: optionValue(opt)})
			}
		}
		return true
	})
	return out
}

// Navigate records the navigation on the owning document.
func (f *Form) Navigate(url string) { f.doc.Navigate(url) }
