// internal/form/renderer.go
//
// Adept Booking – Forms subsystem: HTML renderer.
//
// Context
//   Given a parsed FormDef this file converts the definition into the markup
//   the booking workflow expects: every field carries the id
//   “booking-{name}”, each control sits in its own wrapper so an inline
//   error can be appended next to it, the honeypot is rendered hidden, and
//   the form ends with a single submit button.
//
// Workflow
//   •  RenderForm writes each field via writeField.
//   •  Select options come from RenderOptions.Services (the catalog) and
//      fall back to the YAML Options slice.
//   •  A CSRF token, a render timestamp, and the form ID are embedded as
//      hidden inputs.  They travel in the JSON body like any other field.
//   •  The caller receives template.HTML so the surrounding template does
//      not double-escape the markup.
//
//------------------------------------------------------------------------------

package form

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"strconv"
	"time"
)

// Hidden meta inputs added by RenderForm.
const (
	MetaCSRF     = "csrf_token"
	MetaRenderTS = "render_ts"
	MetaFormID   = "form_id"
)

// Option is one select choice.
type Option struct {
	Value string
	Label string
}

// RenderOptions bundles optional parameters influencing HTML output.
type RenderOptions struct {
	// Prefill provides initial field values keyed by field name.
	Prefill map[string]string
	// Services overrides the service select options.
	Services []Option
	// Endpoint is written into the form's action attribute.
	Endpoint string
	// CSRF signs the hidden token.  Nil omits the token.
	CSRF *CSRF
	// Now stamps render_ts.  Nil means time.Now.
	Now func() time.Time
}

// DOMID returns the element id used for field id.
func DOMID(id FieldID) string { return "booking-" + string(id) }

// RenderForm returns the HTML markup for the specified form ID.
func RenderForm(formID string, opts RenderOptions) (template.HTML, error) {
	fd, ok := GetFormDef(formID)
	if !ok {
		return "", fmt.Errorf("RenderForm %q: %w", formID, ErrUnknownForm)
	}
	return Render(fd, opts)
}

// Render is RenderForm for a definition the caller already holds.
func Render(fd *FormDef, opts RenderOptions) (template.HTML, error) {
	endpoint := opts.Endpoint
	if fd.Endpoint != "" {
		endpoint = fd.Endpoint
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	var buf bytes.Buffer
	buf.WriteString(`<form class="booking-form" data-form="` + html.EscapeString(fd.ID) + `"`)
	if endpoint != "" {
		buf.WriteString(` action="` + html.EscapeString(endpoint) + `"`)
	}
	buf.WriteString(` method="post" novalidate>` + "\n")

	if fd.Title != "" {
		buf.WriteString(`<h2 class="booking-title">` + html.EscapeString(fd.Title) + `</h2>` + "\n")
	}

	// Iterate fields in definition order.
	for _, f := range fd.Fields {
		if err := writeField(&buf, &f, opts); err != nil {
			return "", err
		}
	}

	// Hidden meta inputs.
	if opts.CSRF != nil {
		tok, err := opts.CSRF.Generate()
		if err != nil {
			return "", fmt.Errorf("RenderForm: csrf: %w", err)
		}
		writeHidden(&buf, MetaCSRF, tok)
	}
	writeHidden(&buf, MetaRenderTS, strconv.FormatInt(now().UnixMicro(), 10))
	writeHidden(&buf, MetaFormID, fd.ID)

	label := fd.Submit
	if label == "" {
		label = "Submit"
	}
	buf.WriteString(`<button type="submit" class="btn btn-primary">` + html.EscapeString(label) + `</button>` + "\n")
	buf.WriteString(`</form>`)
	return template.HTML(buf.String()), nil
}

func writeHidden(buf *bytes.Buffer, name, val string) {
	buf.WriteString(`<input type="hidden" name="` + name + `" value="` + html.EscapeString(val) + `">` + "\n")
}

// writeField emits HTML for an individual field into buf.  Each field is
// wrapped in a <div class="mb-3"> which is the parent the inline error is
// attached to.
func writeField(buf *bytes.Buffer, f *FieldDef, opts RenderOptions) error {
	name := html.EscapeString(f.Name.Key())
	id := DOMID(f.Name)
	val := opts.Prefill[f.Name.Key()]

	// The honeypot is visually hidden and skipped by keyboard users.
	if f.Name == FieldHoneypot {
		buf.WriteString(`<div class="hp-field" style="position:absolute;left:-9999px" aria-hidden="true">` + "\n")
		buf.WriteString(`<input id="` + id + `" name="` + name + `" type="text" tabindex="-1" autocomplete="off" value="">` + "\n")
		buf.WriteString(`</div>` + "\n")
		return nil
	}

	if f.Type == "checkbox" {
		buf.WriteString(`<div class="mb-3 form-check">` + "\n")
	} else {
		buf.WriteString(`<div class="mb-3">` + "\n")
		buf.WriteString(`<label for="` + id + `" class="form-label">` + html.EscapeString(f.Label) + `</label>` + "\n")
	}

	switch f.Type {
	case "text", "email", "tel":
		buf.WriteString(`<input id="` + id + `" name="` + name + `" type="` + f.Type + `" class="form-control"`)
		if f.Placeholder != "" {
			buf.WriteString(` placeholder="` + html.EscapeString(f.Placeholder) + `"`)
		}
		if val != "" {
			buf.WriteString(` value="` + html.EscapeString(val) + `"`)
		}
		buf.WriteString(`>` + "\n")

	case "textarea":
		buf.WriteString(`<textarea id="` + id + `" name="` + name + `" class="form-control" rows="4"`)
		if f.Placeholder != "" {
			buf.WriteString(` placeholder="` + html.EscapeString(f.Placeholder) + `"`)
		}
		buf.WriteString(`>` + html.EscapeString(val) + `</textarea>` + "\n")

	case "select":
		buf.WriteString(`<select id="` + id + `" name="` + name + `" class="form-select">` + "\n")
		prompt := f.Placeholder
		if prompt == "" {
			prompt = "Select an option"
		}
		buf.WriteString(`<option value="">` + html.EscapeString(prompt) + `</option>` + "\n")
		for _, opt := range selectOptions(f, opts) {
			sel := ""
			if val != "" && val == opt.Value {
				sel = ` selected`
			}
			buf.WriteString(`<option value="` + html.EscapeString(opt.Value) + `"` + sel + `>` + html.EscapeString(opt.Label) + `</option>` + "\n")
		}
		buf.WriteString(`</select>` + "\n")

	case "checkbox":
		checked := ""
		if val != "" && val != "false" {
			checked = ` checked`
		}
		buf.WriteString(`<input id="` + id + `" name="` + name + `" type="checkbox" class="form-check-input"` + checked + `>` + "\n")
		buf.WriteString(`<label for="` + id + `" class="form-check-label">` + html.EscapeString(f.Label) + `</label>` + "\n")

	default:
		return fmt.Errorf("writeField: unsupported field type %q in form field %s", f.Type, f.Name)
	}

	buf.WriteString(`</div>` + "\n")
	return nil
}

// selectOptions prefers catalog services for the service field.
func selectOptions(f *FieldDef, opts RenderOptions) []Option {
	if f.Name == FieldService && len(opts.Services) > 0 {
		return opts.Services
	}
	out := make([]Option, 0, len(f.Options))
	for _, o := range f.Options {
		out = append(out, Option{Value: o, Label: o})
	}
	return out
}
