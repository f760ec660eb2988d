// internal/dom/document.go
//
// HTML-document view.
//
// Context
// -------
// The headless driver has no browser, so it loads the booking page into a
// Document and lets the workflow mutate it exactly as the page script
// would: invalid markers and inline errors on fields, a busy submit
// button, stacked toasts, and a recorded navigation.  Render writes the
// mutated page back out for inspection.
//
//   - Document   parsed page, toast surface, navigation target.
//   - Form       one <form>, implements workflow.View.
//
// Notes
// -----
// • One mutex guards the whole tree.  Every exported method locks it.
// • Element lookup uses antchfx/htmlquery XPath where a selector is a
//   plain id or attribute match, and a document-order walk where the page
//   script relied on selector-list ordering.
// • Oxford commas, two spaces after periods.
package dom

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// ErrNoForm is returned when the page contains no <form>.
var ErrNoForm = errors.New("dom: page has no form")

// Document is a parsed, mutable HTML page.
type Document struct {
	mu       sync.Mutex
	root     *html.Node
	location string
}

// Parse reads an HTML page.
func Parse(r io.Reader) (*Document, error) {
	root, err := htmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse: %w", err)
	}
	return &Document{root: root}, nil
}

// ParseString is Parse for a string.
func ParseString(s string) (*Document, error) { return Parse(strings.NewReader(s)) }

// Forms returns every <form> in document order.
func (d *Document) Forms() []*Form {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []*Form
	for _, n := range htmlquery.Find(d.root, "//form") {
		out = append(out, &Form{doc: d, node: n})
	}
	return out
}

// FirstForm returns the first <form>.
func (d *Document) FirstForm() (*Form, error) {
	forms := d.Forms()
	if len(forms) == 0 {
		return nil, ErrNoForm
	}
	return forms[0], nil
}

// Navigate records a navigation.  The document is not replaced.
func (d *Document) Navigate(url string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.location = url
}

// Location returns the last navigation target, or "".
func (d *Document) Location() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.location
}

// Title returns the page <title> text.
func (d *Document) Title() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n := htmlquery.FindOne(d.root, "//title"); n != nil {
		return strings.TrimSpace(textOf(n))
	}
	return ""
}

// Dataset returns the data-* attributes of the element with the given id,
// keyed without the "data-" prefix.  Nil when no such element exists.
func (d *Document) Dataset(id string) map[string]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := byID(d.root, id)
	if n == nil {
		return nil
	}
	out := make(map[string]string)
	for _, a := range n.Attr {
		if strings.HasPrefix(a.Key, "data-") {
			out[strings.TrimPrefix(a.Key, "data-")] = a.Val
		}
	}
	return out
}

// Render writes the current tree.
func (d *Document) Render(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return html.Render(w, d.root)
}

// String renders the current tree, ignoring errors.
func (d *Document) String() string {
	var sb strings.Builder
	_ = d.Render(&sb)
	return sb.String()
}

// body returns <body>, creating one if the parser somehow did not.
// Caller holds mu.
func (d *Document) body() *html.Node {
	if b := htmlquery.FindOne(d.root, "//body"); b != nil {
		return b
	}
	b := element("body")
	d.root.AppendChild(b)
	return b
}
