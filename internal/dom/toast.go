// internal/dom/toast.go
//
// Document as a notify.Surface.

package dom

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/yanizio/adept-booking/internal/notify"
)

var _ notify.Surface = (*Document)(nil)

const (
	containerID    = "toast-container"
	containerStyle = "position: fixed; top: 20px; right: 20px; z-index: 9999; max-width: 400px;"
	enterAnim      = "slideInRight 0.4s ease-out"
	exitAnim       = "slideOutRight 0.4s ease-out"
	closeButton    = `<button type="button" class="btn-close" aria-label="Close"></button>`
)

// container returns #toast-container, creating it at the end of <body>.
// Caller holds mu.
func (d *Document) container() *html.Node {
	if c := byID(d.root, containerID); c != nil {
		return c
	}
	c := element("div", "id", containerID, "style", containerStyle)
	d.body().AppendChild(c)
	return c
}

func (d *Document) toastNode(id notify.ID) *html.Node {
	c := byID(d.root, containerID)
	if c == nil {
		return nil
	}
	want := strconv.Itoa(int(id))
	return findFirst(c, func(n *html.Node) bool { return attrOr(n, "data-toast-id", "") == want })
}

// Append implements notify.Surface.  t.HTML is already escaped.
func (d *Document) Append(t notify.Toast) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := element("div",
		"class", "alert alert-"+string(t.Severity)+" alert-dismissible fade show",
		"role", "alert",
		"data-toast-id", strconv.Itoa(int(t.ID)),
		"style", "animation: "+enterAnim+";",
	)
	if err := setInnerHTML(n, t.HTML+closeButton); err != nil {
		setText(n, t.Text)
	}
	d.container().AppendChild(n)
}

// Exit implements notify.Surface.
func (d *Document) Exit(id notify.ID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n := d.toastNode(id); n != nil {
		setStyle(n, "animation", exitAnim)
	}
}

// Remove implements notify.Surface.
func (d *Document) Remove(id notify.ID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n := d.toastNode(id); n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// ToastView is a toast as read back from the page.
type ToastView struct {
	ID       notify.ID
	Severity notify.Severity
	Text     string
	Leaving  bool
}

// Toasts lists the toasts on the page, oldest first.
func (d *Document) Toasts() []ToastView {
	d.mu.Lock()
	defer d.mu.Unlock()

	c := byID(d.root, containerID)
	if c == nil {
		return nil
	}
	var out []ToastView
	for n := c.FirstChild; n != nil; n = n.NextSibling {
		if n.Type != html.ElementNode || !hasClass(n, "alert") {
			continue
		}
		id, _ := strconv.Atoi(attrOr(n, "data-toast-id", "0"))
		tv := ToastView{
			ID:      notify.ID(id),
			Text:    strings.TrimSpace(textOf(n)),
			Leaving: strings.HasPrefix(style(n, "animation"), "slideOutRight"),
		}
		for _, cl := range strings.Fields(attrOr(n, "class", "")) {
			if s, ok := strings.CutPrefix(cl, "alert-"); ok && s != "dismissible" {
				tv.Severity = notify.Severity(s)
			}
		}
		out = append(out, tv)
	}
	return out
}
