// internal/dom/node.go
//
// Small helpers over golang.org/x/net/html nodes: attributes, classes,
// inline styles, and children.  None of them lock; callers hold the
// Document mutex.

package dom

import (
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func attrOr(n *html.Node, key, def string) string {
	if v, ok := attr(n, key); ok {
		return v
	}
	return def
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

func hasAttr(n *html.Node, key string) bool {
	_, ok := attr(n, key)
	return ok
}

// -----------------------------------------------------------------------------
// Classes
// -----------------------------------------------------------------------------

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attrOr(n, "class", "")) {
		if c == class {
			return true
		}
	}
	return false
}

func addClass(n *html.Node, class string) {
	if hasClass(n, class) {
		return
	}
	cur := strings.TrimSpace(attrOr(n, "class", ""))
	if cur == "" {
		setAttr(n, "class", class)
		return
	}
	setAttr(n, "class", cur+" "+class)
}

func removeClass(n *html.Node, class string) {
	fields := strings.Fields(attrOr(n, "class", ""))
	out := fields[:0]
	for _, c := range fields {
		if c != class {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		removeAttr(n, "class")
		return
	}
	setAttr(n, "class", strings.Join(out, " "))
}

// -----------------------------------------------------------------------------
// Inline styles
// -----------------------------------------------------------------------------

type decl struct{ prop, val string }

func parseStyle(s string) []decl {
	var out []decl
	for _, part := range strings.Split(s, ";") {
		k, v, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		out = append(out, decl{k, strings.TrimSpace(v)})
	}
	return out
}

func writeStyle(n *html.Node, ds []decl) {
	if len(ds) == 0 {
		removeAttr(n, "style")
		return
	}
	parts := make([]string, len(ds))
	for i, d := range ds {
		parts[i] = d.prop + ": " + d.val
	}
	setAttr(n, "style", strings.Join(parts, "; ")+";")
}

// setStyle sets prop; an empty val removes it, as assigning "" to
// element.style.prop does.
func setStyle(n *html.Node, prop, val string) {
	ds := parseStyle(attrOr(n, "style", ""))
	for i, d := range ds {
		if d.prop == prop {
			if val == "" {
				ds = append(ds[:i], ds[i+1:]...)
			} else {
				ds[i].val = val
			}
			writeStyle(n, ds)
			return
		}
	}
	if val != "" {
		ds = append(ds, decl{prop, val})
	}
	writeStyle(n, ds)
}

func style(n *html.Node, prop string) string {
	for _, d := range parseStyle(attrOr(n, "style", "")) {
		if d.prop == prop {
			return d.val
		}
	}
	return ""
}

// -----------------------------------------------------------------------------
// Children and traversal
// -----------------------------------------------------------------------------

func removeChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
}

func setText(n *html.Node, text string) {
	removeChildren(n)
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

func innerHTML(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&sb, c)
	}
	return sb.String()
}

func setInnerHTML(n *html.Node, markup string) error {
	nodes, err := html.ParseFragment(strings.NewReader(markup), n)
	if err != nil {
		return fmt.Errorf("parse fragment: %w", err)
	}
	removeChildren(n)
	for _, c := range nodes {
		n.AppendChild(c)
	}
	return nil
}

func textOf(n *html.Node) string { return htmlquery.InnerText(n) }

func element(tag string, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

// walk visits n's descendants in document order until fn returns false.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && !fn(c) {
			return false
		}
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func findFirst(n *html.Node, pred func(*html.Node) bool) *html.Node {
	var hit *html.Node
	walk(n, func(c *html.Node) bool {
		if pred(c) {
			hit = c
			return false
		}
		return true
	})
	return hit
}

func findAll(n *html.Node, pred func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	walk(n, func(c *html.Node) bool {
		if pred(c) {
			out = append(out, c)
		}
		return true
	})
	return out
}

// queryOne runs a relative XPath under n.
func queryOne(n *html.Node, expr string) *html.Node {
	hit, err := htmlquery.Query(n, expr)
	if err != nil {
		return nil
	}
	return hit
}

// byID finds the descendant of n with the given id.  Ids containing quotes
// never match.
func byID(n *html.Node, id string) *html.Node {
	if id == "" || strings.ContainsAny(id, `'"`) {
		return nil
	}
	return queryOne(n, fmt.Sprintf(".//*[@id='%s']", id))
}
