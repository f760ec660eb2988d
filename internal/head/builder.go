// internal/head/builder.go
//
// Per-render <head> contents.
//
// Context
// -------
// Handlers describe the page head (title, meta tags, stylesheets, and
// JSON-LD) through a Builder, and the shared layout template emits it with
// {{ .Head.Render }}.  Values are escaped here, so handlers pass plain
// strings and never hand-build markup.
//
// Notes
// -----
// • Title: the last SetTitle wins.  Everything else is deduplicated on
//   its identifying attribute and kept in insertion order.
// • A Builder belongs to one render.  The mutex only protects helpers that
//   fill it from several goroutines.
package head

import (
	"encoding/json"
	"html/template"
	"strings"
	"sync"
)

// Builder collects the <head> of one page.
type Builder struct {
	mu sync.Mutex

	title  string
	tags   []string
	seen   map[string]struct{}
	jsonLD [][]byte
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{seen: make(map[string]struct{})}
}

// SetTitle sets the page title.
func (b *Builder) SetTitle(t string) {
	b.mu.Lock()
	b.title = t
	b.mu.Unlock()
}

// Title returns the plain title text.
func (b *Builder) Title() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.title
}

// Meta adds <meta name=… content=…>.  A later call with the same name is
// ignored.
func (b *Builder) Meta(name, content string) {
	b.add("meta:"+name, `<meta name="`+esc(name)+`" content="`+esc(content)+`">`)
}

// Stylesheet adds <link rel="stylesheet">.
func (b *Builder) Stylesheet(href string) {
	b.add("css:"+href, `<link rel="stylesheet" href="`+esc(href)+`">`)
}

// Canonical adds <link rel="canonical">.
func (b *Builder) Canonical(href string) {
	b.add("canonical", `<link rel="canonical" href="`+esc(href)+`">`)
}

// JSONLD adds a structured-data block.  v must marshal to JSON.
func (b *Builder) JSONLD(v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.jsonLD = append(b.jsonLD, raw)
	b.mu.Unlock()
	return nil
}

func (b *Builder) add(key, tag string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, dup := b.seen[key]; dup {
		return
	}
	b.seen[key] = struct{}{}
	b.tags = append(b.tags, tag)
}

// Render returns the <title>, the tags, and the JSON-LD blocks.
func (b *Builder) Render() template.HTML {
	b.mu.Lock()
	defer b.mu.Unlock()

	var sb strings.Builder
	if b.title != "" {
		sb.WriteString("<title>" + esc(b.title) + "</title>\n")
	}
	for _, t := range b.tags {
		sb.WriteString(t + "\n")
	}
	for _, js := range b.jsonLD {
		// json.Marshal escapes <, >, and & so the block cannot close the
		// script element early.
		sb.WriteString(`<script type="application/ld+json">` + string(js) + "</script>\n")
	}
	return template.HTML(sb.String())
}

func esc(s string) string { return template.HTMLEscapeString(s) }
