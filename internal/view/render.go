// internal/view/render.go
//
// Central view engine: template lookup, override chain, func-map injection,
// and an LRU of parsed *template.Template* sets, exported on /metrics as
// booking_template_cache_*.
//
// Public helpers
// --------------
//   - Render         – write rendered HTML to an http.ResponseWriter.
//   - RenderToString – return template.HTML (fragments, e-mails).
//
// Lookup precedence (first hit wins):
//   1. <overrideRoot>/components/<comp>/templates/<tpl>.html   (disk)
//   2. templates/<tpl>.html inside the component's embedded FS
//
// All templates in the same directory are parsed as one set so sub-templates
// ({{ template "layout" . }}) work out-of-the-box.
//
// execName() chooses the template to execute:
//   – If the set contains "<name>.html", we run that (file has no define).
//   – Else we fall back to "<name>" (root template defined via {{ define }}).
//
// Style
// -----
// • Oxford commas, two spaces after periods.

package view

import (
	"bytes"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/yanizio/adept-booking/internal/cache"
	"github.com/yanizio/adept-booking/internal/metrics"
)

//
// cache definitions
//

// CachePolicy hints how the caller wants this template cached.
type CachePolicy int

const (
	CacheDefault CachePolicy = iota // parse once, reuse
	CacheSkip                       // never cache
)

// Parsed template sets; tweak capacity when perf-testing.
var tmplLRU = cache.New[string, *template.Template](256)

// Purge drops every parsed set so edited overrides are re-read.
func Purge() { tmplLRU.Purge() }

func init() { metrics.RegisterCache("template", tmplLRU.Stats) }

//
// engine
//

// Engine renders one component's templates.
type Engine struct {
	comp         string
	fsys         fs.FS  // embedded defaults, rooted so "templates/x.html" exists
	overrideRoot string // "" disables disk overrides
}

// New returns an Engine for comp.  fsys holds the component's embedded
// templates; overrideRoot is usually cfg.Paths.Root.
func New(comp string, fsys fs.FS, overrideRoot string) *Engine {
	return &Engine{comp: comp, fsys: fsys, overrideRoot: overrideRoot}
}

//
// public helpers
//

// Render executes the template set and streams it to w.
//
// The set is executed into a buffer first so a template error becomes a
// clean 500 instead of a half-written page.
func (e *Engine) Render(w http.ResponseWriter, name string, data any, policy CachePolicy) error {
	t, err := e.load(name, policy)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, execName(t, name), data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err = buf.WriteTo(w)
	return err
}

// RenderToString executes and returns HTML.  It mirrors Render, but
// writes to a buffer instead of w.
func (e *Engine) RenderToString(name string, data any) (template.HTML, error) {
	t, err := e.load(name, CacheDefault)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, execName(t, name), data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

//
// internal: load
//

// load finds and (if necessary) parses the template set for the component
// and base name, obeying the provided cache policy.
func (e *Engine) load(name string, policy CachePolicy) (*template.Template, error) {
	key := strings.Join([]string{e.overrideRoot, e.comp, name}, "::")

	if policy != CacheSkip {
		if t, ok := tmplLRU.Get(key); ok {
			return t, nil
		}
	}

	t, err := e.parse(name)
	if err != nil {
		return nil, err
	}

	if policy != CacheSkip {
		tmplLRU.Put(key, t)
	}
	return t, nil
}

func (e *Engine) parse(name string) (*template.Template, error) {
	if e.overrideRoot != "" {
		p := filepath.Join(e.overrideRoot, "components", e.comp, "templates", name+".html")
		if _, err := os.Stat(p); err == nil {
			// Parse all *.html in the same directory so sub-templates work.
			pattern := filepath.Join(filepath.Dir(p), "*.html")
			return template.New(name).Funcs(buildFuncMap()).ParseGlob(pattern)
		}
	}

	if e.fsys == nil {
		return nil, os.ErrNotExist
	}
	if _, err := fs.Stat(e.fsys, "templates/"+name+".html"); err != nil {
		return nil, err
	}
	return template.New(name).Funcs(buildFuncMap()).ParseFS(e.fsys, "templates/*.html")
}

//
// func-map builders
//

func buildFuncMap() template.FuncMap {
	fm := template.FuncMap{
		"dict": dict,
	}
	for k, v := range uaFuncMap() { // request helpers (language, device)
		fm[k] = v
	}
	return fm
}

//
// helpers
//

// execName picks the template name to execute.
//
// Priority:
//  1. If the set has "<name>.html" (file-based template), run that.
//  2. Otherwise, fall back to "<name>" (root template defined in code).
func execName(t *template.Template, name string) string {
	if tmpl := t.Lookup(name + ".html"); tmpl != nil {
		return name + ".html"
	}
	return name
}

// dict builds a map in templates: {{ dict "k" 1 "k2" "v" }}.
func dict(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		m[key] = kv[i+1]
	}
	return m
}
