// internal/notify/notify.go
//
// Transient, dismissible notifications.
//
// Context
// -------
// The booking workflow reports every outcome with a toast.  A Presenter owns
// the toast lifecycle and a Surface owns the pixels (an HTML document, a
// terminal, or a test recorder).  Toasts stack in arrival order; the most
// recent is appended last.
//
// Lifecycle
// ---------
//
//	Show ──► Append ──(Lifetime)──► Exit ──(ExitDelay)──► Remove
//	           └──── Dismiss ───────┘
//
// Notes
// -----
// • Text is escaped before it reaches the Surface, so a Surface may insert
//   Toast.HTML as markup.
// • Dismiss on a toast that is already leaving or gone does nothing.
// • Oxford commas, two spaces after periods.
package notify

import (
	"strings"
	"sync"
	"time"

	"github.com/yanizio/adept-booking/internal/clock"
)

// Severity selects the toast style.
type Severity string

const (
	Success Severity = "success"
	Danger  Severity = "danger"
)

// ID identifies one toast for the lifetime of a Presenter.
type ID int

// Toast is what a Surface renders.
type Toast struct {
	ID       ID
	Severity Severity
	Text     string // as supplied
	HTML     string // escaped Text
}

// Surface displays toasts.  Calls for one toast always arrive in the order
// Append, Exit, Remove.
type Surface interface {
	Append(t Toast)
	Exit(id ID)
	Remove(id ID)
}

// Default timings.
const (
	DefaultLifetime  = 5 * time.Second
	DefaultExitDelay = 400 * time.Millisecond
)

// Options tunes a Presenter.  Zero fields take the defaults.
type Options struct {
	Lifetime  time.Duration
	ExitDelay time.Duration
}

// Presenter shows toasts on a Surface.
type Presenter struct {
	surface Surface
	clk     clock.Clock
	opts    Options

	mu   sync.Mutex
	next ID
	live map[ID]*entry
}

type entry struct {
	auto    clock.Timer
	leaving bool
}

// New returns a Presenter drawing on s.
func New(s Surface, clk clock.Clock, opts Options) *Presenter {
	if opts.Lifetime <= 0 {
		opts.Lifetime = DefaultLifetime
	}
	if opts.ExitDelay <= 0 {
		opts.ExitDelay = DefaultExitDelay
	}
	return &Presenter{surface: s, clk: clk, opts: opts, live: make(map[ID]*entry)}
}

// Show appends a toast and schedules its auto-dismiss.
func (p *Presenter) Show(text string, sev Severity) ID {
	p.mu.Lock()
	p.next++
	id := p.next
	e := &entry{}
	p.live[id] = e
	p.mu.Unlock()

	p.surface.Append(Toast{ID: id, Severity: sev, Text: text, HTML: Escape(text)})

	t := p.clk.AfterFunc(p.opts.Lifetime, func() { p.Dismiss(id) })
	p.mu.Lock()
	e.auto = t
	p.mu.Unlock()
	return id
}

// Dismiss starts the exit transition for id.  It reports whether it did
// anything.
func (p *Presenter) Dismiss(id ID) bool {
	p.mu.Lock()
	e, ok := p.live[id]
	if !ok || e.leaving {
		p.mu.Unlock()
		return false
	}
	e.leaving = true
	if e.auto != nil {
		e.auto.Stop()
	}
	p.mu.Unlock()

	p.surface.Exit(id)
	p.clk.AfterFunc(p.opts.ExitDelay, func() {
		p.mu.Lock()
		delete(p.live, id)
		p.mu.Unlock()
		p.surface.Remove(id)
	})
	return true
}

// Live reports how many toasts are on the surface, leaving ones included.
func (p *Presenter) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.live)
}

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// Escape replaces the five markup-significant characters with entities.
func Escape(s string) string { return escaper.Replace(s) }
