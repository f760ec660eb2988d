// internal/driver/driver.go
//
// Headless booking client.
//
// Context
// -------
// The driver does what a visitor's browser does with the booking page, but
// without a browser:
//
//  1. GET the page and parse it into a dom.Document.
//  2. Read the client timings from the `#booking-settings` data attributes.
//  3. Type each value into the first <form> and blur the field.
//  4. Submit through workflow.Orchestrator, posting JSON to the form's
//     action resolved against the page URL.
//  5. Wait for the outcome toast and, on success, for the navigation.
//
// cmd/formctl is a thin cobra wrapper around Run; the integration test
// drives the booking component end to end through it.
//
// Notes
// -----
// • Requests carry a browser User-Agent.  The server drops submissions
//   from clients it classifies as bots, and a bare Go client may be one.
// • Oxford commas, two spaces after periods.
package driver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/adept-booking/internal/clock"
	"github.com/yanizio/adept-booking/internal/dom"
	"github.com/yanizio/adept-booking/internal/form"
	"github.com/yanizio/adept-booking/internal/notify"
	"github.com/yanizio/adept-booking/internal/transport"
	"github.com/yanizio/adept-booking/internal/workflow"
)

// DefaultUserAgent identifies the driver as a desktop browser.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// SettingsID is the element whose data attributes carry the client timings.
const SettingsID = "booking-settings"

// ErrPage is returned when the booking page cannot be loaded.
var ErrPage = errors.New("driver: booking page unavailable")

// Options configures one Run.
type Options struct {
	URL       string                  // booking page
	Values    map[form.FieldID]string // typed in AllFields order
	UserAgent string                  // empty means DefaultUserAgent
	Client    *http.Client            // nil gets a 30 s timeout
	Clock     clock.Clock             // nil means clock.Real
	Log       *zap.SugaredLogger

	// ValidateOnly fills and validates the form but sends nothing.
	ValidateOnly bool
	// Follow fetches the page the workflow navigates to after success.
	Follow bool
	// Surface, when set, receives every toast alongside the document.
	Surface notify.Surface
	// OnState observes workflow transitions.
	OnState func(from, to workflow.State)
}

// Report is what happened.
type Report struct {
	FormID   string
	Verdict  form.Verdict
	Result   form.Result
	Errors   map[form.FieldID]string // inline errors left on the page
	Toasts   []dom.ToastView         // toasts still on the page
	Location string                  // navigation target, "" when none
	Landing  string                  // <title> of the followed page
	Document *dom.Document
}

// Outcome is shorthand for Result.Outcome.
func (r *Report) Outcome() form.Outcome { return r.Result.Outcome }

// Run loads the booking page, fills it, and submits it unless
// opts.ValidateOnly is set.
func Run(ctx context.Context, opts Options) (*Report, error) {
	if opts.Log == nil {
		opts.Log = zap.NewNop().Sugar()
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	client := browserClient(opts.Client, opts.UserAgent)

	pageURL, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("driver: page url: %w", err)
	}
	doc, err := fetch(ctx, client, pageURL.String())
	if err != nil {
		return nil, err
	}
	f, err := doc.FirstForm()
	if err != nil {
		return nil, err
	}
	view := &navView{Form: f, nav: make(chan string, 1)}
	rep := &Report{FormID: f.ID(), Document: doc}

	cfg, nopts := settings(doc.Dataset(SettingsID))
	presenter := notify.New(surfaces{doc, opts.Surface}, opts.Clock, nopts)

	action, err := pageURL.Parse(f.Action())
	if err != nil {
		return nil, fmt.Errorf("driver: form action: %w", err)
	}
	orch := workflow.New(cfg, workflow.Deps{
		View:      view,
		Transport: transport.NewHTTP(action.String(), client),
		Notifier:  presenter,
		Clock:     opts.Clock,
		Log:       opts.Log,
		OnState:   opts.OnState,
	})

	if err := fill(f, orch, opts.Values); err != nil {
		return nil, err
	}

	if opts.ValidateOnly {
		rep.Verdict = form.NewValidator().Validate(f)
		if !rep.Verdict.Valid {
			rep.Result = form.Result{Outcome: form.OutcomeInvalid}
		}
		return rep.collect(f), nil
	}

	opts.Log.Infow("driver submitting", "form", rep.FormID, "endpoint", action.String())
	att := orch.Submit(ctx)
	rep.Verdict = att.Verdict()
	if rep.Result, err = att.Wait(ctx); err != nil {
		return rep.collect(f), err
	}

	if rep.Result.Outcome == form.OutcomeSucceeded {
		select {
		case rep.Location = <-view.nav:
		case <-ctx.Done():
			return rep.collect(f), ctx.Err()
		}
		if opts.Follow {
			if err := rep.follow(ctx, client, pageURL); err != nil {
				opts.Log.Warnw("driver follow failed", "location", rep.Location, "err", err)
			}
		}
	}
	return rep.collect(f), nil
}

// Load fetches the page the way Run does and returns its first form.  The
// interactive prompt in cmd/formctl uses it to learn which fields exist.
func Load(ctx context.Context, pageURL, ua string) (*dom.Document, *dom.Form, error) {
	doc, err := fetch(ctx, browserClient(nil, ua), pageURL)
	if err != nil {
		return nil, nil, err
	}
	f, err := doc.FirstForm()
	if err != nil {
		return nil, nil, err
	}
	return doc, f, nil
}

// fill types every value and blurs the field, the way a visitor tabs
// through the form.
func fill(f *dom.Form, orch *workflow.Orchestrator, values map[form.FieldID]string) error {
	for _, id := range form.AllFields {
		v, ok := values[id]
		if !ok {
			continue
		}
		if err := f.Set(id, v); err != nil {
			return err
		}
		orch.Blur(id)
	}
	return nil
}

func (r *Report) collect(f *dom.Form) *Report {
	r.Errors = make(map[form.FieldID]string)
	for _, id := range form.AllFields {
		if msg, ok := f.FieldError(id); ok {
			r.Errors[id] = msg
		}
	}
	r.Toasts = r.Document.Toasts()
	return r
}

func (r *Report) follow(ctx context.Context, client *http.Client, base *url.URL) error {
	u, err := base.Parse(r.Location)
	if err != nil {
		return err
	}
	doc, err := fetch(ctx, client, u.String())
	if err != nil {
		return err
	}
	r.Landing = doc.Title()
	return nil
}

// -----------------------------------------------------------------------------
// Page loading
// -----------------------------------------------------------------------------

func fetch(ctx context.Context, client *http.Client, u string) (*dom.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPage, err)
	}
	req.Header.Set("Accept", "text/html")
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPage, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %d", ErrPage, u, resp.StatusCode)
	}
	return dom.Parse(resp.Body)
}

// settings reads millisecond timings from the page.  Missing or malformed
// attributes leave the package defaults in place.
func settings(ds map[string]string) (workflow.Config, notify.Options) {
	ms := func(key string) time.Duration {
		n, err := strconv.ParseInt(ds[key], 10, 64)
		if err != nil || n < 0 {
			return 0
		}
		return time.Duration(n) * time.Millisecond
	}
	return workflow.Config{
			DispatchDelay: ms("dispatch-delay"),
			RedirectDelay: ms("redirect-delay"),
			RedirectURL:   ds["redirect-url"],
		}, notify.Options{
			Lifetime:  ms("toast-lifetime"),
			ExitDelay: ms("toast-exit-delay"),
		}
}

// -----------------------------------------------------------------------------
// Plumbing
// -----------------------------------------------------------------------------

// navView reports the workflow's navigation on a channel.
type navView struct {
	*dom.Form
	nav chan string
}

func (v *navView) Navigate(u string) {
	v.Form.Navigate(u)
	select {
	case v.nav <- u:
	default:
	}
}

// surfaces fans toasts out to the document and an optional extra surface.
type surfaces [2]notify.Surface

func (s surfaces) Append(t notify.Toast) {
	for _, x := range s {
		if x != nil {
			x.Append(t)
		}
	}
}

func (s surfaces) Exit(id notify.ID) {
	for _, x := range s {
		if x != nil {
			x.Exit(id)
		}
	}
}

func (s surfaces) Remove(id notify.ID) {
	for _, x := range s {
		if x != nil {
			x.Remove(id)
		}
	}
}

type uaTransport struct {
	base http.RoundTripper
	ua   string
}

func (t uaTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("User-Agent", t.ua)
	return t.base.RoundTrip(r)
}

// browserClient copies c and stamps every request with ua.
func browserClient(c *http.Client, ua string) *http.Client {
	if ua == "" {
		ua = DefaultUserAgent
	}
	out := &http.Client{Timeout: 30 * time.Second}
	if c != nil {
		cp := *c
		out = &cp
	}
	base := out.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	out.Transport = uaTransport{base: base, ua: ua}
	return out
}
