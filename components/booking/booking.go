// components/booking/booking.go
//
// Adept Booking component – booking page, process endpoint, thank-you page.
//
// Context
// -------
// GET  /booking    renders the configured form variant (?form=quick picks
//                  booking/quick) with a CSRF token, a render timestamp,
//                  and the client timings as data attributes.
// POST /process    accepts the flat JSON submission; see internal/booking.
// GET  /thank-you  the page the workflow navigates to after success.
//
// Form definitions and templates are embedded.  Operators override them
// on disk: `<forms_dir>/components/booking/forms/*.yaml` and
// `<root>/components/booking/templates/*.html` win over the embedded
// copies.
//
//------------------------------------------------------------------------------

package booking

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	bk "github.com/yanizio/adept-booking/internal/booking"
	"github.com/yanizio/adept-booking/internal/component"
	"github.com/yanizio/adept-booking/internal/config"
	"github.com/yanizio/adept-booking/internal/form"
	"github.com/yanizio/adept-booking/internal/head"
	"github.com/yanizio/adept-booking/internal/message"
	"github.com/yanizio/adept-booking/internal/requestinfo"
	"github.com/yanizio/adept-booking/internal/view"
)

//go:embed forms/*.yaml
var formsFS embed.FS

//go:embed templates/*.html
var templatesFS embed.FS

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Component serves the booking flow.  Zero value is ready for Init.
type Component struct {
	cfg      *config.Config
	log      *zap.SugaredLogger
	views    *view.Engine
	csrf     *form.CSRF
	catalog  *bk.Catalog
	process  *bk.Handler
	webhooks *message.Webhooks
}

/*────────────────── component.Component methods ───────────────────────────*/

// Name returns the canonical component key.
func (c *Component) Name() string { return "booking" }

// Migrations creates the request and service tables.
func (c *Component) Migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS booking_request (
		    id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		    form_id    VARCHAR(64)  NOT NULL,
		    name       VARCHAR(64)  NOT NULL,
		    email      VARCHAR(254) NOT NULL,
		    phone      VARCHAR(32)  NOT NULL DEFAULT '',
		    service    VARCHAR(64)  NOT NULL DEFAULT '',
		    message    TEXT         NOT NULL,
		    consent    BOOLEAN      NOT NULL DEFAULT FALSE,
		    country    CHAR(2)      NOT NULL DEFAULT '',
		    user_agent VARCHAR(512) NOT NULL DEFAULT '',
		    payload    JSON         NOT NULL,
		    created_at DATETIME(6)  NOT NULL,
		    KEY idx_booking_request_created (created_at)
		)`,
		`CREATE TABLE IF NOT EXISTS service (
		    slug       VARCHAR(64)  PRIMARY KEY,
		    name       VARCHAR(128) NOT NULL,
		    active     BOOLEAN      NOT NULL DEFAULT TRUE,
		    sort_order INT          NOT NULL DEFAULT 0
		)`,
	}
}

// Init loads form definitions and wires the process endpoint.
func (c *Component) Init(env component.Env) error {
	if env.Config == nil {
		return errors.New("booking: Init without config")
	}
	c.cfg = env.Config
	c.log = env.Log
	if c.log == nil {
		c.log = zap.S()
	}
	b := c.cfg.Booking

	if err := loadForms(b.FormsDir); err != nil {
		return err
	}
	fd, ok := form.GetFormDef(b.Form)
	if !ok {
		return errors.New("booking: configured form " + b.Form + " is not defined")
	}
	addNotify(b.NotifyTo)

	c.views = view.New(c.Name(), templatesFS, c.cfg.Paths.Root)
	c.csrf = form.NewCSRF(b.CSRFKey)
	c.catalog = bk.NewCatalog(env.DB, b.CatalogTTL)
	c.webhooks = message.NewWebhooks(nil, 10*time.Second, c.log)

	deps := bk.Deps{
		Catalog:  c.catalog,
		Mailer:   message.NewMailer(mailConfig(c.cfg.Mail), c.log),
		Webhooks: c.webhooks,
		Log:      c.log,
	}
	if env.DB != nil {
		deps.Store = bk.NewStore(env.DB)
	}
	c.process = bk.NewHandler(bk.Config{
		DefaultForm: fd.ID,
		MinFill:     b.MinFillTime,
		CSRF:        c.csrf,
	}, deps)

	c.log.Infow("booking component ready",
		"form", fd.ID, "forms", len(form.FormIDs()), "store", env.DB != nil)
	return nil
}

// Routes builds and returns the router mounted at “/”.
func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/booking", c.handlePage)
	r.Method(http.MethodPost, c.endpoint(), c.process)
	r.Get(c.redirectPath(), c.handleThankYou)
	return r
}

// Close waits for queued webhooks.  cmd/web calls it during shutdown.
func (c *Component) Close() {
	if c.webhooks != nil {
		c.webhooks.Wait()
	}
}

// Register component at program start.
func init() { component.Register(&Component{}) }

/*──────────────────────────── Handlers ─────────────────────────────────────*/

// Settings are the client timings, in milliseconds, embedded in the page.
type Settings struct {
	DispatchDelay  int64
	RedirectDelay  int64
	RedirectURL    string
	ToastLifetime  int64
	ToastExitDelay int64
}

func (c *Component) handlePage(w http.ResponseWriter, r *http.Request) {
	id := c.cfg.Booking.Form
	if v := r.URL.Query().Get("form"); v != "" {
		id = "booking/" + v
	}
	fd, ok := form.GetFormDef(id)
	if !ok {
		http.NotFound(w, r)
		return
	}

	markup, err := form.Render(fd, form.RenderOptions{
		Services: c.catalog.Options(r.Context()),
		Endpoint: c.endpoint(),
		CSRF:     c.csrf,
	})
	if err != nil {
		c.log.Errorw("booking form render failed", "form", id, "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	hd := pageHead(fd.Title)
	hd.Meta("description", "Request a booking. We reply within one working day.")
	hd.Canonical("/booking")

	b := c.cfg.Booking
	data := map[string]any{
		"Head":  hd,
		"Form":  markup,
		"Info":  requestinfo.FromContext(r.Context()),
		"Settings": Settings{
			DispatchDelay:  b.DispatchDelay.Milliseconds(),
			RedirectDelay:  b.RedirectDelay.Milliseconds(),
			RedirectURL:    b.RedirectURL,
			ToastLifetime:  b.ToastLifetime.Milliseconds(),
			ToastExitDelay: b.ToastExitDelay.Milliseconds(),
		},
	}
	w.Header().Set("Cache-Control", "no-store") // the CSRF token is per render
	c.render(w, "booking", data)
}

func (c *Component) handleThankYou(w http.ResponseWriter, r *http.Request) {
	hd := pageHead("Thank you")
	hd.Meta("robots", "noindex")
	c.render(w, "thank-you", map[string]any{
		"Head": hd,
		"Info": requestinfo.FromContext(r.Context()),
	})
}

func (c *Component) render(w http.ResponseWriter, name string, data any) {
	if err := c.views.Render(w, name, data, view.CacheDefault); err != nil {
		c.log.Errorw("booking template failed", "template", name, "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

/*──────────────────────────── Helpers ──────────────────────────────────────*/

// pageHead starts the <head> shared by every booking page.
func pageHead(title string) *head.Builder {
	hd := head.New()
	hd.SetTitle(title)
	hd.Meta("viewport", "width=device-width, initial-scale=1")
	hd.Stylesheet("/static/bootstrap.min.css")
	return hd
}

func (c *Component) endpoint() string {
	if c.cfg == nil || c.cfg.Booking.Endpoint == "" {
		return "/process"
	}
	return c.cfg.Booking.Endpoint
}

// redirectPath serves the thank-you page on the configured redirect path
// when it is local, so changing the redirect URL needs no code change.
func (c *Component) redirectPath() string {
	if c.cfg != nil && strings.HasPrefix(c.cfg.Booking.RedirectURL, "/") {
		return c.cfg.Booking.RedirectURL
	}
	return "/thank-you"
}

// loadForms registers disk overrides first, then the embedded defaults.
func loadForms(dir string) error {
	if dir != "" {
		if err := form.RegisterForms([]string{dir}); err != nil {
			return err
		}
	}
	sub, err := fs.Sub(formsFS, "forms")
	if err != nil {
		return err
	}
	return form.RegisterFormsFS(sub, ".")
}

// addNotify gives every booking form an email action to the configured
// recipients unless its YAML already declares one.
func addNotify(to []string) {
	if len(to) == 0 {
		return
	}
	rcpt := make([]any, 0, len(to))
	for _, a := range to {
		rcpt = append(rcpt, a)
	}
	for _, id := range form.FormIDs() {
		if !strings.HasPrefix(id, "booking/") {
			continue
		}
		fd, _ := form.GetFormDef(id)
		has := false
		for _, a := range fd.Actions {
			has = has || a.Type == "email"
		}
		if !has {
			fd.Actions = append(fd.Actions, form.ActionDef{
				Type:   "email",
				Params: map[string]any{"to": rcpt, "subject": "New booking from {name}"},
			})
		}
	}
}

func mailConfig(m config.Mail) message.MailConfig {
	return message.MailConfig{
		Host:     m.Host,
		Port:     m.Port,
		Username: m.Username,
		Password: m.Password,
		SSL:      m.SSL,
		From:     m.From,
		Timeout:  m.Timeout,
	}
}

// Ping reports whether the service catalog can be read.  Used by the
// readiness probe in cmd/web.
func (c *Component) Ping(ctx context.Context) error {
	_, err := c.catalog.Services(ctx)
	return err
}
