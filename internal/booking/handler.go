// internal/booking/handler.go
//
// The process endpoint: POST /process.
//
/*
Context
--------
The booking page posts one flat JSON object and reads back
`{"success":bool,"message":string}`.  A business failure (bad field,
expired form) is still a 200 so the page shows the server's message; only
a body the server cannot read at all earns a 400.

Workflow
--------
  1. Decode the flat object (gjson), reject nesting.
  2. Resolve the FormDef from `form_id`, falling back to the default form.
  3. Bot user agents and a filled honeypot get a silent `success:false`.
  4. form.CheckSubmission: CSRF, render timing, and the field rules.
  5. Strip markup from every value (bluemonday strict policy).
  6. Attach country and user agent from requestinfo, then validate the
     typed Request (lengths, catalog membership).
  7. Run the form's YAML actions and answer `success:true`.

Instrumentation
---------------
  • booking_submissions_total{outcome} once per request.
  • booking_spam_total{reason} for bot and honeypot drops.
  • booking_process_seconds around the whole handler.

Notes
-----
  • Action failures are logged and counted, never shown to the visitor.
  • Oxford commas, two spaces after periods.
*/
package booking

import (
	"errors"
	"html"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"github.com/yanizio/adept-booking/internal/form"
	"github.com/yanizio/adept-booking/internal/logger"
	"github.com/yanizio/adept-booking/internal/metrics"
	"github.com/yanizio/adept-booking/internal/requestinfo"
)

// Enrichment keys added to the clean map.
const (
	KeyCountry   = "country"
	KeyUserAgent = "user_agent"
)

// MaxBodyBytes caps the request body.
const MaxBodyBytes = 64 << 10

// Messages sent back to the page.
const (
	MsgInvalid    = "Please correct the highlighted fields."
	MsgBadRequest = "Malformed request."
)

// Config holds the endpoint's tunables.
type Config struct {
	DefaultForm string        // used when the body carries no form_id
	MinFill     time.Duration // fastest plausible human fill time
	CSRF        *form.CSRF    // nil disables the token check
	Now         func() time.Time
}

// Deps are the collaborators behind the form actions.  Any may be nil.
type Deps struct {
	Catalog  *Catalog
	Store    form.Storer
	Mailer   form.EmailQueue
	Webhooks form.WebhookQueue
	Log      *zap.SugaredLogger
}

// Handler serves the process endpoint.
type Handler struct {
	cfg      Config
	deps     Deps
	validate *validator.Validate
}

// NewHandler wires a Handler.
func NewHandler(cfg Config, deps Deps) *Handler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if deps.Log == nil {
		deps.Log = zap.S()
	}
	return &Handler{cfg: cfg, deps: deps, validate: NewValidate()}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { metrics.ProcessSeconds.Observe(time.Since(start).Seconds()) }()

	log := h.deps.Log.With(requestinfo.FromContext(r.Context()).LogFields()...)
	ctx := logger.WithContext(r.Context(), log)

	values, err := decodeFlat(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		log.Infow("process body rejected", "err", err)
		h.finish(w, "malformed", http.StatusBadRequest, reply{Message: MsgBadRequest})
		return
	}

	formID := values[form.MetaFormID]
	if formID == "" {
		formID = h.cfg.DefaultForm
	}
	fd, ok := form.GetFormDef(formID)
	if !ok {
		log.Infow("process unknown form", "form", formID)
		h.finish(w, "malformed", http.StatusBadRequest, reply{Message: MsgBadRequest})
		return
	}

	// -------------------------------------------------------------------------
	// Automated traffic
	// -------------------------------------------------------------------------
	info := requestinfo.FromContext(ctx)
	if info != nil && info.UA.IsBot {
		h.spam(w, log, "bot", fd.ID)
		return
	}

	clean, err := form.CheckSubmission(fd, values, form.Guard{
		CSRF:    h.cfg.CSRF,
		MinFill: h.cfg.MinFill,
		Now:     h.cfg.Now,
	})
	switch {
	case errors.Is(err, form.ErrTrapped):
		h.spam(w, log, "honeypot", fd.ID)
		return
	case form.IsValidationError(err):
		log.Infow("process validation failed", "form", fd.ID, "fields", len(form.ValidationFields(err)))
		h.finish(w, "invalid", http.StatusOK, invalidReply(err))
		return
	case err != nil:
		log.Errorw("process check failed", "form", fd.ID, "err", err)
		h.finish(w, "failed", http.StatusInternalServerError, reply{Message: MsgBadRequest})
		return
	}

	// -------------------------------------------------------------------------
	// Clean, enrich, validate the typed model
	// -------------------------------------------------------------------------
	for k, v := range clean {
		clean[k] = StripMarkup(v)
	}
	if info != nil {
		if info.Geo.CountryISO != "" {
			clean[KeyCountry] = info.Geo.CountryISO
		}
		if info.UA.Raw != "" {
			clean[KeyUserAgent] = truncate(info.UA.Raw, 512)
		}
	}

	vctx := WithServiceCheck(ctx, func(slug string) bool {
		return h.deps.Catalog.Allowed(ctx, fd, slug)
	})
	if err := ValidateRequest(vctx, h.validate, NewRequest(clean)); err != nil {
		if !form.IsValidationError(err) {
			log.Errorw("process struct validation error", "form", fd.ID, "err", err)
			h.finish(w, "failed", http.StatusInternalServerError, reply{Message: MsgBadRequest})
			return
		}
		log.Infow("process request rejected", "form", fd.ID, "fields", len(form.ValidationFields(err)))
		h.finish(w, "invalid", http.StatusOK, invalidReply(err))
		return
	}

	// -------------------------------------------------------------------------
	// Actions
	// -------------------------------------------------------------------------
	failed := form.ExecuteActions(fd, clean, form.ActionCtx{
		Ctx:      ctx,
		Store:    h.deps.Store,
		Mailer:   h.deps.Mailer,
		Webhooks: h.deps.Webhooks,
	})
	log.Infow("booking accepted", "form", fd.ID, "failed_actions", failed)
	h.finish(w, "succeeded", http.StatusOK, reply{Success: true})
}

func (h *Handler) spam(w http.ResponseWriter, log *zap.SugaredLogger, reason, formID string) {
	metrics.SpamTotal.WithLabelValues(reason).Inc()
	log.Infow("process dropped automated submission", "form", formID, "reason", reason)
	h.finish(w, "spam", http.StatusOK, reply{})
}

func (h *Handler) finish(w http.ResponseWriter, outcome string, status int, rep reply) {
	metrics.SubmissionsTotal.WithLabelValues(outcome).Inc()
	writeReply(w, status, rep)
}

// -----------------------------------------------------------------------------
// Request decoding
// -----------------------------------------------------------------------------

var errNotFlat = errors.New("booking: body must be a flat JSON object")

// decodeFlat reads one JSON object whose values are scalars.  Booleans map
// to "on" / "" the way a checkbox posts, numbers keep their raw text, and
// null reads as absent.
func decodeFlat(r io.Reader) (map[string]string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(raw) {
		return nil, errNotFlat
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return nil, errNotFlat
	}

	out := make(map[string]string)
	var bad bool
	root.ForEach(func(k, v gjson.Result) bool {
		switch v.Type {
		case gjson.String:
			out[k.String()] = v.String()
		case gjson.Number:
			out[k.String()] = v.Raw
		case gjson.True:
			out[k.String()] = "on"
		case gjson.False:
			out[k.String()] = ""
		case gjson.Null:
		default:
			bad = true
			return false
		}
		return true
	})
	if bad {
		return nil, errNotFlat
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Markup stripping
// -----------------------------------------------------------------------------

var (
	stripOnce   sync.Once
	stripPolicy *bluemonday.Policy
)

// StripMarkup removes every tag from s and returns plain text.  Entities
// produced by the sanitiser are decoded again so "Tom & Jerry" survives.
func StripMarkup(s string) string {
	stripOnce.Do(func() { stripPolicy = bluemonday.StrictPolicy() })
	if !strings.ContainsAny(s, "<>&") {
		return s
	}
	return strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(s)))
}

// -----------------------------------------------------------------------------
// Replies
// -----------------------------------------------------------------------------

type reply struct {
	Success bool
	Message string
	Errors  []form.ErrorField
}

// invalidReply lifts form-level messages (no field name) into Message and
// keeps the rest as the errors object.
func invalidReply(err error) reply {
	rep := reply{Message: MsgInvalid}
	for _, fe := range form.ValidationFields(err) {
		if fe.Name == "" {
			rep.Message = fe.Message
			continue
		}
		rep.Errors = append(rep.Errors, fe)
	}
	return rep
}

func writeReply(w http.ResponseWriter, status int, rep reply) {
	body, _ := sjson.SetBytes([]byte(`{}`), "success", rep.Success)
	if rep.Message != "" {
		body, _ = sjson.SetBytes(body, "message", rep.Message)
	}
	for _, fe := range rep.Errors {
		body, _ = sjson.SetBytes(body, "errors."+fe.Name, fe.Message)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
