// internal/form/actions.go
//
// Adept Booking – Forms subsystem: post-submit actions.
//
// Context
//   A FormDef may contain default actions.  ExecuteActions dispatches to
//   runEmail, runStore, or runWebhook after server-side validation.  The
//   collaborators arrive through ActionCtx so the forms package never
//   reaches for globals, and a nil collaborator simply disables its action.
//
// Style
//   Two-space sentence spacing, Oxford comma, concise inline notes.
//
//------------------------------------------------------------------------------

package form

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/yanizio/adept-booking/internal/logger"
	"github.com/yanizio/adept-booking/internal/message"
	"github.com/yanizio/adept-booking/internal/metrics"
)

// Storer persists a validated submission.
type Storer interface {
	SaveSubmission(ctx context.Context, table, formID string, data map[string]string) error
}

// EmailQueue accepts outbound email.
type EmailQueue interface {
	EnqueueEmail(ctx context.Context, msg message.Email) error
}

// WebhookQueue accepts outbound HTTP requests.
type WebhookQueue interface {
	EnqueueWebhook(ctx context.Context, req *http.Request) error
}

// ActionCtx carries request-scoped helpers for action execution.
type ActionCtx struct {
	Ctx      context.Context
	Store    Storer
	Mailer   EmailQueue
	Webhooks WebhookQueue
}

// ExecuteActions performs all YAML-declared actions.  Errors are logged and
// counted but not returned, keeping the visitor's flow uninterrupted.  The
// number of failed actions is returned for callers that want to log it.
func ExecuteActions(fd *FormDef, data map[string]string, actx ActionCtx) int {
	if fd == nil || len(fd.Actions) == 0 {
		return 0
	}

	failed := 0
	for _, ac := range fd.Actions {
		var err error
		switch ac.Type {
		case "email":
			err = runEmail(fd, ac.Params, data, actx)
		case "store":
			err = runStore(fd, ac.Params, data, actx)
		case "webhook":
			err = runWebhook(fd, ac.Params, data, actx)
		default:
			logWarn(actx, fd.ID, ac.Type, "unsupported action")
			continue
		}
		if err != nil {
			failed++
			metrics.ActionErrorsTotal.WithLabelValues(ac.Type).Inc()
			logErr(actx, fd.ID, ac.Type, err)
		}
	}
	return failed
}

// -----------------------------------------------------------------------------
// Email action
// -----------------------------------------------------------------------------

func runEmail(fd *FormDef, p map[string]any, data map[string]string, actx ActionCtx) error {
	if actx.Mailer == nil {
		return fmt.Errorf("no mailer configured")
	}

	// Recipients
	var to []string
	switch v := p["to"].(type) {
	case string:
		to = []string{v}
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok {
				to = append(to, s)
			}
		}
	default:
		return fmt.Errorf("'to' parameter missing or invalid")
	}
	if len(to) == 0 {
		return fmt.Errorf("'to' parameter empty")
	}

	subject, _ := p["subject"].(string)
	if subject == "" {
		subject = fmt.Sprintf("Booking request: %s", fd.Title)
	}
	subject = expand(subject, data)

	return actx.Mailer.EnqueueEmail(actx.Ctx, message.Email{
		To:      to,
		Subject: subject,
		Text:    emailBody(fd, data),
	})
}

// emailBody lists declared fields first, in form order, with their labels.
func emailBody(fd *FormDef, data map[string]string) string {
	var b strings.Builder
	for _, f := range fd.Fields {
		if f.Name == FieldHoneypot {
			continue
		}
		label := f.Label
		if label == "" {
			label = f.Name.Key()
		}
		fmt.Fprintf(&b, "%s: %s\n", label, data[f.Name.Key()])
	}
	// Extra enrichment keys (country, user agent) follow alphabetically.
	var extra []string
	for k := range data {
		if FieldID(k).Known() || strings.HasPrefix(k, "_") {
			continue
		}
		extra = append(extra, k)
	}
	sort.Strings(extra)
	for _, k := range extra {
		fmt.Fprintf(&b, "%s: %s\n", k, data[k])
	}
	return b.String()
}

var placeholderRe = regexp.MustCompile(`\{([a-z_]+)\}`)

// expand replaces {key} with data[key].
func expand(s string, data map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(s, func(m string) string {
		return data[m[1:len(m)-1]]
	})
}

// -----------------------------------------------------------------------------
// Store action
// -----------------------------------------------------------------------------

var tableNameRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

func runStore(fd *FormDef, p map[string]any, data map[string]string, actx ActionCtx) error {
	if actx.Store == nil {
		return fmt.Errorf("no store configured")
	}
	table, _ := p["table"].(string)
	if table == "" {
		table = "booking_request"
	}
	if !tableNameRe.MatchString(table) {
		return fmt.Errorf("invalid table name %q", table)
	}
	return actx.Store.SaveSubmission(actx.Ctx, table, fd.ID, data)
}

// -----------------------------------------------------------------------------
// Webhook action
// -----------------------------------------------------------------------------

func runWebhook(fd *FormDef, p map[string]any, data map[string]string, actx ActionCtx) error {
	if actx.Webhooks == nil {
		return fmt.Errorf("no webhook queue configured")
	}
	url, ok := p["url"].(string)
	if !ok || url == "" {
		return fmt.Errorf("webhook action requires 'url'")
	}
	method, _ := p["method"].(string)
	if method == "" {
		method = http.MethodPost
	}

	payload, err := webhookPayload(fd, data)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(actx.Ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range p {
		if strings.HasPrefix(k, "header.") {
			req.Header.Set(strings.TrimPrefix(k, "header."), fmt.Sprint(v))
		}
	}
	return actx.Webhooks.EnqueueWebhook(actx.Ctx, req)
}

// webhookPayload emits form fields in form order followed by the rest.
func webhookPayload(fd *FormDef, data map[string]string) ([]byte, error) {
	var pairs []Pair
	seen := make(map[string]bool, len(data))
	for _, f := range fd.Fields {
		if f.Name == FieldHoneypot {
			seen[f.Name.Key()] = true
			continue
		}
		if v, ok := data[f.Name.Key()]; ok {
			pairs = append(pairs, Pair{Name: f.Name.Key(), Value: v})
			seen[f.Name.Key()] = true
		}
	}
	var rest []string
	for k := range data {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		pairs = append(pairs, Pair{Name: k, Value: data[k]})
	}
	pairs = append(pairs, Pair{Name: "form_id", Value: fd.ID})
	return Submission{Pairs: pairs}.MarshalJSON()
}

// -----------------------------------------------------------------------------
// Logging helpers
// -----------------------------------------------------------------------------

func logErr(actx ActionCtx, formID, action string, err error) {
	logger.FromContext(actx.Ctx).Errorw(
		"form action failed",
		"form", formID, "action", action, "error", err.Error(),
	)
}

func logWarn(actx ActionCtx, formID, action, msg string) {
	logger.FromContext(actx.Ctx).Warnw(
		"form action warning",
		"form", formID, "action", action, "warning", msg,
	)
}
