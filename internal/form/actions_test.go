package form

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/yanizio/adept-booking/internal/message"
)

type fakeStore struct {
	table, formID string
	data          map[string]string
	err           error
}

func (f *fakeStore) SaveSubmission(_ context.Context, table, formID string, data map[string]string) error {
	f.table, f.formID, f.data = table, formID, data
	return f.err
}

type fakeMailer struct{ sent []message.Email }

func (f *fakeMailer) EnqueueEmail(_ context.Context, m message.Email) error {
	f.sent = append(f.sent, m)
	return nil
}

type fakeHooks struct{ reqs []*http.Request }

func (f *fakeHooks) EnqueueWebhook(_ context.Context, r *http.Request) error {
	f.reqs = append(f.reqs, r)
	return nil
}

func actionDef() *FormDef {
	return &FormDef{
		ID:    "booking/full",
		Title: "Booking",
		Fields: []FieldDef{
			{Name: FieldName, Label: "Name"},
			{Name: FieldEmail, Label: "Email"},
			{Name: FieldHoneypot},
		},
		Actions: []ActionDef{
			{Type: "store"},
			{Type: "email", Params: map[string]any{"to": []any{"office@example.com"}, "subject": "Booking from {name}"}},
			{Type: "webhook", Params: map[string]any{"url": "http://hooks.example/booking", "header.X-Token": "t"}},
			{Type: "pdf"},
		},
	}
}

func TestExecuteActions_AllRun(t *testing.T) {
	st, ml, wh := &fakeStore{}, &fakeMailer{}, &fakeHooks{}
	data := map[string]string{"name": "Jo", "email": "a@b.co", "country": "NZ"}

	failed := ExecuteActions(actionDef(), data, ActionCtx{
		Ctx: context.Background(), Store: st, Mailer: ml, Webhooks: wh,
	})
	if failed != 0 {
		t.Fatalf("failed = %d, want 0", failed)
	}

	if st.table != "booking_request" || st.formID != "booking/full" || st.data["name"] != "Jo" {
		t.Fatalf("store got %q %q %v", st.table, st.formID, st.data)
	}

	if len(ml.sent) != 1 {
		t.Fatalf("emails = %d", len(ml.sent))
	}
	if ml.sent[0].Subject != "Booking from Jo" {
		t.Fatalf("subject = %q", ml.sent[0].Subject)
	}
	if !strings.HasPrefix(ml.sent[0].Text, "Name: Jo\nEmail: a@b.co\ncountry: NZ\n") {
		t.Fatalf("body = %q", ml.sent[0].Text)
	}

	if len(wh.reqs) != 1 {
		t.Fatalf("webhooks = %d", len(wh.reqs))
	}
	r := wh.reqs[0]
	if r.Header.Get("X-Token") != "t" || r.Header.Get("Content-Type") != "application/json" {
		t.Fatalf("headers = %v", r.Header)
	}
	body, _ := io.ReadAll(r.Body)
	if gjson.GetBytes(body, "form_id").String() != "booking/full" || gjson.GetBytes(body, "country").String() != "NZ" {
		t.Fatalf("payload = %s", body)
	}
}

func TestExecuteActions_ErrorsCounted(t *testing.T) {
	st := &fakeStore{err: errors.New("db down")}
	failed := ExecuteActions(actionDef(), map[string]string{}, ActionCtx{Ctx: context.Background(), Store: st})
	// store fails, email and webhook have no collaborator.
	if failed != 3 {
		t.Fatalf("failed = %d, want 3", failed)
	}
}

func TestRunStore_RejectsBadTable(t *testing.T) {
	fd := &FormDef{ID: "x"}
	err := runStore(fd, map[string]any{"table": "x; DROP TABLE y"}, nil, ActionCtx{Ctx: context.Background(), Store: &fakeStore{}})
	if err == nil {
		t.Fatal("err = nil for bad table name")
	}
}
