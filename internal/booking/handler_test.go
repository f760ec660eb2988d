package booking

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/yanizio/adept-booking/internal/form"
	"github.com/yanizio/adept-booking/internal/logger"
	"github.com/yanizio/adept-booking/internal/requestinfo"
)

const testFormYAML = `
id: booking-test/full
title: Book a session
fields:
  - name: name
    label: Your name
  - name: email
    label: Email
  - name: phone
    label: Phone
  - name: service
    label: Service
    options: [massage, facial]
  - name: message
    label: Message
  - name: consent
    label: I agree
  - name: website
actions:
  - type: store
`

var registerOnce sync.Once

func testForm(t *testing.T) *form.FormDef {
	t.Helper()
	registerOnce.Do(func() {
		fd, err := form.ParseFormDef([]byte(testFormYAML), "test.yaml")
		if err != nil {
			panic(err)
		}
		form.Register(fd)
	})
	fd, ok := form.GetFormDef("booking-test/full")
	require.True(t, ok)
	return fd
}

type saved struct {
	table, formID string
	data          map[string]string
}

type fakeStore struct {
	mu    sync.Mutex
	calls []saved
}

func (f *fakeStore) SaveSubmission(_ context.Context, table, formID string, data map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, saved{table, formID, data})
	return nil
}

var testNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func validBody() map[string]any {
	return map[string]any{
		"name":    "Jane Doe",
		"email":   "jane@example.com",
		"phone":   "+1 555 123 4567",
		"service": "massage",
		"message": "I would like to book a session.",
		"consent": "on",
		"website": "",

		form.MetaFormID:   "booking-test/full",
		form.MetaRenderTS: strconv.FormatInt(testNow.Add(-30*time.Second).UnixMicro(), 10),
	}
}

func newTestHandler(t *testing.T, store *fakeStore, mutate func(*Config)) *Handler {
	t.Helper()
	testForm(t)
	cfg := Config{
		DefaultForm: "booking-test/full",
		MinFill:     2 * time.Second,
		Now:         func() time.Time { return testNow },
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewHandler(cfg, Deps{Store: store, Log: logger.NewNop()})
}

func post(t *testing.T, h http.Handler, body any, ctxFn func(context.Context) context.Context) *httptest.ResponseRecorder {
	t.Helper()
	var raw string
	switch b := body.(type) {
	case string:
		raw = b
	default:
		buf, err := json.Marshal(b)
		require.NoError(t, err)
		raw = string(buf)
	}
	r := httptest.NewRequest(http.MethodPost, "/process", strings.NewReader(raw))
	r.Header.Set("Content-Type", "application/json")
	if ctxFn != nil {
		r = r.WithContext(ctxFn(r.Context()))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestProcessAcceptsValidBooking(t *testing.T) {
	store := &fakeStore{}
	h := newTestHandler(t, store, nil)

	body := validBody()
	body["message"] = "<b>Please</b> call me & confirm."
	w := post(t, h, body, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.True(t, gjson.Get(w.Body.String(), "success").Bool())

	require.Len(t, store.calls, 1)
	got := store.calls[0]
	assert.Equal(t, DefaultTable, got.table)
	assert.Equal(t, "booking-test/full", got.formID)
	assert.Equal(t, "Please call me & confirm.", got.data["message"])
	assert.Equal(t, "yes", got.data["consent"])
	assert.NotContains(t, got.data, "website")
	assert.NotContains(t, got.data, form.MetaRenderTS)
}

func TestProcessEnrichesFromRequestInfo(t *testing.T) {
	store := &fakeStore{}
	h := newTestHandler(t, store, nil)

	info := &requestinfo.RequestInfo{
		UA:  requestinfo.UA{Raw: "Mozilla/5.0 test"},
		Geo: requestinfo.Geo{CountryISO: "NZ"},
	}
	w := post(t, h, validBody(), func(ctx context.Context) context.Context {
		return requestinfo.WithInfo(ctx, info)
	})

	require.True(t, gjson.Get(w.Body.String(), "success").Bool(), w.Body.String())
	require.Len(t, store.calls, 1)
	assert.Equal(t, "NZ", store.calls[0].data[KeyCountry])
	assert.Equal(t, "Mozilla/5.0 test", store.calls[0].data[KeyUserAgent])
}

func TestProcessMalformedBody(t *testing.T) {
	h := newTestHandler(t, &fakeStore{}, nil)

	for name, body := range map[string]string{
		"not json":     `{"name":`,
		"array":        `[1,2]`,
		"nested":       `{"name":{"first":"Jane"}}`,
		"unknown form": `{"form_id":"nope"}`,
	} {
		w := post(t, h, body, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
		assert.False(t, gjson.Get(w.Body.String(), "success").Bool(), name)
	}
}

func TestProcessHoneypotIsSilent(t *testing.T) {
	store := &fakeStore{}
	h := newTestHandler(t, store, nil)

	body := validBody()
	body["website"] = "http://spam.example"
	body["email"] = "broken"
	w := post(t, h, body, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":false}`, w.Body.String())
	assert.Empty(t, store.calls)
}

func TestProcessBotIsSilent(t *testing.T) {
	store := &fakeStore{}
	h := newTestHandler(t, store, nil)

	info := &requestinfo.RequestInfo{UA: requestinfo.UA{IsBot: true}}
	w := post(t, h, validBody(), func(ctx context.Context) context.Context {
		return requestinfo.WithInfo(ctx, info)
	})

	assert.JSONEq(t, `{"success":false}`, w.Body.String())
	assert.Empty(t, store.calls)
}

func TestProcessFieldErrors(t *testing.T) {
	store := &fakeStore{}
	h := newTestHandler(t, store, nil)

	body := validBody()
	body["email"] = "not-an-email"
	delete(body, "consent")
	w := post(t, h, body, nil)

	require.Equal(t, http.StatusOK, w.Code)
	res := gjson.Parse(w.Body.String())
	assert.False(t, res.Get("success").Bool())
	assert.Equal(t, MsgInvalid, res.Get("message").String())
	assert.Equal(t, form.MsgEmail, res.Get("errors.email").String())
	assert.Equal(t, form.MsgConsent, res.Get("errors.consent").String())
	assert.False(t, res.Get("errors.name").Exists())
	assert.Empty(t, store.calls)
}

func TestProcessTiming(t *testing.T) {
	h := newTestHandler(t, &fakeStore{}, nil)

	body := validBody()
	body[form.MetaRenderTS] = strconv.FormatInt(testNow.Add(-500*time.Millisecond).UnixMicro(), 10)
	w := post(t, h, body, nil)
	assert.Contains(t, gjson.Get(w.Body.String(), "message").String(), "too quickly")

	body[form.MetaRenderTS] = strconv.FormatInt(testNow.Add(-time.Hour).UnixMicro(), 10)
	w = post(t, h, body, nil)
	assert.Contains(t, gjson.Get(w.Body.String(), "message").String(), "expired")
}

func TestProcessCSRF(t *testing.T) {
	csrf := form.NewCSRF("")
	store := &fakeStore{}
	h := newTestHandler(t, store, func(c *Config) { c.CSRF = csrf })

	body := validBody()
	body[form.MetaCSRF] = "forged"
	w := post(t, h, body, nil)
	assert.False(t, gjson.Get(w.Body.String(), "success").Bool())
	assert.Contains(t, gjson.Get(w.Body.String(), "message").String(), "Security token")

	tok, err := csrf.Generate()
	require.NoError(t, err)
	body[form.MetaCSRF] = tok
	w = post(t, h, body, nil)
	assert.True(t, gjson.Get(w.Body.String(), "success").Bool(), w.Body.String())
	assert.Len(t, store.calls, 1)
}

func TestProcessServiceMustBeListed(t *testing.T) {
	store := &fakeStore{}
	h := newTestHandler(t, store, nil)

	body := validBody()
	body["service"] = "yoga"
	w := post(t, h, body, nil)

	res := gjson.Parse(w.Body.String())
	assert.False(t, res.Get("success").Bool())
	assert.Equal(t, "Please select a service from the list", res.Get("errors.service").String())
	assert.Empty(t, store.calls)
}

func TestProcessMessageLengthCap(t *testing.T) {
	h := newTestHandler(t, &fakeStore{}, nil)

	body := validBody()
	body["message"] = strings.Repeat("a", 5001)
	w := post(t, h, body, nil)
	assert.Equal(t, "This value is too long", gjson.Get(w.Body.String(), "errors.message").String())
}

func TestDecodeFlat(t *testing.T) {
	got, err := decodeFlat(strings.NewReader(`{"a":"x","n":12.5,"t":true,"f":false,"z":null}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "x", "n": "12.5", "t": "on", "f": ""}, got)
}

func TestStripMarkup(t *testing.T) {
	cases := map[string]string{
		"plain":                         "plain",
		"Tom & Jerry":                   "Tom & Jerry",
		"<script>alert(1)</script>hi":   "hi",
		`<a href="x">link</a> and text`: "link and text",
	}
	for in, want := range cases {
		assert.Equal(t, want, StripMarkup(in), in)
	}
}
