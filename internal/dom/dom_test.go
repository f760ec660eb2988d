package dom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/adept-booking/internal/form"
	"github.com/yanizio/adept-booking/internal/notify"
)

const page = `<!doctype html>
<html><head><title>Book</title></head><body>
<form action="/process" data-form="booking/full">
  <div class="mb-3"><input id="booking-name" name="name" value="Jo"></div>
  <div class="mb-3"><input id="booking-email" name="email" type="email" value="a@b.co"></div>
  <div class="mb-3"><input id="booking-phone" name="phone" type="tel" value="1234567890"></div>
  <div class="mb-3"><select id="booking-service" name="service">
    <option value="">Pick one</option>
    <option value="x">X service</option>
  </select></div>
  <div class="mb-3"><textarea id="booking-message" name="message">1234567890</textarea></div>
  <div class="mb-3 form-check"><input id="booking-consent" name="consent" type="checkbox"></div>
  <div style="position:absolute"><input name="website" type="text" value=""></div>
  <input type="hidden" name="render_ts" value="1">
  <input name="ignored" disabled value="z">
  <button type="submit" class="btn">Send <b>now</b></button>
</form>
</body></html>`

func load(t *testing.T, s string) (*Document, *Form) {
	t.Helper()
	d, err := ParseString(s)
	require.NoError(t, err)
	f, err := d.FirstForm()
	require.NoError(t, err)
	return d, f
}

func TestFindField(t *testing.T) {
	_, f := load(t, page)

	v, ok := f.FindField(form.FieldName)
	require.True(t, ok)
	assert.Equal(t, "Jo", v.Value())

	v, _ = f.FindField(form.FieldService)
	assert.Equal(t, "", v.Value(), "select without selection reads first option")

	v, _ = f.FindField(form.FieldMessage)
	assert.Equal(t, "1234567890", v.Value())

	v, _ = f.FindField(form.FieldConsent)
	assert.False(t, v.Checked())
	assert.Equal(t, "on", v.Value())

	_, ok = f.FindField(form.FieldHoneypot)
	assert.True(t, ok)

	_, ok = f.FindField(form.FieldID("age"))
	assert.False(t, ok)
}

func TestMessageFallsBackToFirstTextarea(t *testing.T) {
	_, f := load(t, `<form><textarea name="notes">first text</textarea><textarea id="booking-message">second</textarea></form>`)
	v, ok := f.FindField(form.FieldMessage)
	require.True(t, ok)
	assert.Equal(t, "first text", v.Value())
}

func TestSetAndValidate(t *testing.T) {
	_, f := load(t, page)

	require.NoError(t, f.Set(form.FieldService, "x"))
	require.NoError(t, f.Set(form.FieldConsent, "yes"))
	assert.Error(t, f.Set(form.FieldService, "nope"))

	v := form.NewValidator().Validate(f)
	assert.True(t, v.Valid, "errors %v", v.Errors)

	require.NoError(t, f.Set(form.FieldName, "J"))
	require.NoError(t, f.Set(form.FieldMessage, "short"))
	v = form.NewValidator().Validate(f)
	assert.False(t, v.Valid)

	msg, ok := f.FieldError(form.FieldName)
	assert.True(t, ok)
	assert.Contains(t, msg, "2-50 characters")
	msg, _ = f.FieldError(form.FieldMessage)
	assert.Equal(t, form.MsgMessage, msg)
	_, ok = f.FieldError(form.FieldEmail)
	assert.False(t, ok)
}

func TestMarkInvalidMarkup(t *testing.T) {
	d, f := load(t, page)

	f.MarkInvalid(form.FieldEmail, "bad <email>")
	out := d.String()
	assert.Contains(t, out, `class="is-invalid"`)
	assert.Contains(t, out, `border-color: var(--color-error);`)
	assert.Contains(t, out, `<div class="invalid-feedback" style="display: block;">bad &lt;email&gt;</div>`)

	// A second mark reuses the feedback element.
	f.MarkInvalid(form.FieldEmail, "again")
	assert.Equal(t, 1, strings.Count(d.String(), "invalid-feedback"))
}

func TestClearErrorsIdempotent(t *testing.T) {
	d, f := load(t, page)
	f.MarkInvalid(form.FieldName, "x")
	f.MarkInvalid(form.FieldPhone, "y")

	f.ClearErrors()
	once := d.String()
	f.ClearErrors()
	twice := d.String()

	assert.Equal(t, once, twice)
	assert.NotContains(t, once, "is-invalid")
	assert.NotContains(t, once, "border-color")
	assert.Equal(t, 2, strings.Count(once, `style="display: none;"`))
}

func TestButtonDisableEnable(t *testing.T) {
	_, f := load(t, page)
	c, ok := f.SubmitControl()
	require.True(t, ok)
	b := c.(*Button)

	b.Disable()
	assert.True(t, b.Disabled())
	assert.Equal(t, "Sending...", b.Label())

	b.Enable()
	assert.False(t, b.Disabled())
	assert.Equal(t, "Send now", b.Label())
}

func TestButtonEnableWithoutSavedLabel(t *testing.T) {
	_, f := load(t, `<form><button type="submit" disabled>...</button></form>`)
	c, _ := f.SubmitControl()
	c.Enable()
	assert.Equal(t, "Submit", c.(*Button).Label())
}

func TestFormData(t *testing.T) {
	_, f := load(t, page)
	require.NoError(t, f.Set(form.FieldService, "x"))

	got := f.FormData()
	names := make([]string, len(got))
	for i, p := range got {
		names[i] = p.Name
	}
	assert.Equal(t, []string{"name", "email", "phone", "service", "message", "website", "render_ts"}, names)

	require.NoError(t, f.Set(form.FieldConsent, "on"))
	got = f.FormData()
	assert.Equal(t, form.Pair{Name: "consent", Value: "on"}, got[5])
}

func TestToasts(t *testing.T) {
	d, err := ParseString(`<html><body><p>hi</p></body></html>`)
	require.NoError(t, err)
	_, err = d.FirstForm()
	assert.ErrorIs(t, err, ErrNoForm)

	d.Append(notify.Toast{ID: 1, Severity: notify.Success, Text: "<ok>", HTML: notify.Escape("<ok>")})
	d.Append(notify.Toast{ID: 2, Severity: notify.Danger, Text: "bad", HTML: "bad"})

	out := d.String()
	assert.Contains(t, out, `id="toast-container"`)
	assert.Contains(t, out, `&lt;ok&gt;`)
	assert.NotContains(t, out, "<ok>")

	ts := d.Toasts()
	require.Len(t, ts, 2)
	assert.Equal(t, notify.Success, ts[0].Severity)
	assert.Equal(t, "<ok>", ts[0].Text)
	assert.Equal(t, notify.Danger, ts[1].Severity)

	d.Exit(1)
	assert.True(t, d.Toasts()[0].Leaving)
	d.Remove(1)
	ts = d.Toasts()
	require.Len(t, ts, 1)
	assert.Equal(t, notify.ID(2), ts[0].ID)

	// Unknown ids are ignored.
	d.Exit(99)
	d.Remove(99)
}

func TestRenderedFormMatchesContract(t *testing.T) {
	fd, err := form.ParseFormDef([]byte(`
id: booking/full
fields:
  - {name: name, label: Name}
  - {name: email, label: Email}
  - {name: phone, label: Phone}
  - {name: service, label: Service, options: [x]}
  - {name: message, label: Message}
  - {name: consent, label: OK}
  - {name: website}
`), "inline")
	require.NoError(t, err)
	markup, err := form.Render(fd, form.RenderOptions{Endpoint: "/process"})
	require.NoError(t, err)

	d, f := load(t, "<html><body>"+string(markup)+"</body></html>")
	for _, id := range form.AllFields {
		assert.True(t, f.Has(id), "rendered form lacks %s", id)
	}
	assert.Equal(t, "/process", f.Action())
	assert.Equal(t, "booking/full", f.ID())

	for id, v := range map[form.FieldID]string{
		form.FieldName: "Jo", form.FieldEmail: "a@b.co", form.FieldPhone: "1234567890",
		form.FieldService: "x", form.FieldMessage: "1234567890", form.FieldConsent: "on",
	} {
		require.NoError(t, f.Set(id, v))
	}
	assert.True(t, form.NewValidator().Validate(f).Valid)
	assert.Empty(t, d.Location())
}

func TestDataset(t *testing.T) {
	d, err := ParseString(`<html><body>
<div id="booking-settings" data-dispatch-delay="800" data-redirect-url="/thank-you" class="x"></div>
</body></html>`)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"dispatch-delay": "800",
		"redirect-url":   "/thank-you",
	}, d.Dataset("booking-settings"))
	assert.Nil(t, d.Dataset("missing"))
}
