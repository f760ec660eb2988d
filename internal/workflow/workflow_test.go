package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/adept-booking/internal/clock"
	"github.com/yanizio/adept-booking/internal/form"
	"github.com/yanizio/adept-booking/internal/form/formtest"
	"github.com/yanizio/adept-booking/internal/notify"
)

// events is a shared, ordered log of side effects.
type events struct {
	mu  sync.Mutex
	log []string
}

func (e *events) add(s string) {
	e.mu.Lock()
	e.log = append(e.log, s)
	e.mu.Unlock()
}

func (e *events) all() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.log...)
}

type fixtureView struct {
	*formtest.Fixture
	ev       *events
	disabled bool
	noButton bool
	nav      []string
}

func (v *fixtureView) SubmitControl() (Control, bool) {
	if v.noButton {
		return nil, false
	}
	return (*fixtureControl)(v), true
}
func (v *fixtureView) FormData() []form.Pair { return v.Pairs() }
func (v *fixtureView) Navigate(url string) {
	v.ev.add("navigate " + url)
	v.nav = append(v.nav, url)
}

type fixtureControl fixtureView

func (c *fixtureControl) Disable() { c.disabled = true; c.ev.add("disable") }
func (c *fixtureControl) Enable()  { c.disabled = false; c.ev.add("enable") }

type fakeTransport struct {
	ev    *events
	res   form.Result
	calls []form.Submission
}

func (f *fakeTransport) Send(_ context.Context, s form.Submission) form.Result {
	f.ev.add("send")
	f.calls = append(f.calls, s)
	return f.res
}

type eventSurface struct {
	*notify.Recorder
	ev *events
}

func (s eventSurface) Append(t notify.Toast) {
	s.ev.add("toast " + string(t.Severity) + " " + t.Text)
	s.Recorder.Append(t)
}

type harness struct {
	clk   *clock.Fake
	ev    *events
	view  *fixtureView
	tr    *fakeTransport
	rec   *notify.Recorder
	orch  *Orchestrator
	trans []string
}

func newHarness(t *testing.T, fx *formtest.Fixture, res form.Result) *harness {
	t.Helper()
	h := &harness{clk: clock.NewFake(time.Unix(0, 0)), ev: &events{}, rec: notify.NewRecorder()}
	h.view = &fixtureView{Fixture: fx, ev: h.ev}
	h.tr = &fakeTransport{ev: h.ev, res: res}
	pres := notify.New(eventSurface{Recorder: h.rec, ev: h.ev}, h.clk, notify.Options{})
	h.orch = New(Config{}, Deps{
		View:      h.view,
		Transport: h.tr,
		Notifier:  pres,
		Clock:     h.clk,
		OnState:   func(_, to State) { h.trans = append(h.trans, to.String()) },
	})
	return h
}

func TestScenarioA_ValidFormDispatchesAfterDelay(t *testing.T) {
	h := newHarness(t, formtest.Valid(), form.Succeeded())

	att := h.orch.Submit(context.Background())
	assert.True(t, att.Verdict().Valid)
	assert.Equal(t, Submitting, h.orch.State())
	assert.True(t, h.view.disabled, "control not disabled on submit")

	h.clk.Advance(799 * time.Millisecond)
	assert.Empty(t, h.tr.calls, "dispatched before pacing delay")

	h.clk.Advance(time.Millisecond)
	require.Len(t, h.tr.calls, 1)
	got, _ := h.tr.calls[0].Get("name")
	assert.Equal(t, "Jo", got)
}

func TestScenarioB_InvalidNeverTouchesControl(t *testing.T) {
	fx := formtest.Valid().Set(form.FieldName, "J")
	h := newHarness(t, fx, form.Succeeded())

	att := h.orch.Submit(context.Background())

	select {
	case <-att.Done():
	default:
		t.Fatal("invalid attempt not done")
	}
	assert.Equal(t, form.OutcomeInvalid, att.Outcome())
	assert.Equal(t, Idle, h.orch.State())
	assert.Contains(t, fx.Invalid()[form.FieldName], "2-50 characters")
	assert.Empty(t, h.ev.all(), "control, transport, or toast touched")
	assert.Equal(t, 0, h.clk.Pending())
	assert.Equal(t, []string{"validating", "invalid", "idle"}, h.trans)
}

func TestScenarioC_SuccessNotifiesThenNavigates(t *testing.T) {
	h := newHarness(t, formtest.Valid(), form.Succeeded())

	att := h.orch.Submit(context.Background())
	h.clk.Advance(800 * time.Millisecond)

	<-att.Done()
	assert.Equal(t, form.OutcomeSucceeded, att.Outcome())
	assert.False(t, h.view.disabled, "control still disabled after success")
	assert.Empty(t, h.view.nav, "navigated before delay")
	assert.Equal(t, Idle, h.orch.State())

	h.clk.Advance(1499 * time.Millisecond)
	assert.Empty(t, h.view.nav)
	h.clk.Advance(time.Millisecond)
	assert.Equal(t, []string{"/thank-you"}, h.view.nav)

	assert.Equal(t, []string{
		"disable",
		"send",
		"enable",
		"toast success " + MsgSucceeded,
		"navigate /thank-you",
	}, h.ev.all())
	assert.Equal(t, []string{"validating", "submitting", "succeeded", "idle"}, h.trans)
}

func TestScenarioD_RejectionShowsGenericDanger(t *testing.T) {
	h := newHarness(t, formtest.Valid(), form.Rejected("mail server on fire"))

	att := h.orch.Submit(context.Background())
	h.clk.Advance(800 * time.Millisecond)
	<-att.Done()

	assert.Equal(t, form.OutcomeRejected, att.Outcome())
	assert.False(t, h.view.disabled)
	assert.Equal(t, []string{"disable", "send", "enable", "toast danger " + MsgRejected}, h.ev.all())

	h.clk.Advance(time.Minute)
	assert.Empty(t, h.view.nav, "rejection navigated")
	for _, tst := range h.rec.History() {
		assert.NotContains(t, tst.Text, "fire", "server detail surfaced")
	}
}

func TestScenarioE_NetworkFailure(t *testing.T) {
	h := newHarness(t, formtest.Valid(), form.Failed(errors.New("connection refused")))

	att := h.orch.Submit(context.Background())
	h.clk.Advance(800 * time.Millisecond)
	<-att.Done()

	assert.Equal(t, form.OutcomeFailed, att.Outcome())
	assert.False(t, h.view.disabled)
	assert.Equal(t, []string{"disable", "send", "enable", "toast danger " + MsgFailed}, h.ev.all())
	h.clk.Advance(time.Minute)
	assert.Empty(t, h.view.nav)
}

func TestUnknownOutcomeTreatedAsFailure(t *testing.T) {
	h := newHarness(t, formtest.Valid(), form.Result{})

	att := h.orch.Submit(context.Background())
	h.clk.Advance(800 * time.Millisecond)
	<-att.Done()
	assert.Equal(t, form.OutcomeFailed, att.Outcome())
}

func TestScenarioF_BlurRevalidatesWholeForm(t *testing.T) {
	fx := formtest.Valid().
		Set(form.FieldName, "J").
		Set(form.FieldEmail, "").
		Set(form.FieldPhone, "1")
	h := newHarness(t, fx, form.Succeeded())

	// Empty field: nothing runs.
	assert.False(t, h.orch.Blur(form.FieldEmail))
	assert.Equal(t, 0, fx.Clears())
	assert.Empty(t, fx.Invalid())

	// Absent field: nothing runs.
	fx.Remove(form.FieldService)
	assert.False(t, h.orch.Blur(form.FieldService))

	// Whitespace only counts as empty.
	fx.Set(form.FieldMessage, "   ")
	assert.False(t, h.orch.Blur(form.FieldMessage))
	fx.Set(form.FieldMessage, "1234567890")

	// Non-empty field: every rule is re-checked, not only the blurred one.
	assert.True(t, h.orch.Blur(form.FieldName))
	assert.Equal(t, 1, fx.Clears())
	assert.Equal(t, []string{"email", "name", "phone"}, fx.InvalidIDs())
	assert.Empty(t, h.ev.all(), "blur touched control or transport")
}

func TestNoSubmitControl(t *testing.T) {
	h := newHarness(t, formtest.Valid(), form.Succeeded())
	h.view.noButton = true

	att := h.orch.Submit(context.Background())
	h.clk.Advance(800 * time.Millisecond)
	<-att.Done()
	assert.Equal(t, []string{"send", "toast success " + MsgSucceeded}, h.ev.all())
}

func TestControlDisabledForWholeFlight(t *testing.T) {
	h := newHarness(t, formtest.Valid(), form.Succeeded())

	var disabledDuringSend bool
	tr := &observingTransport{inner: h.tr, check: func() { disabledDuringSend = h.view.disabled }}
	h.orch.transport = tr

	att := h.orch.Submit(context.Background())
	h.clk.Advance(800 * time.Millisecond)
	<-att.Done()
	assert.True(t, disabledDuringSend, "control enabled while request in flight")
}

type observingTransport struct {
	inner Transport
	check func()
}

func (o *observingTransport) Send(ctx context.Context, s form.Submission) form.Result {
	o.check()
	return o.inner.Send(ctx, s)
}

func TestAttemptWaitHonoursContext(t *testing.T) {
	h := newHarness(t, formtest.Valid(), form.Succeeded())
	att := h.orch.Submit(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := att.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, form.OutcomeNone, att.Outcome())

	h.clk.Advance(800 * time.Millisecond)
	res, err := att.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, form.OutcomeSucceeded, res.Outcome)
}

func TestToastsAutoDismissAfterOutcome(t *testing.T) {
	h := newHarness(t, formtest.Valid(), form.Rejected(""))
	h.orch.Submit(context.Background())
	h.clk.Advance(800 * time.Millisecond)
	require.Len(t, h.rec.Visible(), 1)

	h.clk.Advance(5400 * time.Millisecond)
	assert.Empty(t, h.rec.Visible())
}
