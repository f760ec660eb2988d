package main

import (
	"bytes"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/adept-booking/components/booking"
	"github.com/yanizio/adept-booking/internal/component"
	"github.com/yanizio/adept-booking/internal/config"
	"github.com/yanizio/adept-booking/internal/driver"
	"github.com/yanizio/adept-booking/internal/form"
	"github.com/yanizio/adept-booking/internal/logger"
	"github.com/yanizio/adept-booking/internal/notify"
)

func TestValidateCommand(t *testing.T) {
	cfg := &config.Config{
		Booking: config.Booking{
			Form:          "booking/full",
			Endpoint:      "/process",
			RedirectURL:   "/thank-you",
			ToastLifetime: time.Second,
		},
		Paths: config.Paths{Root: t.TempDir()},
	}
	c := &booking.Component{}
	require.NoError(t, c.Init(component.Env{Config: cfg, Log: logger.NewNop()}))
	srv := httptest.NewServer(c.Routes())
	defer srv.Close()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"validate", "--quiet", "--url", srv.URL + "/booking", "--name", "J", "--email", "jane@example.com"})
	err := rootCmd.Execute()

	require.True(t, errors.Is(err, errOutcome), "err = %v", err)
	assert.Contains(t, out.String(), "booking form booking/full")
	assert.Contains(t, out.String(), form.MsgName)
	assert.NotContains(t, out.String(), form.MsgEmail)
}

func TestReportRendering(t *testing.T) {
	con := newConsole(&bytes.Buffer{})
	got := con.report(&driver.Report{
		FormID:   "booking/quick",
		Result:   form.Rejected("slot taken"),
		Errors:   map[form.FieldID]string{form.FieldEmail: form.MsgEmail},
		Location: "",
	})
	assert.Contains(t, got, "rejected")
	assert.Contains(t, got, "slot taken")
	assert.Contains(t, got, form.MsgEmail)
	assert.NotContains(t, got, "redirect")
}

func TestConsolePrintsToasts(t *testing.T) {
	var buf bytes.Buffer
	con := newConsole(&buf)
	con.Append(notify.Toast{ID: 1, Severity: notify.Success, Text: "Message sent successfully!"})
	con.Exit(1)
	con.Remove(1)
	assert.Contains(t, buf.String(), "Message sent successfully!")
}

func TestRuleValidator(t *testing.T) {
	v := ruleValidator(form.FieldEmail)
	assert.NoError(t, v("jane@example.com"))
	assert.EqualError(t, v("nope"), form.MsgEmail)
	assert.NoError(t, ruleValidator(form.FieldID("other"))("anything"))
}
