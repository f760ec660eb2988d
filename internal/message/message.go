// internal/message/message.go
//
// Adept Booking – outbound messages.
//
// Context
//   The forms subsystem hands outbound messages to this package after a
//   booking passes validation: a notification email to the office and,
//   optionally, webhook calls to third-party systems.  Neither may hold up
//   the visitor's request for long, and neither failure is reported back to
//   the visitor.
//
//   •  Mailer    – SMTP delivery via gsmail.  Without a configured host the
//                  mailer only logs, which keeps local development quiet.
//   •  Webhooks  – fire-and-forget HTTP calls on their own goroutines with a
//                  bounded timeout.  Wait drains them on shutdown.
//
// Style
//   Two-space sentence spacing, Oxford comma, concise inline notes.
//
//------------------------------------------------------------------------------

package message

import (
	"context"
	"errors"
	"time"

	"github.com/gsoultan/gsmail"
	"github.com/gsoultan/gsmail/smtp"
	"go.uber.org/zap"
)

// Email represents a basic outbound email job.
type Email struct {
	To      []string
	Subject string
	Text    string
}

// MailConfig carries SMTP settings.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	SSL      bool
	From     string
	Timeout  time.Duration
}

// Mailer delivers Email values over SMTP.
type Mailer struct {
	sender  gsmail.Sender
	from    string
	timeout time.Duration
	log     *zap.SugaredLogger
}

// ErrNoRecipients is returned for an Email without To addresses.
var ErrNoRecipients = errors.New("message: email has no recipients")

// NewMailer builds a Mailer.  An empty Host yields a log-only mailer.
func NewMailer(cfg MailConfig, log *zap.SugaredLogger) *Mailer {
	m := &Mailer{from: cfg.From, timeout: cfg.Timeout, log: log}
	if m.timeout <= 0 {
		m.timeout = 15 * time.Second
	}
	if cfg.Host != "" {
		m.sender = smtp.NewSender(cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.SSL)
	}
	return m
}

// newMailerWithSender is used by tests.
func newMailerWithSender(s gsmail.Sender, from string, log *zap.SugaredLogger) *Mailer {
	return &Mailer{sender: s, from: from, timeout: time.Second, log: log}
}

// Enabled reports whether SMTP is configured.
func (m *Mailer) Enabled() bool { return m.sender != nil }

// Ping checks the SMTP server.  A log-only mailer always succeeds.
func (m *Mailer) Ping(ctx context.Context) error {
	if m.sender == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return m.sender.Ping(ctx)
}

// EnqueueEmail sends msg.  The caller's cancellation is ignored so a
// visitor closing the tab does not abort delivery; the mailer timeout
// still applies.
func (m *Mailer) EnqueueEmail(ctx context.Context, msg Email) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}
	if m.sender == nil {
		m.log.Infow("email (smtp disabled)",
			"to", msg.To, "subject", msg.Subject, "len", len(msg.Text))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.timeout)
	defer cancel()

	err := m.sender.Send(ctx, gsmail.Email{
		From:    m.from,
		To:      msg.To,
		Subject: msg.Subject,
		Body:    []byte(msg.Text),
	})
	if err != nil {
		return err
	}
	m.log.Infow("email sent", "to", msg.To, "subject", msg.Subject)
	return nil
}
