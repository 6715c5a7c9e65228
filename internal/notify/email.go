// Package notify delivers outbound email for the clinic, today only the
// appointment reminder messages.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/smilepoint/clinic-api/pkg/logging"
)

// ErrNotConfigured is returned when a sender is used without credentials.
var ErrNotConfigured = errors.New("notify: email sender not configured")

// EmailMessage is one outbound email. Body is plain text; HTML is optional
// and falls back to the plain body when empty.
type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Body    string
	HTML    string
}

// EmailSender sends a single message. The reminder handler depends on this
// interface so tests can capture messages instead of sending them.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// SendGridConfig holds the SendGrid credentials and default sender identity.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// SendGridSender delivers email through the SendGrid API.
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	logger    *logging.Logger
}

// NewSendGridSender builds a SendGrid-backed sender, or nil when no API key
// is configured so callers can fall back to the stub.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = "SmilePoint Dental"
	}
	return &SendGridSender{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}
}

// Send delivers one message. Non-2xx responses from SendGrid are errors.
func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s.client == nil {
		return ErrNotConfigured
	}

	html := msg.HTML
	if html == "" {
		html = msg.Body
	}
	m := mail.NewSingleEmail(
		mail.NewEmail(s.fromName, s.fromEmail),
		msg.Subject,
		mail.NewEmail(msg.ToName, msg.To),
		msg.Body,
		html,
	)

	resp, err := s.client.SendWithContext(ctx, m)
	if err != nil {
		s.logger.Error("reminder email send failed", "error", err, "to", msg.To)
		return fmt.Errorf("notify: sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		s.logger.Error("sendgrid rejected message",
			"status", resp.StatusCode, "body", resp.Body, "to", msg.To)
		return fmt.Errorf("notify: sendgrid returned status %d", resp.StatusCode)
	}

	s.logger.Info("reminder email sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

// StubEmailSender logs messages instead of sending them. It stands in when
// no SendGrid key is set, so local runs exercise the reminder flow safely.
type StubEmailSender struct {
	logger *logging.Logger
}

// NewStubEmailSender creates the logging stub.
func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

// Send logs the message and reports success.
func (s *StubEmailSender) Send(_ context.Context, msg EmailMessage) error {
	s.logger.Info("email delivery disabled, logging instead",
		"to", msg.To, "subject", msg.Subject)
	return nil
}
