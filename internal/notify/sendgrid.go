package notify

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/wolfman30/wellness-companion/pkg/logging"
)

// SendGridConfig holds configuration for SendGrid.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// SendGridSender sends emails via the SendGrid v3 mail API.
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	logger    *logging.Logger
}

// NewSendGridSender returns nil without an API key.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = DefaultFromName
	}
	return &SendGridSender{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}
}

func (s *SendGridSender) buildMail(msg EmailMessage) *mail.SGMailV3 {
	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(s.fromName, s.fromEmail))
	m.Subject = msg.Subject

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail(msg.ToName, msg.To))
	m.AddPersonalizations(p)
	m.AddContent(mail.NewContent("text/plain", msg.Text))

	if msg.Category != "" {
		m.AddCategories(msg.Category)
	}
	if msg.AlertID != 0 {
		m.SetCustomArg("alert_id", strconv.FormatInt(msg.AlertID, 10))
	}
	return m
}

// Send delivers msg through SendGrid. Any status >= 400 is an error.
func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s.client == nil {
		return fmt.Errorf("notify: sendgrid client not configured")
	}
	if err := msg.validate(); err != nil {
		return err
	}

	response, err := s.client.SendWithContext(ctx, s.buildMail(msg))
	if err != nil {
		s.logger.Error("sendgrid send failed", "error", err, "to", MaskAddress(msg.To))
		return fmt.Errorf("notify: sendgrid send failed: %w", err)
	}
	if response.StatusCode >= 400 {
		s.logger.Error("sendgrid returned error status", "status", response.StatusCode, "to", MaskAddress(msg.To))
		return fmt.Errorf("notify: sendgrid returned status %d", response.StatusCode)
	}

	s.logger.Info("alert email sent", "provider", "sendgrid", "to", MaskAddress(msg.To), "alert_id", msg.AlertID)
	return nil
}

var _ EmailSender = (*SendGridSender)(nil)
