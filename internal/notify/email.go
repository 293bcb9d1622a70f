package notify

import (
	"context"
	"errors"
	"strings"

	"github.com/wolfman30/wellness-companion/pkg/logging"
)

// DefaultFromName is the sender name used when none is configured.
const DefaultFromName = "Wellness Companion"

// CategoryRiskAlert tags alert emails so providers can report on them.
const CategoryRiskAlert = "risk-alert"

var (
	// ErrNoRecipient is returned when a message has no address to send to.
	ErrNoRecipient = errors.New("notify: message has no recipient address")
	// ErrNoSubject is returned for a message without a subject line.
	ErrNoSubject = errors.New("notify: message has no subject")
)

// EmailSender delivers one plain-text email. SendGrid, SES and a logging stub
// implement it.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is an outbound notification. AlertID, when set, is attached as
// provider metadata so delivery events can be joined back to the alert row.
type EmailMessage struct {
	To       string
	ToName   string
	Subject  string
	Text     string
	Category string
	AlertID  int64
}

func (m EmailMessage) validate() error {
	if strings.TrimSpace(m.To) == "" {
		return ErrNoRecipient
	}
	if strings.TrimSpace(m.Subject) == "" {
		return ErrNoSubject
	}
	return nil
}

// MaskAddress keeps the first character of the local part and the domain:
// "oncall@clinic.test" becomes "o***@clinic.test".
func MaskAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	at := strings.LastIndex(addr, "@")
	if at <= 0 {
		return "***"
	}
	return addr[:1] + "***" + addr[at:]
}

// StubEmailSender logs instead of sending; used when no provider is configured.
type StubEmailSender struct {
	logger *logging.Logger
}

// NewStubEmailSender creates a stub email sender that logs but doesn't send.
func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

// Send validates msg and logs it.
func (s *StubEmailSender) Send(_ context.Context, msg EmailMessage) error {
	if err := msg.validate(); err != nil {
		return err
	}
	s.logger.Info("email delivery disabled, alert logged only",
		"to", MaskAddress(msg.To),
		"subject", msg.Subject,
		"alert_id", msg.AlertID,
	)
	return nil
}

var _ EmailSender = (*StubEmailSender)(nil)
