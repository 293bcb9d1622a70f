package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/wellness-companion/internal/contacts"
	"github.com/wolfman30/wellness-companion/internal/safety"
	"github.com/wolfman30/wellness-companion/pkg/logging"
)

// AlertNotifier emails the emergency team when a crisis alert is written.
type AlertNotifier struct {
	email  EmailSender
	logger *logging.Logger
}

// NewAlertNotifier creates an alert notifier. A nil sender falls back to the stub.
func NewAlertNotifier(email EmailSender, logger *logging.Logger) *AlertNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	if email == nil {
		email = NewStubEmailSender(logger)
	}
	return &AlertNotifier{email: email, logger: logger}
}

// NotifyAlert sends one email describing the alert. The message excerpt is
// included, the full text is not.
func (n *AlertNotifier) NotifyAlert(ctx context.Context, alert safety.Alert, contact contacts.EmergencyContact) error {
	to := strings.TrimSpace(contact.Email)
	if to == "" {
		return ErrNoRecipient
	}

	level := strings.ToUpper(alert.RiskLevel)
	subject := fmt.Sprintf("[%s] Wellness chat alert for user %d", level, alert.UserID)

	created := alert.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	var body strings.Builder
	body.WriteString("A chat message was flagged and needs review.\n\n")
	fmt.Fprintf(&body, "User ID: %d\n", alert.UserID)
	fmt.Fprintf(&body, "Risk level: %s\n", alert.RiskLevel)
	if alert.IsHeavy {
		body.WriteString("Marked heavy: yes\n")
	}
	if alert.ID != 0 {
		fmt.Fprintf(&body, "Alert ID: %d\n", alert.ID)
	}
	fmt.Fprintf(&body, "Flagged at: %s\n", created.Format(time.RFC3339))
	fmt.Fprintf(&body, "\nExcerpt:\n%s\n", alert.Excerpt)
	body.WriteString("\nThe patient has been shown crisis resources in the app. Please follow up per the on-call protocol.")

	if err := n.email.Send(ctx, EmailMessage{
		To:       to,
		ToName:   contact.Name,
		Subject:  subject,
		Text:     body.String(),
		Category: CategoryRiskAlert,
		AlertID:  alert.ID,
	}); err != nil {
		return fmt.Errorf("notify: send alert email: %w", err)
	}
	n.logger.Info("emergency team notified", "alert_id", alert.ID, "risk_level", alert.RiskLevel)
	return nil
}
