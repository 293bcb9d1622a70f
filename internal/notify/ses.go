package notify

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/wolfman30/wellness-companion/pkg/logging"
)

// SESConfig holds configuration for AWS SES. ConfigurationSet is optional and
// routes delivery events to whatever destination the set defines.
type SESConfig struct {
	FromEmail        string
	FromName         string
	ConfigurationSet string
}

type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender sends emails via AWS SES v2.
type SESSender struct {
	client           sesAPI
	fromAddress      string
	configurationSet string
	logger           *logging.Logger
}

// NewSESSender returns nil for a nil client.
func NewSESSender(client *sesv2.Client, cfg SESConfig, logger *logging.Logger) *SESSender {
	if client == nil {
		return nil
	}
	return newSESSender(client, cfg, logger)
}

func newSESSender(client sesAPI, cfg SESConfig, logger *logging.Logger) *SESSender {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = DefaultFromName
	}
	return &SESSender{
		client:           client,
		fromAddress:      fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromEmail),
		configurationSet: cfg.ConfigurationSet,
		logger:           logger,
	}
}

func (s *SESSender) buildInput(msg EmailMessage) *sesv2.SendEmailInput {
	to := msg.To
	if msg.ToName != "" {
		to = fmt.Sprintf("%s <%s>", msg.ToName, msg.To)
	}
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.fromAddress),
		Destination:      &types.Destination{ToAddresses: []string{to}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(msg.Text), Charset: aws.String("UTF-8")},
				},
			},
		},
	}
	if s.configurationSet != "" {
		input.ConfigurationSetName = aws.String(s.configurationSet)
	}
	if msg.Category != "" {
		input.EmailTags = append(input.EmailTags, types.MessageTag{Name: aws.String("category"), Value: aws.String(msg.Category)})
	}
	if msg.AlertID != 0 {
		input.EmailTags = append(input.EmailTags, types.MessageTag{Name: aws.String("alert_id"), Value: aws.String(strconv.FormatInt(msg.AlertID, 10))})
	}
	return input
}

// Send delivers msg through SES.
func (s *SESSender) Send(ctx context.Context, msg EmailMessage) error {
	if s.client == nil {
		return fmt.Errorf("notify: SES client not configured")
	}
	if err := msg.validate(); err != nil {
		return err
	}

	output, err := s.client.SendEmail(ctx, s.buildInput(msg))
	if err != nil {
		s.logger.Error("SES send failed", "error", err, "to", MaskAddress(msg.To))
		return fmt.Errorf("notify: SES send failed: %w", err)
	}

	s.logger.Info("alert email sent",
		"provider", "ses",
		"to", MaskAddress(msg.To),
		"alert_id", msg.AlertID,
		"message_id", aws.ToString(output.MessageId),
	)
	return nil
}

var _ EmailSender = (*SESSender)(nil)
