package bootstrap

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/wolfman30/wellness-companion/internal/config"
	"github.com/wolfman30/wellness-companion/internal/notify"
	"github.com/wolfman30/wellness-companion/pkg/logging"
)

// LoadAWSConfig builds the SDK config from the region, optional static
// credentials and the LocalStack-style endpoint override.
func LoadAWSConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, error) {
	loaders := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
	if strings.TrimSpace(cfg.AWSAccessKeyID) != "" && strings.TrimSpace(cfg.AWSSecretAccessKey) != "" {
		loaders = append(loaders, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}
	return awsconfig.LoadDefaultConfig(ctx, loaders...)
}

// NewSESClient returns an SES v2 client honouring AWS_ENDPOINT_OVERRIDE.
func NewSESClient(awsCfg aws.Config, endpoint string) *sesv2.Client {
	endpoint = strings.TrimSpace(endpoint)
	return sesv2.NewFromConfig(awsCfg, func(o *sesv2.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
}

// BuildEmailSender picks the alert email transport. ALERT_EMAIL_PROVIDER
// selects sendgrid or ses explicitly; otherwise SendGrid is used when a key is
// set. Anything unusable falls back to the logging stub.
func BuildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg == nil {
		return notify.NewStubEmailSender(logger)
	}

	provider := cfg.AlertEmailProvider
	if provider == "" && strings.TrimSpace(cfg.SendGridAPIKey) != "" {
		provider = "sendgrid"
	}

	switch provider {
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender != nil {
			logger.Info("alert email via sendgrid")
			return sender
		}
		logger.Warn("SENDGRID_API_KEY missing, alert emails will only be logged")
	case "ses":
		if strings.TrimSpace(cfg.SESFromEmail) == "" {
			logger.Warn("SES_FROM_EMAIL missing, alert emails will only be logged")
			break
		}
		awsCfg, err := LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Warn("aws config unavailable, alert emails will only be logged", "error", err)
			break
		}
		sender := notify.NewSESSender(NewSESClient(awsCfg, cfg.AWSEndpointOverride), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender != nil {
			logger.Info("alert email via ses", "region", cfg.AWSRegion)
			return sender
		}
	case "", "stub", "log":
	default:
		logger.Warn("unknown ALERT_EMAIL_PROVIDER, alert emails will only be logged", "provider", provider)
	}
	return notify.NewStubEmailSender(logger)
}
