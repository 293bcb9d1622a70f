package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
)

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, params *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestNewSESSender_NilWithoutClient(t *testing.T) {
	if sender := NewSESSender(nil, SESConfig{FromEmail: "alerts@clinic.test"}, nil); sender != nil {
		t.Error("expected nil sender without an SES client")
	}
}

func TestSESSender_Send(t *testing.T) {
	api := &fakeSES{}
	sender := newSESSender(api, SESConfig{FromEmail: "alerts@clinic.test", ConfigurationSet: "alerts"}, nil)

	err := sender.Send(context.Background(), EmailMessage{
		To:       "oncall@clinic.test",
		ToName:   "On-Call",
		Subject:  "[CRITICAL] alert",
		Text:     "excerpt",
		Category: CategoryRiskAlert,
		AlertID:  7,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	in := api.input
	if got := aws.ToString(in.FromEmailAddress); got != DefaultFromName+" <alerts@clinic.test>" {
		t.Errorf("unexpected from %q", got)
	}
	if len(in.Destination.ToAddresses) != 1 || in.Destination.ToAddresses[0] != "On-Call <oncall@clinic.test>" {
		t.Errorf("unexpected destination %v", in.Destination.ToAddresses)
	}
	if aws.ToString(in.Content.Simple.Body.Text.Data) != "excerpt" || in.Content.Simple.Body.Html != nil {
		t.Errorf("expected plain-text body only")
	}
	if aws.ToString(in.ConfigurationSetName) != "alerts" {
		t.Errorf("expected configuration set")
	}
	tags := map[string]string{}
	for _, tag := range in.EmailTags {
		tags[aws.ToString(tag.Name)] = aws.ToString(tag.Value)
	}
	if tags["category"] != CategoryRiskAlert || tags["alert_id"] != "7" {
		t.Errorf("unexpected tags %v", tags)
	}
}

func TestSESSender_SendErrors(t *testing.T) {
	sender := newSESSender(&fakeSES{err: errors.New("throttled")}, SESConfig{FromEmail: "alerts@clinic.test"}, nil)
	if err := sender.Send(context.Background(), EmailMessage{To: "a@b.test", Subject: "s"}); err == nil {
		t.Fatal("expected wrapped SES error")
	}

	api := &fakeSES{}
	sender = newSESSender(api, SESConfig{FromEmail: "alerts@clinic.test"}, nil)
	if err := sender.Send(context.Background(), EmailMessage{Subject: "s"}); !errors.Is(err, ErrNoRecipient) {
		t.Fatalf("expected ErrNoRecipient, got %v", err)
	}
	if api.input != nil {
		t.Fatal("SES must not be called for an invalid message")
	}
}
