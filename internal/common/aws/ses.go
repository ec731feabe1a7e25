package aws

import (
	"context"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// LoadConfig resolves credentials from the default chain for region.
func LoadConfig(ctx context.Context, region string) (sdkaws.Config, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return sdkaws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}

// SESAPI is the subset of the SES client used here.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// Email is a plain UTF-8 message with optional HTML alternative.
type Email struct {
	From     string
	To       []string
	ReplyTo  []string
	Subject  string
	TextBody string
	HTMLBody string
}

type SESClient struct {
	api SESAPI
}

func NewSESClient(cfg sdkaws.Config) *SESClient {
	return &SESClient{api: ses.NewFromConfig(cfg)}
}

// NewSESClientWithAPI is used by tests to inject a fake.
func NewSESClientWithAPI(api SESAPI) *SESClient {
	return &SESClient{api: api}
}

// Send delivers msg and returns the SES message id.
func (s *SESClient) Send(ctx context.Context, msg Email) (string, error) {
	if len(msg.To) == 0 {
		return "", fmt.Errorf("email has no recipients")
	}

	body := &types.Body{}
	if msg.TextBody != "" {
		body.Text = &types.Content{Data: sdkaws.String(msg.TextBody), Charset: sdkaws.String("UTF-8")}
	}
	if msg.HTMLBody != "" {
		body.Html = &types.Content{Data: sdkaws.String(msg.HTMLBody), Charset: sdkaws.String("UTF-8")}
	}

	out, err := s.api.SendEmail(ctx, &ses.SendEmailInput{
		Source:           sdkaws.String(msg.From),
		Destination:      &types.Destination{ToAddresses: msg.To},
		ReplyToAddresses: msg.ReplyTo,
		Message: &types.Message{
			Subject: &types.Content{Data: sdkaws.String(msg.Subject), Charset: sdkaws.String("UTF-8")},
			Body:    body,
		},
	})
	if err != nil {
		return "", err
	}
	return sdkaws.ToString(out.MessageId), nil
}
