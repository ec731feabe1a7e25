package aws

import (
	"context"
	"testing"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	input *ses.SendEmailInput
}

func (f *fakeSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = params
	return &ses.SendEmailOutput{MessageId: sdkaws.String("ses-123")}, nil
}

type fakeSNS struct {
	input *sns.PublishInput
}

func (f *fakeSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	return &sns.PublishOutput{MessageId: sdkaws.String("sns-456")}, nil
}

func TestSESClient_Send(t *testing.T) {
	api := &fakeSES{}
	client := NewSESClientWithAPI(api)

	id, err := client.Send(context.Background(), Email{
		From:     "cotizaciones@omerhsa.com",
		To:       []string{"juan@example.com"},
		Subject:  "Cotización recibida",
		TextBody: "Gracias Juan",
	})
	require.NoError(t, err)
	assert.Equal(t, "ses-123", id)
	assert.Equal(t, []string{"juan@example.com"}, api.input.Destination.ToAddresses)
	assert.Equal(t, "Gracias Juan", *api.input.Message.Body.Text.Data)
	assert.Nil(t, api.input.Message.Body.Html)
}

func TestSESClient_SendWithoutRecipients(t *testing.T) {
	_, err := NewSESClientWithAPI(&fakeSES{}).Send(context.Background(), Email{Subject: "x"})
	assert.Error(t, err)
}

func TestSNSClient_SendSMS(t *testing.T) {
	api := &fakeSNS{}
	client := NewSNSClientWithAPI(api, "OMERHSA")

	id, err := client.SendSMS(context.Background(), "+50499999999", "Nueva cotización")
	require.NoError(t, err)
	assert.Equal(t, "sns-456", id)
	assert.Equal(t, "+50499999999", *api.input.PhoneNumber)
	assert.Equal(t, "OMERHSA", *api.input.MessageAttributes["AWS.SNS.SMS.SenderID"].StringValue)
}
