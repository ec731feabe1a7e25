package sendquotenotification

import (
	"context"
	"fmt"
	"sync"
	"testing"

	commonaws "omerhsa-quotes/internal/common/aws"
	"omerhsa-quotes/internal/common/errors"
	"omerhsa-quotes/internal/common/logger"
	"omerhsa-quotes/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmail struct {
	mu   sync.Mutex
	sent []commonaws.Email
	fail map[string]bool
}

func (f *fakeEmail) Send(ctx context.Context, msg commonaws.Email) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[msg.To[0]] {
		return "", fmt.Errorf("ses throttled")
	}
	f.sent = append(f.sent, msg)
	return fmt.Sprintf("ses-%d", len(f.sent)), nil
}

type fakeSMS struct {
	phones   []string
	messages []string
	err      error
}

func (f *fakeSMS) SendSMS(ctx context.Context, phone, message string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.phones = append(f.phones, phone)
	f.messages = append(f.messages, message)
	return "sns-1", nil
}

func fullConfig() *Config {
	cfg := DefaultConfig()
	cfg.EmailEnabled = true
	cfg.SMSEnabled = true
	cfg.FromEmail = "cotizaciones@omerhsa.com"
	cfg.AdvisorEmail = "asesores@omerhsa.com"
	cfg.AdvisorPhone = "3301-0000"
	cfg.SitePhone = "+504 2222-0000"
	return cfg
}

func testQuote() models.QuoteRequest {
	return models.QuoteRequest{
		ID:            "quote-1",
		InsuranceType: models.InsuranceAuto,
		Contact: models.Contact{
			FirstName: "Juan",
			LastName:  "Pérez",
			Email:     "juan@correo.hn",
			Phone:     "9999-9999",
			Location:  "Tegucigalpa",
		},
		Vehicle: &models.VehicleDetails{Model: "Toyota Hilux", Year: "2024"},
	}
}

func newTestHandler(t *testing.T, cfg *Config, email EmailSender, sms SMSSender) *Handler {
	t.Helper()
	h, err := NewHandler(HandlerOptions{CustomConfig: cfg, Email: email, SMS: sms, Logger: logger.NewTestLogger(t)})
	require.NoError(t, err)
	return h
}

func TestExecute_SendsAllChannels(t *testing.T) {
	email := &fakeEmail{}
	sms := &fakeSMS{}
	h := newTestHandler(t, fullConfig(), email, sms)

	out, err := h.Execute(context.Background(), InputFromQuote(testQuote()))
	require.NoError(t, err)

	assert.Equal(t, StatusSent, out.Status)
	require.Len(t, out.Deliveries, 3)
	require.Len(t, email.sent, 2)

	customer := email.sent[0]
	assert.Equal(t, []string{"juan@correo.hn"}, customer.To)
	assert.Equal(t, "Recibimos tu solicitud de Seguro de Auto", customer.Subject)
	assert.Contains(t, customer.TextBody, "Hola Juan")
	assert.Contains(t, customer.TextBody, "Vehículo: Toyota Hilux 2024")
	assert.NotContains(t, customer.TextBody, "{{")

	advisor := email.sent[1]
	assert.Equal(t, "Nueva solicitud de cotización: Seguro de Auto - Juan Pérez", advisor.Subject)
	assert.Equal(t, []string{"juan@correo.hn"}, advisor.ReplyTo)

	assert.Equal(t, []string{"+50433010000"}, sms.phones)
	assert.Contains(t, sms.messages[0], "tel 9999-9999")
}

func TestExecute_PartialFailureStillSucceeds(t *testing.T) {
	email := &fakeEmail{fail: map[string]bool{"juan@correo.hn": true}}
	h := newTestHandler(t, fullConfig(), email, &fakeSMS{})

	out, err := h.Execute(context.Background(), InputFromQuote(testQuote()))
	require.NoError(t, err)
	assert.Equal(t, StatusSent, out.Status)
	assert.Equal(t, StatusFailed, out.Deliveries[0].Status)
}

func TestExecute_AllFailed(t *testing.T) {
	cfg := fullConfig()
	cfg.AdvisorEmail = ""
	email := &fakeEmail{fail: map[string]bool{"juan@correo.hn": true}}
	h := newTestHandler(t, cfg, email, &fakeSMS{err: fmt.Errorf("opted out")})

	out, err := h.Execute(context.Background(), InputFromQuote(testQuote()))
	stdErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeNotificationSendFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
	assert.Equal(t, StatusFailed, out.Status)
}

func TestExecute_Disabled(t *testing.T) {
	h := newTestHandler(t, DefaultConfig(), &fakeEmail{}, &fakeSMS{})

	out, err := h.Execute(context.Background(), InputFromQuote(testQuote()))
	require.NoError(t, err)
	assert.Equal(t, StatusDisabled, out.Status)
	assert.Empty(t, out.Deliveries)
}

func TestRenderTemplate(t *testing.T) {
	got := renderTemplate("Hola {{firstName}}{{missing}}!", map[string]interface{}{"firstName": "Ana"})
	assert.Equal(t, "Hola Ana!", got)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EmailEnabled = true
	assert.Error(t, cfg.Validate())

	cfg.FromEmail = "cotizaciones@omerhsa.com"
	assert.NoError(t, cfg.Validate())
}
