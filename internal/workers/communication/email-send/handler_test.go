package emailsend

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"omerhsa-quotes/internal/common/config"
	"omerhsa-quotes/internal/common/errors"
	"omerhsa-quotes/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedMail struct {
	from string
	to   []string
	msg  string
}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.SMTPHost = "smtp.omerhsa.com"
	return cfg
}

func newTestHandler(t *testing.T, sendErr error) (*Handler, *[]capturedMail) {
	t.Helper()
	var sent []capturedMail
	h, err := NewHandler(HandlerOptions{
		CustomConfig: testConfig(),
		Logger:       logger.NewTestLogger(t),
		Send: func(from string, to []string, msg []byte) error {
			if sendErr != nil {
				return sendErr
			}
			sent = append(sent, capturedMail{from: from, to: to, msg: string(msg)})
			return nil
		},
	})
	require.NoError(t, err)
	return h, &sent
}

func TestHandler_NewHandler(t *testing.T) {
	tests := []struct {
		name    string
		opts    HandlerOptions
		wantErr bool
	}{
		{"custom config", HandlerOptions{CustomConfig: testConfig()}, false},
		{"missing smtp host", HandlerOptions{CustomConfig: DefaultConfig()}, true},
		{"bad port", HandlerOptions{CustomConfig: &Config{Timeout: time.Second, MaxJobsActive: 1, SMTPHost: "h", SMTPPort: 70000, DefaultFrom: "a@b.co"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewHandler(tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExecute_SendsMessage(t *testing.T) {
	h, sent := newTestHandler(t, nil)

	out, err := h.Execute(context.Background(), &Input{
		To:       "info@omerhsa.com",
		CC:       "reclamos@omerhsa.com, asesores@omerhsa.com",
		ReplyTo:  "maria@correo.hn",
		Subject:  "Consulta General",
		Body:     "Quisiera información sobre seguros de vida.",
		Priority: "high",
	})
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Contains(t, out.MessageID, "@smtp.omerhsa.com>")

	require.Len(t, *sent, 1)
	mail := (*sent)[0]
	assert.Equal(t, "info@omerhsa.com", mail.from)
	assert.Equal(t, []string{"info@omerhsa.com", "reclamos@omerhsa.com", "asesores@omerhsa.com"}, mail.to)
	assert.Contains(t, mail.msg, "Reply-To: maria@correo.hn\r\n")
	assert.Contains(t, mail.msg, "X-Priority: 1\r\n")
	assert.Contains(t, mail.msg, "Content-Type: text/plain; charset=UTF-8\r\n\r\nQuisiera")
}

func TestExecute_InvalidAddress(t *testing.T) {
	h, sent := newTestHandler(t, nil)

	_, err := h.Execute(context.Background(), &Input{To: "no-at-sign", Subject: "x", Body: "y"})
	stdErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeValidationFailed, stdErr.Code)
	assert.Empty(t, *sent)
}

func TestExecute_RejectsLineBreaksInHeaders(t *testing.T) {
	tests := []struct {
		name  string
		input Input
	}{
		{"subject", Input{To: "info@omerhsa.com", Subject: "[Contacto] Juan\r\nBcc: spam@evil.example", Body: "x"}},
		{"bare lf", Input{To: "info@omerhsa.com", Subject: "Juan\nContent-Type: text/html", Body: "x"}},
		{"cc", Input{To: "info@omerhsa.com", CC: "asesores@omerhsa.com\r\n, spam@evil.example", Subject: "x", Body: "y"}},
		{"reply to", Input{To: "info@omerhsa.com", ReplyTo: "maria@correo.hn\r\nBcc: spam@evil.example", Subject: "x", Body: "y"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, sent := newTestHandler(t, nil)
			input := tt.input

			_, err := h.Execute(context.Background(), &input)
			stdErr, ok := errors.As(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrCodeValidationFailed, stdErr.Code)
			assert.Empty(t, *sent)
		})
	}
}

func headerLines(msg string) []string {
	head, _, _ := strings.Cut(msg, "\r\n\r\n")
	return strings.Split(head, "\r\n")
}

func TestBuildMessage_HeaderValues(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	msg := h.service.buildMessage(&Input{
		From:    "no-reply@omerhsa.com",
		To:      "info@omerhsa.com",
		Subject: "[Contacto] Consulta General - Juan\r\nBcc: spam@evil.example\r\nContent-Type: text/html",
		Body:    "Hola",
	})
	for _, line := range headerLines(msg) {
		assert.False(t, strings.HasPrefix(line, "Bcc:"), line)
	}
	contentTypes := 0
	for _, line := range headerLines(msg) {
		if strings.HasPrefix(line, "Content-Type:") {
			contentTypes++
		}
	}
	assert.Equal(t, 1, contentTypes)

	msg = h.service.buildMessage(&Input{
		From:    "no-reply@omerhsa.com",
		To:      "info@omerhsa.com",
		Subject: "[Contacto] Consulta General - Juan Pérez",
		Body:    "Hola",
	})
	head, _, _ := strings.Cut(msg, "\r\n\r\n")
	assert.Contains(t, head, "Subject: =?utf-8?q?")
	assert.NotContains(t, head, "Pérez")
	assert.False(t, strings.ContainsFunc(head, func(r rune) bool { return r >= 0x80 }), "headers are 7-bit")
}

func TestExecute_SMTPFailureIsRetryable(t *testing.T) {
	h, _ := newTestHandler(t, fmt.Errorf("421 service not available"))

	_, err := h.Execute(context.Background(), &Input{To: "info@omerhsa.com", Subject: "x", Body: "y"})
	stdErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeSMTPError, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestHandler_ParseInput(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	tests := []struct {
		name    string
		vars    string
		wantErr bool
	}{
		{"valid", `{"to":"info@omerhsa.com","subject":"Hola","body":"Mensaje","isHtml":false}`, false},
		{"missing body", `{"to":"info@omerhsa.com","subject":"Hola"}`, true},
		{"unknown field", `{"to":"info@omerhsa.com","subject":"Hola","body":"x","bcc":"a@b.co"}`, true},
		{"bad priority", `{"to":"info@omerhsa.com","subject":"Hola","body":"x","priority":"urgent"}`, true},
		{"invalid json", `{"to":`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := h.parseInput(tt.vars)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "info@omerhsa.com", input.To)
		})
	}
}

func TestCreateConfigFromAppConfig(t *testing.T) {
	app := &config.Config{Workers: map[string]config.WorkerConfig{
		ConfigKey: {Enabled: false, MaxJobsActive: 2, Timeout: 5000},
	}}
	app.Integrations.SMTP.Host = "smtp.omerhsa.com"
	app.Integrations.SMTP.Port = 2525
	app.Integrations.SMTP.DefaultFrom = "no-reply@omerhsa.com"

	cfg := createConfigFromAppConfig(app, nil)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 2, cfg.MaxJobsActive)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "smtp.omerhsa.com", cfg.SMTPHost)
	assert.Equal(t, 2525, cfg.SMTPPort)
	assert.Equal(t, "no-reply@omerhsa.com", cfg.DefaultFrom)
}

func TestHandler_Accessors(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	assert.Equal(t, "email.send", h.GetTaskType())
	assert.True(t, h.IsEnabled())
	assert.Equal(t, "smtp.omerhsa.com", h.GetConfig().SMTPHost)
}
