package emailsend

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net/smtp"
	"strings"
	"time"

	"omerhsa-quotes/internal/common/errors"
	"omerhsa-quotes/internal/common/logger"
	"omerhsa-quotes/internal/common/validation"
)

type Service struct {
	config *Config
	logger logger.Logger
	send   SendFunc
	now    func() time.Time
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	s := &Service{
		config: config,
		logger: deps.Logger,
		send:   deps.Send,
		now:    time.Now,
	}
	if s.send == nil {
		s.send = s.sendSMTP
	}
	return s
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.From == "" {
		input.From = s.config.DefaultFrom
	}

	s.logger.Info("Executing email send", map[string]interface{}{
		"to":      input.To,
		"subject": input.Subject,
		"isHtml":  input.IsHTML,
	})

	if err := validateHeaders(input); err != nil {
		return nil, errors.NewValidationFailedError(err.Error())
	}
	if err := validateAddresses(input); err != nil {
		return nil, errors.NewValidationFailedError(err.Error())
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.NewSMTPError(fmt.Errorf("context cancelled before sending email: %w", err))
	}

	message := s.buildMessage(input)
	if err := s.send(input.From, recipients(input), []byte(message)); err != nil {
		return nil, errors.NewSMTPError(err)
	}

	messageID := s.messageID(input)
	s.logger.Info("Email sent successfully", map[string]interface{}{
		"to":        input.To,
		"messageId": messageID,
	})

	return &Output{
		Success:   true,
		Message:   "Email sent successfully",
		MessageID: messageID,
		Provider:  "SMTP",
		SentAt:    s.now().UTC(),
	}, nil
}

func splitAddresses(list string) []string {
	var out []string
	for _, addr := range strings.Split(list, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

func validateAddresses(input *Input) error {
	if !validation.ValidateEmail(input.To) {
		return fmt.Errorf("invalid 'to' email address: %s", input.To)
	}
	if !validation.ValidateEmail(input.From) {
		return fmt.Errorf("invalid 'from' email address: %s", input.From)
	}
	for _, addr := range splitAddresses(input.CC) {
		if !validation.ValidateEmail(addr) {
			return fmt.Errorf("invalid 'cc' email address: %s", addr)
		}
	}
	if input.ReplyTo != "" && !validation.ValidateEmail(input.ReplyTo) {
		return fmt.Errorf("invalid 'replyTo' email address: %s", input.ReplyTo)
	}
	return nil
}

// validateHeaders rejects line breaks in any value written as a header.
func validateHeaders(input *Input) error {
	headers := []struct{ name, value string }{
		{"to", input.To},
		{"from", input.From},
		{"cc", input.CC},
		{"replyTo", input.ReplyTo},
		{"subject", input.Subject},
	}
	for _, h := range headers {
		if strings.ContainsAny(h.value, "\r\n") {
			return fmt.Errorf("line break in '%s' header", h.name)
		}
	}
	return nil
}

// headerValue drops CR and LF so a value can never start a new header line.
func headerValue(v string) string {
	return strings.Map(func(r rune) rune {
		if r == '\r' || r == '\n' {
			return -1
		}
		return r
	}, v)
}

func recipients(input *Input) []string {
	return append([]string{input.To}, splitAddresses(input.CC)...)
}

func (s *Service) buildMessage(input *Input) string {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", headerValue(input.From))
	fmt.Fprintf(&b, "To: %s\r\n", headerValue(input.To))
	if input.CC != "" {
		fmt.Fprintf(&b, "Cc: %s\r\n", headerValue(input.CC))
	}
	if input.ReplyTo != "" {
		fmt.Fprintf(&b, "Reply-To: %s\r\n", headerValue(input.ReplyTo))
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", headerValue(input.Subject)))

	switch strings.ToLower(input.Priority) {
	case "high":
		b.WriteString("X-Priority: 1\r\nImportance: high\r\n")
	case "low":
		b.WriteString("X-Priority: 5\r\nImportance: low\r\n")
	}

	b.WriteString("MIME-Version: 1.0\r\n")
	if input.IsHTML {
		b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	} else {
		b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	}
	b.WriteString("\r\n")
	b.WriteString(input.Body)
	return b.String()
}

func (s *Service) sendSMTP(from string, to []string, msg []byte) error {
	addr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)

	var auth smtp.Auth
	if s.config.SMTPUsername != "" && s.config.SMTPPassword != "" {
		auth = smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)
	}
	if !s.config.UseTLS {
		return smtp.SendMail(addr, auth, from, to, msg)
	}

	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Close()

	if err = client.StartTLS(&tls.Config{ServerName: s.config.SMTPHost}); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}
	if auth != nil {
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}
	if err = client.Mail(from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, rcpt := range to {
		if err = client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data writer: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}
	return client.Quit()
}

func (s *Service) messageID(input *Input) string {
	local := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, strings.SplitN(input.To, "@", 2)[0])
	if len(local) > 10 {
		local = local[:10]
	}
	return fmt.Sprintf("<%d.%s@%s>", s.now().UnixNano(), local, s.config.SMTPHost)
}
