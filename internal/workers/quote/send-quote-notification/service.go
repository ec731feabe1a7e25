package sendquotenotification

import (
	"context"
	"fmt"
	"strings"
	"time"

	commonaws "omerhsa-quotes/internal/common/aws"
	"omerhsa-quotes/internal/common/errors"
	"omerhsa-quotes/internal/common/logger"
	"omerhsa-quotes/internal/common/validation"
	"omerhsa-quotes/internal/models"

	"github.com/google/uuid"
)

type Service struct {
	config *Config
	logger logger.Logger
	email  EmailSender
	sms    SMSSender
	now    func() time.Time
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config: config,
		logger: deps.Logger,
		email:  deps.Email,
		sms:    deps.SMS,
		now:    time.Now,
	}
}

// Execute confirms the quote to the customer and alerts the advisor desk.
// It fails only when every attempted delivery failed.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	data := map[string]interface{}{
		"quoteId":       input.QuoteID,
		"firstName":     input.FirstName,
		"fullName":      strings.TrimSpace(input.FirstName + " " + input.LastName),
		"phone":         input.Phone,
		"insuranceName": input.InsuranceName,
		"summary":       input.Summary,
		"siteName":      s.config.SiteName,
		"sitePhone":     s.config.SitePhone,
	}

	var deliveries []models.Notification
	attempted, sent := 0, 0
	record := func(channel, recipient, messageID string, err error) {
		attempted++
		n := models.Notification{
			ID:        uuid.NewString(),
			QuoteID:   input.QuoteID,
			Channel:   channel,
			Recipient: recipient,
			Status:    StatusSent,
			MessageID: messageID,
			SentAt:    s.now().UTC(),
		}
		if err != nil {
			n.Status = StatusFailed
			s.logger.Error("notification delivery failed", map[string]interface{}{
				"error":     err,
				"channel":   channel,
				"recipient": recipient,
				"quoteId":   input.QuoteID,
			})
		} else {
			sent++
		}
		deliveries = append(deliveries, n)
	}

	if s.config.EmailEnabled && s.email != nil {
		if input.Email != "" {
			tmpl := templates[templateCustomer]
			id, err := s.email.Send(ctx, commonaws.Email{
				From:     s.config.FromEmail,
				To:       []string{input.Email},
				Subject:  renderTemplate(tmpl.subject, data),
				TextBody: renderTemplate(tmpl.body, data),
			})
			record(ChannelEmail, input.Email, id, err)
		}
		if s.config.AdvisorEmail != "" {
			tmpl := templates[templateAdvisor]
			msg := commonaws.Email{
				From:     s.config.FromEmail,
				To:       []string{s.config.AdvisorEmail},
				Subject:  renderTemplate(tmpl.subject, data),
				TextBody: renderTemplate(tmpl.body, data),
			}
			if input.Email != "" {
				msg.ReplyTo = []string{input.Email}
			}
			id, err := s.email.Send(ctx, msg)
			record(ChannelEmail, s.config.AdvisorEmail, id, err)
		}
	}

	if s.config.SMSEnabled && s.sms != nil && s.config.AdvisorPhone != "" {
		phone := validation.NormalizePhone(s.config.AdvisorPhone)
		if phone == "" {
			phone = s.config.AdvisorPhone
		}
		id, err := s.sms.SendSMS(ctx, phone, renderTemplate(templates[templateAdvisorSMS].body, data))
		record(ChannelSMS, phone, id, err)
	}

	output := &Output{
		NotificationID: uuid.NewString(),
		Status:         StatusDisabled,
		Deliveries:     deliveries,
		SentAt:         s.now().UTC().Format(time.RFC3339),
	}
	switch {
	case attempted == 0:
		s.logger.Info("notifications disabled", map[string]interface{}{"quoteId": input.QuoteID})
	case sent == 0:
		output.Status = StatusFailed
		return output, errors.NewNotificationSendFailedError("quote",
			fmt.Errorf("all %d deliveries failed for quote %s", attempted, input.QuoteID))
	default:
		output.Status = StatusSent
	}
	return output, nil
}

// NotifyQuote runs Execute for a submitted quote.
func (s *Service) NotifyQuote(ctx context.Context, q models.QuoteRequest) error {
	_, err := s.Execute(ctx, InputFromQuote(q))
	return err
}
