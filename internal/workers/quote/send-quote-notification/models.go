package sendquotenotification

import (
	"context"
	"strings"

	commonaws "omerhsa-quotes/internal/common/aws"
	"omerhsa-quotes/internal/common/logger"
	"omerhsa-quotes/internal/models"
)

type Input struct {
	QuoteID       string `json:"quoteId"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName,omitempty"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone"`
	InsuranceName string `json:"insuranceName"`
	Summary       string `json:"summary,omitempty"`
}

type Output struct {
	NotificationID string                `json:"notificationId"`
	Status         string                `json:"status"` // "sent", "failed", "disabled"
	Deliveries     []models.Notification `json:"deliveries,omitempty"`
	SentAt         string                `json:"sentAt"` // ISO 8601
}

const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// EmailSender is satisfied by the SES client.
type EmailSender interface {
	Send(ctx context.Context, msg commonaws.Email) (string, error)
}

// SMSSender is satisfied by the SNS client.
type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) (string, error)
}

type ServiceDependencies struct {
	Logger logger.Logger
	Email  EmailSender
	SMS    SMSSender
}

func InputFromQuote(q models.QuoteRequest) *Input {
	return &Input{
		QuoteID:       q.ID,
		FirstName:     q.Contact.FirstName,
		LastName:      q.Contact.LastName,
		Email:         q.Contact.Email,
		Phone:         q.Contact.Phone,
		InsuranceName: q.InsuranceType.Label(),
		Summary:       strings.Join(q.Summary(), "\n"),
	}
}
