package crmcontactcreate

import (
	"context"
	"time"

	"omerhsa-quotes/internal/common/logger"
	"omerhsa-quotes/internal/common/zoho"
	"omerhsa-quotes/internal/models"
)

type Input struct {
	MessageID string `json:"messageId,omitempty"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Message   string `json:"message,omitempty"`
}

type Output struct {
	Success     bool      `json:"success"`
	Message     string    `json:"message"`
	ContactID   string    `json:"contactId,omitempty"`
	Existing    bool      `json:"existing"`
	CRMProvider string    `json:"crmProvider,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// ContactAPI is the part of the Zoho client the worker needs.
type ContactAPI interface {
	SearchContacts(ctx context.Context, email string) ([]zoho.Contact, error)
	CreateContact(ctx context.Context, contact *zoho.Contact) (string, error)
}

type ServiceDependencies struct {
	Logger logger.Logger
	CRM    ContactAPI
}

// InputFromMessage maps a stored contact form message to the worker input.
func InputFromMessage(msg models.ContactMessage) *Input {
	return &Input{
		MessageID: msg.ID,
		Name:      msg.Name,
		Email:     msg.Email,
		Subject:   msg.Subject,
		Message:   msg.Message,
	}
}
