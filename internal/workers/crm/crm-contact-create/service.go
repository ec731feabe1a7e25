package crmcontactcreate

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"omerhsa-quotes/internal/common/errors"
	commonhttp "omerhsa-quotes/internal/common/http"
	"omerhsa-quotes/internal/common/logger"
	"omerhsa-quotes/internal/common/validation"
	"omerhsa-quotes/internal/common/zoho"
	"omerhsa-quotes/internal/models"
)

type Service struct {
	config *Config
	logger logger.Logger
	crm    ContactAPI
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{config: config, logger: deps.Logger, crm: deps.CRM}
}

// Execute creates a Zoho contact unless one with the same email exists.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	if s.crm == nil {
		return nil, errors.NewCRMNotConfiguredError()
	}

	existing, err := s.crm.SearchContacts(ctx, input.Email)
	if err != nil {
		return nil, crmError("search_contacts", err)
	}
	if len(existing) > 0 {
		s.logger.Debug("contact already exists", map[string]interface{}{
			"messageId": input.MessageID,
			"contactId": existing[0].ID,
		})
		return &Output{
			Success:     true,
			Message:     "Existing contact reused",
			ContactID:   existing[0].ID,
			Existing:    true,
			CRMProvider: "zoho",
		}, nil
	}

	first, last := splitName(strings.TrimSpace(input.Name))
	contact := &zoho.Contact{
		Email:     input.Email,
		FirstName: first,
		LastName:  last,
		Phone:     validation.NormalizePhone(input.Phone),
		Source:    s.config.LeadSource,
	}
	if input.Subject != "" || input.Message != "" {
		contact.Description = input.Subject + ": " + input.Message
	}

	id, err := s.crm.CreateContact(ctx, contact)
	if err != nil {
		return nil, crmError("create_contact", err)
	}

	s.logger.Info("contact created", map[string]interface{}{
		"messageId": input.MessageID,
		"contactId": id,
	})
	return &Output{
		Success:     true,
		Message:     "Contact created",
		ContactID:   id,
		CRMProvider: "zoho",
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// UpsertForMessage runs Execute for a contact form message and returns the contact id.
func (s *Service) UpsertForMessage(ctx context.Context, msg models.ContactMessage) (string, error) {
	out, err := s.Execute(ctx, InputFromMessage(msg))
	if err != nil {
		return "", err
	}
	return out.ContactID, nil
}

// splitName splits on the first space. Zoho requires a last name, so a
// single word is used for both.
func splitName(name string) (string, string) {
	first, last, found := strings.Cut(name, " ")
	if !found {
		return name, name
	}
	return first, strings.TrimSpace(last)
}

// crmError marks 4xx answers other than 429 as permanent.
func crmError(operation string, err error) *errors.StandardError {
	stdErr := errors.NewCRMAPIError(operation, err)
	var statusErr *commonhttp.StatusError
	if stderrors.As(err, &statusErr) {
		stdErr.Retryable = statusErr.Retryable()
	}
	return stdErr
}
