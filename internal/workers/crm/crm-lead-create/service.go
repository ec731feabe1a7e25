package crmleadcreate

import (
	"context"
	stderrors "errors"
	"fmt"
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
	crm    LeadAPI
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{config: config, logger: deps.Logger, crm: deps.CRM}
}

// Execute creates a Zoho lead for the quote. A lead already registered with
// the same email is reused.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	if s.crm == nil {
		return nil, errors.NewCRMNotConfiguredError()
	}

	if input.Email != "" {
		leads, err := s.crm.SearchLeads(ctx, input.Email)
		if err != nil {
			return nil, crmError("search_leads", err)
		}
		if len(leads) > 0 {
			s.logger.Info("lead already exists", map[string]interface{}{
				"quoteId": input.QuoteID,
				"leadId":  leads[0].ID,
			})
			return &Output{
				Success:     true,
				Message:     "Existing lead reused",
				LeadID:      leads[0].ID,
				Existing:    true,
				CRMProvider: "zoho",
			}, nil
		}
	}

	lastName := input.LastName
	if lastName == "" {
		// Zoho requires Last_Name on leads.
		lastName = input.FirstName
	}
	phone := validation.NormalizePhone(input.Phone)
	if phone == "" {
		phone = input.Phone
	}

	leadID, err := s.crm.CreateLead(ctx, &zoho.Lead{
		FirstName:   input.FirstName,
		LastName:    lastName,
		Email:       input.Email,
		Phone:       phone,
		City:        input.Location,
		Source:      s.config.LeadSource,
		Status:      "Not Contacted",
		Description: fmt.Sprintf("%s\nCotización %s", input.Summary, input.QuoteID),
	})
	if err != nil {
		return nil, crmError("create_lead", err)
	}

	s.logger.Info("lead created", map[string]interface{}{
		"quoteId":   input.QuoteID,
		"leadId":    leadID,
		"insurance": input.InsuranceName,
	})

	return &Output{
		Success:     true,
		Message:     "Lead created",
		LeadID:      leadID,
		CRMProvider: "zoho",
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// CreateForQuote runs Execute for a quote and returns the lead id.
func (s *Service) CreateForQuote(ctx context.Context, q models.QuoteRequest) (string, error) {
	out, err := s.Execute(ctx, InputFromQuote(q))
	if err != nil {
		return "", err
	}
	return out.LeadID, nil
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
