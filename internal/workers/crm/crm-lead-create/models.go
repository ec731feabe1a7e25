package crmleadcreate

import (
	"context"
	"strings"
	"time"

	"omerhsa-quotes/internal/common/logger"
	"omerhsa-quotes/internal/common/zoho"
	"omerhsa-quotes/internal/models"
)

type Input struct {
	QuoteID       string `json:"quoteId"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName,omitempty"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone"`
	Location      string `json:"location,omitempty"`
	InsuranceName string `json:"insuranceName"`
	Summary       string `json:"summary,omitempty"`
}

type Output struct {
	Success     bool      `json:"success"`
	Message     string    `json:"message"`
	LeadID      string    `json:"leadId,omitempty"`
	Existing    bool      `json:"existing"`
	CRMProvider string    `json:"crmProvider,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// LeadAPI is the part of the Zoho client the worker needs.
type LeadAPI interface {
	SearchLeads(ctx context.Context, email string) ([]zoho.Lead, error)
	CreateLead(ctx context.Context, lead *zoho.Lead) (string, error)
}

type ServiceDependencies struct {
	Logger logger.Logger
	CRM    LeadAPI
}

// InputFromQuote maps a submitted quote to the worker input.
func InputFromQuote(q models.QuoteRequest) *Input {
	return &Input{
		QuoteID:       q.ID,
		FirstName:     q.Contact.FirstName,
		LastName:      q.Contact.LastName,
		Email:         q.Contact.Email,
		Phone:         q.Contact.Phone,
		Location:      q.Contact.Location,
		InsuranceName: q.InsuranceType.Label(),
		Summary:       strings.Join(q.Summary(), "\n"),
	}
}
