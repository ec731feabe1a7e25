package quoterecord

import "omerhsa-quotes/internal/models"

type Input struct {
	QuoteID    string             `json:"quoteId"`
	Status     models.QuoteStatus `json:"status"`
	CRMLeadID  string             `json:"crmLeadId,omitempty"`
	ProcessKey int64              `json:"processKey,omitempty"`
}

type Output struct {
	QuoteID   string `json:"quoteId"`
	Status    string `json:"quoteStatus"`
	UpdatedAt string `json:"updatedAt"` // ISO 8601
}

var validStatuses = []string{
	string(models.QuoteReceived),
	string(models.QuoteDispatched),
	string(models.QuoteCRMSynced),
	string(models.QuoteNotified),
	string(models.QuoteFailed),
}
