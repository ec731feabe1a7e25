package models

import "time"

// Notification records one delivery attempt for a quote.
type Notification struct {
	ID        string    `json:"id"`
	QuoteID   string    `json:"quoteId"`
	Channel   string    `json:"channel"` // "email", "sms"
	Recipient string    `json:"recipient"`
	Status    string    `json:"status"` // "sent", "failed", "disabled"
	MessageID string    `json:"messageId,omitempty"`
	SentAt    time.Time `json:"sentAt"`
}
