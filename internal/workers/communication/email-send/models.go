package emailsend

import (
	"time"

	"omerhsa-quotes/internal/common/logger"
)

type Input struct {
	From     string                 `json:"from,omitempty"`
	To       string                 `json:"to"`
	CC       string                 `json:"cc,omitempty"`
	ReplyTo  string                 `json:"replyTo,omitempty"`
	Subject  string                 `json:"subject"`
	Body     string                 `json:"body"`
	IsHTML   bool                   `json:"isHtml"`
	Priority string                 `json:"priority,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type Output struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	MessageID string    `json:"messageId,omitempty"`
	Provider  string    `json:"provider,omitempty"`
	SentAt    time.Time `json:"sentAt,omitempty"`
}

// SendFunc delivers a raw RFC 5322 message. Tests replace the SMTP transport with it.
type SendFunc func(from string, to []string, msg []byte) error

type ServiceDependencies struct {
	Logger logger.Logger
	Send   SendFunc
}
