// Package contact handles the public contact form.
package contact

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode"

	"omerhsa-quotes/internal/common/errors"
	"omerhsa-quotes/internal/common/logger"
	"omerhsa-quotes/internal/common/metrics"
	"omerhsa-quotes/internal/common/validation"
	"omerhsa-quotes/internal/models"
	emailsend "omerhsa-quotes/internal/workers/communication/email-send"

	"github.com/google/uuid"
)

const (
	SuccessTitle   = "¡Mensaje Enviado!"
	SuccessMessage = "Gracias por escribirnos. Tu mensaje ha sido recibido y te responderemos a la brevedad posible."
)

type Input struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type Result struct {
	ID      string               `json:"id"`
	Status  models.ContactStatus `json:"status"`
	Title   string               `json:"title"`
	Message string               `json:"message"`
}

// Mailer is implemented by the email-send worker handler.
type Mailer interface {
	Execute(ctx context.Context, input *emailsend.Input) (*emailsend.Output, error)
}

// ContactSync is implemented by the crm-contact-create worker service.
type ContactSync interface {
	UpsertForMessage(ctx context.Context, msg models.ContactMessage) (string, error)
}

type Options struct {
	DB     *sql.DB
	Mailer Mailer
	CRM    ContactSync
	Inbox  string
	Logger logger.Logger
}

type Service struct {
	db     *sql.DB
	mailer Mailer
	crm    ContactSync
	inbox  string
	logger logger.Logger
	now    func() time.Time
}

func NewService(opts Options) *Service {
	s := &Service{
		db:     opts.DB,
		mailer: opts.Mailer,
		crm:    opts.CRM,
		inbox:  opts.Inbox,
		logger: opts.Logger,
		now:    time.Now,
	}
	if s.logger == nil {
		s.logger = logger.NewNoOpLogger()
	}
	return s
}

func inputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"name", "email", "message"},
		Properties: map[string]validation.Property{
			"name":    {Type: "string", MinLength: validation.IntPtr(1), MaxLength: validation.IntPtr(120)},
			"email":   {Type: "string", Pattern: validation.StringPtr(validation.EmailPattern)},
			"subject": {Type: "string", Enum: models.ContactSubjects},
			"message": {Type: "string", MinLength: validation.IntPtr(1), MaxLength: validation.IntPtr(5000)},
		},
	}
}

// Validate trims in, defaults the subject and returns field -> message for
// every rejected field.
func Validate(in *Input) map[string]string {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Message = strings.TrimSpace(in.Message)
	if in.Subject == "" {
		in.Subject = models.ContactSubjects[0]
	}

	fields := map[string]interface{}{"subject": in.Subject}
	for name, v := range map[string]string{"name": in.Name, "email": in.Email, "message": in.Message} {
		if v != "" {
			fields[name] = v
		}
	}

	result := validation.ValidateInput(fields, inputSchema())
	if result.Valid && !hasControl(in.Name) {
		return nil
	}
	out := make(map[string]string, len(result.Errors)+1)
	for _, e := range result.Errors {
		if _, exists := out[e.Field]; !exists {
			out[e.Field] = fieldMessage(e.Field, e.Code)
		}
	}
	if _, exists := out["name"]; !exists && hasControl(in.Name) {
		out["name"] = "El nombre contiene caracteres no permitidos."
	}
	return out
}

// hasControl reports control characters, line breaks included. The name ends
// up in mail headers.
func hasControl(s string) bool {
	return strings.IndexFunc(s, unicode.IsControl) >= 0
}

// subjectLabel bounds the metric label to the known subjects.
func subjectLabel(subject string) string {
	for _, known := range models.ContactSubjects {
		if subject == known {
			return subject
		}
	}
	return "other"
}

func fieldMessage(field, code string) string {
	switch {
	case code == validation.CodeRequired:
		return "Este campo es obligatorio."
	case field == "email":
		return "Ingresa un correo electrónico válido."
	case field == "subject":
		return "Selecciona un asunto válido."
	case code == validation.CodeMaxLength:
		return "El texto es demasiado largo."
	default:
		return "Valor inválido."
	}
}

// FieldsError carries the per-field messages of a rejected form.
type FieldsError struct {
	Fields map[string]string
}

func (e *FieldsError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	return fmt.Sprintf("contact form invalid: %s", strings.Join(names, ", "))
}

// Submit stores the message, then mails the inbox and syncs the CRM. Only
// the insert is required; the other two are logged when they fail.
func (s *Service) Submit(ctx context.Context, in Input) (*Result, error) {
	if fields := Validate(&in); fields != nil {
		metrics.ContactMessages.WithLabelValues(subjectLabel(in.Subject), "invalid").Inc()
		return nil, &FieldsError{Fields: fields}
	}

	msg := models.ContactMessage{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Email:     in.Email,
		Subject:   in.Subject,
		Message:   in.Message,
		CreatedAt: s.now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contact_messages (id, name, email, subject, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		msg.ID, msg.Name, msg.Email, msg.Subject, msg.Message, msg.CreatedAt,
	)
	if err != nil {
		metrics.ContactMessages.WithLabelValues(msg.Subject, "failed").Inc()
		return nil, errors.NewDatabaseInsertFailedError(err)
	}

	s.notifyInbox(ctx, msg)
	s.syncCRM(ctx, msg)

	metrics.ContactMessages.WithLabelValues(msg.Subject, "received").Inc()
	s.logger.Info("contact message received", map[string]interface{}{
		"messageId": msg.ID,
		"subject":   msg.Subject,
	})

	return &Result{ID: msg.ID, Status: models.ContactSuccess, Title: SuccessTitle, Message: SuccessMessage}, nil
}

func (s *Service) notifyInbox(ctx context.Context, msg models.ContactMessage) {
	if s.mailer == nil || s.inbox == "" {
		return
	}
	_, err := s.mailer.Execute(ctx, &emailsend.Input{
		To:      s.inbox,
		ReplyTo: msg.Email,
		Subject: fmt.Sprintf("[Contacto] %s - %s", msg.Subject, msg.Name),
		Body: fmt.Sprintf("Nombre: %s\nCorreo: %s\nAsunto: %s\n\n%s\n",
			msg.Name, msg.Email, msg.Subject, msg.Message),
	})
	if err != nil {
		s.logger.Warn("contact inbox email failed", map[string]interface{}{"messageId": msg.ID, "error": err.Error()})
	}
}

func (s *Service) syncCRM(ctx context.Context, msg models.ContactMessage) {
	if s.crm == nil {
		return
	}
	id, err := s.crm.UpsertForMessage(ctx, msg)
	if err != nil {
		s.logger.Warn("crm contact sync failed", map[string]interface{}{"messageId": msg.ID, "error": err.Error()})
		return
	}
	s.logger.Debug("crm contact synced", map[string]interface{}{"messageId": msg.ID, "contactId": id})
}
