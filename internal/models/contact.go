package models

import "time"

// ContactSubjects are the options of the contact form subject selector.
var ContactSubjects = []string{
	"Consulta General",
	"Seguimiento de Reclamo",
	"Alianzas Corporativas",
	"Trabaja con Nosotros",
}

// ContactStatus mirrors the form lifecycle: idle, submitting, success.
type ContactStatus string

const (
	ContactIdle       ContactStatus = "idle"
	ContactSubmitting ContactStatus = "submitting"
	ContactSuccess    ContactStatus = "success"
)

type ContactMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
