package models

import (
	"fmt"
	"strings"
	"time"
)

// InsuranceType is the product line chosen at the first wizard step.
type InsuranceType string

const (
	InsuranceUnset    InsuranceType = ""
	InsuranceAuto     InsuranceType = "auto"
	InsuranceMedical  InsuranceType = "medical"
	InsuranceLife     InsuranceType = "life"
	InsuranceBusiness InsuranceType = "business"
)

var insuranceLabels = map[InsuranceType]string{
	InsuranceAuto:     "Seguro de Auto",
	InsuranceMedical:  "Gastos Médicos",
	InsuranceLife:     "Seguro de Vida",
	InsuranceBusiness: "Incendio",
}

var insuranceAliases = map[string]InsuranceType{
	"auto":     InsuranceAuto,
	"medical":  InsuranceMedical,
	"medico":   InsuranceMedical,
	"médico":   InsuranceMedical,
	"life":     InsuranceLife,
	"vida":     InsuranceLife,
	"business": InsuranceBusiness,
	"empresa":  InsuranceBusiness,
	"incendio": InsuranceBusiness,
}

// InsuranceTypes lists the selectable types in display order.
func InsuranceTypes() []InsuranceType {
	return []InsuranceType{InsuranceAuto, InsuranceMedical, InsuranceLife, InsuranceBusiness}
}

// ParseInsuranceType accepts the canonical ids and the Spanish aliases used by site links.
func ParseInsuranceType(s string) (InsuranceType, bool) {
	t, ok := insuranceAliases[strings.ToLower(strings.TrimSpace(s))]
	return t, ok
}

func (t InsuranceType) Valid() bool {
	_, ok := insuranceLabels[t]
	return ok
}

func (t InsuranceType) Label() string {
	return insuranceLabels[t]
}

// SubmissionState moves forward only: editing, submitting, submitted.
type SubmissionState string

const (
	StateEditing    SubmissionState = "editing"
	StateSubmitting SubmissionState = "submitting"
	StateSubmitted  SubmissionState = "submitted"
)

const DefaultLocation = "Tegucigalpa"

// Locations offered by the contact step.
var Locations = []string{"Tegucigalpa", "San Pedro Sula", "La Ceiba", "Otro"}

// OwnerCategories offered for the vehicle owner.
var OwnerCategories = []string{"M", "F", "Juridico"}

type Contact struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Location  string `json:"location"`
}

// FullName joins first and last name.
func (c Contact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

type VehicleDetails struct {
	Model          string `json:"model"`
	Year           string `json:"year"`
	EstimatedValue string `json:"estimatedValue,omitempty"`
	OwnerCategory  string `json:"ownerCategory,omitempty"`
}

// QuoteStatus tracks a persisted quote after submission.
type QuoteStatus string

const (
	QuoteReceived   QuoteStatus = "received"
	QuoteDispatched QuoteStatus = "dispatched"
	QuoteCRMSynced  QuoteStatus = "crm_synced"
	QuoteNotified   QuoteStatus = "notified"
	QuoteFailed     QuoteStatus = "failed"
)

// QuoteRequest is the record handed to the submission boundary. Exactly one of
// Vehicle and Comments is set, chosen by InsuranceType.
type QuoteRequest struct {
	ID            string          `json:"id"`
	SessionID     string          `json:"sessionId"`
	InsuranceType InsuranceType   `json:"insuranceType"`
	Contact       Contact         `json:"contact"`
	Vehicle       *VehicleDetails `json:"vehicleDetails,omitempty"`
	Comments      *string         `json:"comments,omitempty"`
	SubmittedAt   time.Time       `json:"submittedAt"`
}

// DetailsPayload returns the active step-3 payload as a JSON-friendly map.
func (q QuoteRequest) DetailsPayload() map[string]interface{} {
	if q.Vehicle != nil {
		return map[string]interface{}{
			"vehicleModel":  q.Vehicle.Model,
			"vehicleYear":   q.Vehicle.Year,
			"vehicleValue":  q.Vehicle.EstimatedValue,
			"ownerCategory": q.Vehicle.OwnerCategory,
		}
	}
	comments := ""
	if q.Comments != nil {
		comments = *q.Comments
	}
	return map[string]interface{}{"comments": comments}
}

// Summary renders the review lines shown before submitting.
func (q QuoteRequest) Summary() []string {
	lines := []string{
		fmt.Sprintf("Seguro: %s", q.InsuranceType.Label()),
		fmt.Sprintf("Cliente: %s", q.Contact.FullName()),
		fmt.Sprintf("Contacto: %s", q.Contact.Phone),
	}
	if q.Contact.Email != "" {
		lines = append(lines, fmt.Sprintf("Correo: %s", q.Contact.Email))
	}
	lines = append(lines, fmt.Sprintf("Ubicación: %s", q.Contact.Location))
	if q.Vehicle != nil {
		lines = append(lines, fmt.Sprintf("Vehículo: %s %s", q.Vehicle.Model, q.Vehicle.Year))
	} else if q.Comments != nil && *q.Comments != "" {
		lines = append(lines, fmt.Sprintf("Comentarios: %s", *q.Comments))
	}
	return lines
}

// ProcessVariables is the variable set for the quote-request workflow.
func (q QuoteRequest) ProcessVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"quoteId":       q.ID,
		"insuranceType": string(q.InsuranceType),
		"insuranceName": q.InsuranceType.Label(),
		"firstName":     q.Contact.FirstName,
		"lastName":      q.Contact.LastName,
		"email":         q.Contact.Email,
		"phone":         q.Contact.Phone,
		"location":      q.Contact.Location,
		"summary":       strings.Join(q.Summary(), "\n"),
		"submittedAt":   q.SubmittedAt.Format(time.RFC3339),
	}
	for k, v := range q.DetailsPayload() {
		vars[k] = v
	}
	return vars
}
