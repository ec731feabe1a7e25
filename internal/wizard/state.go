// Package wizard implements the four-step quote wizard as an explicit state
// value mutated only through named transitions.
package wizard

import (
	"fmt"
	"math"
	"strings"
	"time"

	"omerhsa-quotes/internal/common/errors"
	"omerhsa-quotes/internal/models"

	"github.com/google/uuid"
)

type Step int

const (
	StepSelection Step = iota + 1
	StepPersonalInfo
	StepDetails
	StepReview
)

const TotalSteps = 4

var stepNames = map[Step]string{
	StepSelection:    "selection",
	StepPersonalInfo: "personal_info",
	StepDetails:      "details",
	StepReview:       "review",
}

var stepTitles = map[Step]string{
	StepSelection:    "Elige tu Protección",
	StepPersonalInfo: "Datos de Contacto",
	StepDetails:      "Detalles del Riesgo",
	StepReview:       "Confirmación",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Title is the heading shown for the step.
func (s Step) Title() string {
	return stepTitles[s]
}

// Rules parameterize validation. The zero value means DefaultRules.
type Rules struct {
	MinVehicleYear int
	Now            func() time.Time
}

func DefaultRules() Rules {
	return Rules{MinVehicleYear: 1950, Now: time.Now}
}

// State is the whole wizard. Both the vehicle fields and the comments are
// retained while the user moves around; only the variant selected by
// InsuranceType is part of the submitted record.
type State struct {
	Step          Step                   `json:"step"`
	SessionID     string                 `json:"sessionId,omitempty"`
	InsuranceType models.InsuranceType   `json:"insuranceType"`
	Contact       models.Contact         `json:"contact"`
	Vehicle       models.VehicleDetails  `json:"vehicle"`
	Comments      string                 `json:"comments"`
	Submission    models.SubmissionState `json:"submissionState"`
	SubmissionID  string                 `json:"submissionId,omitempty"`
	Attempts      int                    `json:"attempts"`
	LastError     *SubmissionError       `json:"lastError,omitempty"`
	SubmittedAt   time.Time              `json:"submittedAt,omitempty"`

	rules Rules
}

func NewState(sessionID string) *State {
	return &State{
		Step:       StepSelection,
		SessionID:  sessionID,
		Contact:    models.Contact{Location: models.DefaultLocation},
		Submission: models.StateEditing,
	}
}

func (s *State) SetRules(r Rules) {
	s.rules = r
}

func (s *State) ruleSet() Rules {
	r := s.rules
	def := DefaultRules()
	if r.MinVehicleYear == 0 {
		r.MinVehicleYear = def.MinVehicleYear
	}
	if r.Now == nil {
		r.Now = def.Now
	}
	return r
}

func (s *State) invalid(action string) error {
	return errors.NewInvalidTransitionError(s.Step.String(), action)
}

func (s *State) requireEditing(action string) error {
	switch s.Submission {
	case models.StateSubmitting:
		return errors.NewSubmissionInProgressError()
	case models.StateSubmitted:
		return s.invalid(action)
	}
	return nil
}

// SelectInsurance stores t and moves straight to the contact step.
func (s *State) SelectInsurance(t models.InsuranceType) error {
	if err := s.requireEditing("select_insurance"); err != nil {
		return err
	}
	if s.Step != StepSelection {
		return s.invalid("select_insurance")
	}
	if !t.Valid() {
		return &ValidationError{Step: StepSelection, Fields: []FieldError{
			fieldError(FieldInsuranceType, codeRequired),
		}}
	}
	s.InsuranceType = t
	s.Step = StepPersonalInfo
	return nil
}

// SetField edits one field. Edits are accepted at any step while editing.
func (s *State) SetField(field Field, value string) error {
	if err := s.requireEditing("set_field"); err != nil {
		return err
	}
	value = strings.TrimSpace(value)
	switch field {
	case FieldFirstName:
		s.Contact.FirstName = value
	case FieldLastName:
		s.Contact.LastName = value
	case FieldEmail:
		s.Contact.Email = value
	case FieldPhone:
		s.Contact.Phone = value
	case FieldLocation:
		if value == "" {
			value = models.DefaultLocation
		}
		s.Contact.Location = value
	case FieldVehicleModel:
		s.Vehicle.Model = value
	case FieldVehicleYear:
		s.Vehicle.Year = value
	case FieldVehicleValue:
		s.Vehicle.EstimatedValue = value
	case FieldOwnerCategory:
		s.Vehicle.OwnerCategory = value
	case FieldComments:
		s.Comments = value
	default:
		return errors.NewValidationFailedError(fmt.Sprintf("unknown field %q", field))
	}
	return nil
}

// Next advances one step once the current step validates.
func (s *State) Next() error {
	if err := s.requireEditing("next"); err != nil {
		return err
	}
	if s.Step >= StepReview {
		return s.invalid("next")
	}
	if verr := s.validateStep(s.Step); verr != nil {
		return verr
	}
	s.Step++
	return nil
}

// Back returns to the previous step keeping every entered value.
func (s *State) Back() error {
	if err := s.requireEditing("back"); err != nil {
		return err
	}
	if s.Step <= StepSelection {
		return s.invalid("back")
	}
	s.Step--
	s.LastError = nil
	return nil
}

// BeginSubmit moves Review/editing to submitting and returns the record to hand
// to the submitter. The submission id is kept across retries.
func (s *State) BeginSubmit() (models.QuoteRequest, error) {
	if err := s.requireEditing("submit"); err != nil {
		return models.QuoteRequest{}, err
	}
	if s.Step != StepReview {
		return models.QuoteRequest{}, s.invalid("submit")
	}
	if verr := s.Validate(); verr != nil {
		return models.QuoteRequest{}, verr
	}
	if s.SubmissionID == "" {
		s.SubmissionID = uuid.NewString()
	}
	s.Attempts++
	s.LastError = nil
	s.SubmittedAt = s.ruleSet().Now().UTC()
	s.Submission = models.StateSubmitting
	return s.Record(), nil
}

func (s *State) CompleteSubmit() error {
	if s.Submission != models.StateSubmitting {
		return s.invalid("complete_submit")
	}
	s.Submission = models.StateSubmitted
	return nil
}

// FailSubmit returns a pending submission to Review with the error recorded.
func (s *State) FailSubmit(serr *SubmissionError) error {
	if s.Submission != models.StateSubmitting {
		return s.invalid("fail_submit")
	}
	s.Submission = models.StateEditing
	s.Step = StepReview
	s.LastError = serr
	return nil
}

// CanRetry reports whether the Review step should offer a retry.
func (s *State) CanRetry() bool {
	return s.Step == StepReview &&
		s.Submission == models.StateEditing &&
		s.LastError != nil &&
		s.LastError.Retryable
}

func (s *State) Progress() int {
	return int(math.Round(float64(s.Step) / TotalSteps * 100))
}

func (s *State) Title() string {
	return s.Step.Title()
}

// ActiveDetails returns the step-3 variant selected by InsuranceType, or nil
// while no type is stored.
func (s *State) ActiveDetails() Details {
	switch {
	case s.InsuranceType == models.InsuranceAuto:
		return AutoDetails{VehicleDetails: s.Vehicle}
	case s.InsuranceType.Valid():
		return GeneralDetails{Comments: s.Comments}
	default:
		return nil
	}
}

// Record builds the request carrying only the active step-3 payload.
func (s *State) Record() models.QuoteRequest {
	q := models.QuoteRequest{
		ID:            s.SubmissionID,
		SessionID:     s.SessionID,
		InsuranceType: s.InsuranceType,
		Contact:       s.Contact,
		SubmittedAt:   s.SubmittedAt,
	}
	if d := s.ActiveDetails(); d != nil {
		d.apply(&q)
	}
	return q
}

func (s *State) Summary() []string {
	return s.Record().Summary()
}

// SuccessMessage is shown once the request is submitted.
func (s *State) SuccessMessage() string {
	return fmt.Sprintf("Gracias %s. Un asesor experto de OMERHSA analizará tu caso y te contactará al %s en menos de 2 horas laborables.",
		s.Contact.FirstName, s.Contact.Phone)
}
