package quote

import (
	"omerhsa-quotes/internal/models"
	"omerhsa-quotes/internal/wizard"
)

// View is the wizard state plus everything the form renders from it.
type View struct {
	State          wizard.State         `json:"state"`
	Title          string               `json:"title"`
	Progress       int                  `json:"progress"`
	TotalSteps     int                  `json:"totalSteps"`
	InsuranceLabel string               `json:"insuranceLabel,omitempty"`
	DetailsKind    string               `json:"detailsKind,omitempty"`
	CanRetry       bool                 `json:"canRetry"`
	Summary        []string             `json:"summary,omitempty"`
	SuccessMessage string               `json:"successMessage,omitempty"`
	Record         *models.QuoteRequest `json:"record,omitempty"`
}

func NewView(s wizard.State) View {
	v := View{
		State:      s,
		Title:      s.Title(),
		Progress:   s.Progress(),
		TotalSteps: wizard.TotalSteps,
		CanRetry:   s.CanRetry(),
	}
	if s.InsuranceType.Valid() {
		v.InsuranceLabel = s.InsuranceType.Label()
	}
	if d := s.ActiveDetails(); d != nil {
		v.DetailsKind = d.Kind()
	}
	if s.Step == wizard.StepReview {
		v.Summary = s.Summary()
	}
	if s.Submission == models.StateSubmitted {
		v.SuccessMessage = s.SuccessMessage()
		rec := s.Record()
		v.Record = &rec
	}
	return v
}
