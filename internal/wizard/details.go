package wizard

import "omerhsa-quotes/internal/models"

// Details is the step-3 payload. It is either AutoDetails or GeneralDetails.
type Details interface {
	Kind() string
	apply(q *models.QuoteRequest)
}

type AutoDetails struct {
	models.VehicleDetails
}

func (AutoDetails) Kind() string { return "auto" }

func (d AutoDetails) apply(q *models.QuoteRequest) {
	v := d.VehicleDetails
	q.Vehicle = &v
	q.Comments = nil
}

type GeneralDetails struct {
	Comments string `json:"comments"`
}

func (GeneralDetails) Kind() string { return "general" }

func (d GeneralDetails) apply(q *models.QuoteRequest) {
	c := d.Comments
	q.Comments = &c
	q.Vehicle = nil
}
