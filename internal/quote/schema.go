package quote

import (
	"fmt"

	"omerhsa-quotes/internal/common/errors"
	"omerhsa-quotes/internal/common/validation"
	"omerhsa-quotes/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

// recordSchema is checked against every record before it leaves the
// process. It mirrors the per-step wizard rules plus the one-of constraint
// on the step-3 payload.
var recordSchema = gojsonschema.NewGoLoader(map[string]interface{}{
	"type":     "object",
	"required": []string{"id", "sessionId", "insuranceType", "contact", "submittedAt"},
	"properties": map[string]interface{}{
		"id":            map[string]interface{}{"type": "string", "minLength": 1},
		"sessionId":     map[string]interface{}{"type": "string", "minLength": 1},
		"insuranceType": map[string]interface{}{"type": "string", "enum": insuranceEnum()},
		"contact": map[string]interface{}{
			"type":     "object",
			"required": []string{"firstName", "phone", "location"},
			"properties": map[string]interface{}{
				"firstName": map[string]interface{}{"type": "string", "minLength": 1, "maxLength": 80},
				"lastName":  map[string]interface{}{"type": "string", "maxLength": 80},
				"email": map[string]interface{}{
					"type":    "string",
					"pattern": "^$|" + validation.EmailPattern,
				},
				"phone":    map[string]interface{}{"type": "string", "pattern": validation.PhonePattern},
				"location": map[string]interface{}{"type": "string", "enum": models.Locations},
			},
		},
		"vehicleDetails": map[string]interface{}{
			"type":     "object",
			"required": []string{"model", "year"},
			"properties": map[string]interface{}{
				"model": map[string]interface{}{"type": "string", "minLength": 1},
				"year":  map[string]interface{}{"type": "string", "pattern": `^\d{4}$`},
			},
		},
		"comments": map[string]interface{}{"type": "string", "maxLength": 2000},
	},
	"oneOf": []interface{}{
		map[string]interface{}{
			"properties": map[string]interface{}{"insuranceType": map[string]interface{}{"const": string(models.InsuranceAuto)}},
			"required":   []string{"vehicleDetails"},
			"not":        map[string]interface{}{"required": []string{"comments"}},
		},
		map[string]interface{}{
			"properties": map[string]interface{}{"insuranceType": map[string]interface{}{"not": map[string]interface{}{"const": string(models.InsuranceAuto)}}},
			"not":        map[string]interface{}{"required": []string{"vehicleDetails"}},
		},
	},
})

func insuranceEnum() []string {
	types := models.InsuranceTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}

// validateRecord rejects a record that does not match recordSchema. The
// wizard validates every step first, so a failure here is not retryable.
func validateRecord(q models.QuoteRequest) error {
	result, err := gojsonschema.Validate(recordSchema, gojsonschema.NewGoLoader(q))
	if err != nil {
		return errors.NewInternalError(fmt.Errorf("record schema validation: %w", err))
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		msgs[i] = desc.String()
	}
	return errors.NewValidationFailedError(fmt.Sprintf("quote record invalid: %v", msgs))
}
