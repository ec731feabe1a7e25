package quoterecord

import "omerhsa-quotes/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"quoteId", "status"},
		Properties: map[string]validation.Property{
			"quoteId": {
				Type:      "string",
				MinLength: validation.IntPtr(1),
				MaxLength: validation.IntPtr(64),
			},
			"status": {
				Type: "string",
				Enum: validStatuses,
			},
			"crmLeadId": {
				Type:      "string",
				MaxLength: validation.IntPtr(64),
			},
			"processKey": {
				Type: "number",
			},
		},
		// The quote-request process passes its whole variable set.
		AdditionalProperties: true,
	}
}
