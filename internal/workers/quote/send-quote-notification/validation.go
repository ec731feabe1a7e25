package sendquotenotification

import "omerhsa-quotes/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"quoteId", "firstName", "phone", "insuranceName"},
		Properties: map[string]validation.Property{
			"quoteId":       {Type: "string", MinLength: validation.IntPtr(1)},
			"firstName":     {Type: "string", MinLength: validation.IntPtr(1)},
			"lastName":      {Type: "string"},
			"email":         {Type: "string"},
			"phone":         {Type: "string", MinLength: validation.IntPtr(8)},
			"insuranceName": {Type: "string", MinLength: validation.IntPtr(1)},
			"summary":       {Type: "string"},
		},
		AdditionalProperties: true,
	}
}
