package crmleadcreate

import "omerhsa-quotes/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"quoteId", "firstName", "phone", "insuranceName"},
		Properties: map[string]validation.Property{
			"quoteId":       {Type: "string", MinLength: validation.IntPtr(1)},
			"firstName":     {Type: "string", MinLength: validation.IntPtr(1), MaxLength: validation.IntPtr(80)},
			"lastName":      {Type: "string", MaxLength: validation.IntPtr(80)},
			"email":         {Type: "string", MaxLength: validation.IntPtr(255)},
			"phone":         {Type: "string", Pattern: validation.StringPtr(validation.PhonePattern)},
			"location":      {Type: "string"},
			"insuranceName": {Type: "string", MinLength: validation.IntPtr(1)},
			"summary":       {Type: "string", MaxLength: validation.IntPtr(4000)},
		},
		AdditionalProperties: true,
	}
}
