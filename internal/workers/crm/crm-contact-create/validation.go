package crmcontactcreate

import "omerhsa-quotes/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"name", "email"},
		Properties: map[string]validation.Property{
			"messageId": {Type: "string"},
			"name":      {Type: "string", MinLength: validation.IntPtr(1), MaxLength: validation.IntPtr(120)},
			"email":     {Type: "string", Pattern: validation.StringPtr(validation.EmailPattern)},
			"phone":     {Type: "string", Pattern: validation.StringPtr(validation.PhonePattern)},
			"subject":   {Type: "string", MaxLength: validation.IntPtr(120)},
			"message":   {Type: "string", MaxLength: validation.IntPtr(5000)},
		},
		AdditionalProperties: true,
	}
}
