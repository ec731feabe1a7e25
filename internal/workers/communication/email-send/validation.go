package emailsend

import "omerhsa-quotes/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"to", "subject", "body"},
		Properties: map[string]validation.Property{
			"from":     {Type: "string", MaxLength: validation.IntPtr(255)},
			"to":       {Type: "string", MinLength: validation.IntPtr(5), MaxLength: validation.IntPtr(255)},
			"cc":       {Type: "string", MaxLength: validation.IntPtr(1000)},
			"replyTo":  {Type: "string", MaxLength: validation.IntPtr(255)},
			"subject":  {Type: "string", MinLength: validation.IntPtr(1), MaxLength: validation.IntPtr(500)},
			"body":     {Type: "string", MinLength: validation.IntPtr(1), MaxLength: validation.IntPtr(100000)},
			"isHtml":   {Type: "boolean"},
			"priority": {Type: "string", Enum: []string{"high", "normal", "low"}},
			"metadata": {Type: "object"},
		},
		AdditionalProperties: false,
	}
}
