package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contactSchema() JSONSchema {
	return JSONSchema{
		Type: "object",
		Properties: map[string]Property{
			"firstName": {Type: "string", MinLength: IntPtr(1), MaxLength: IntPtr(5)},
			"phone":     {Type: "string", Pattern: StringPtr(PhonePattern)},
			"location":  {Type: "string", Enum: []string{"Tegucigalpa", "La Ceiba"}},
			"year":      {Type: "number", Minimum: FloatPtr(1950), Maximum: FloatPtr(2030)},
		},
		Required: []string{"firstName", "phone"},
	}
}

func TestValidateInput(t *testing.T) {
	tests := []struct {
		name      string
		input     map[string]interface{}
		wantValid bool
		wantCodes map[string]string
	}{
		{
			name:      "valid",
			input:     map[string]interface{}{"firstName": "Juan", "phone": "9999-9999", "location": "La Ceiba", "year": 2024.0},
			wantValid: true,
		},
		{
			name:      "missing required",
			input:     map[string]interface{}{"firstName": "Juan"},
			wantCodes: map[string]string{"phone": CodeRequired},
		},
		{
			name:      "rune length counts accents once",
			input:     map[string]interface{}{"firstName": "Ángel", "phone": "99999999"},
			wantValid: true,
		},
		{
			name:  "pattern enum and range",
			input: map[string]interface{}{"firstName": "Juan", "phone": "12-34", "location": "Roatán", "year": 1900},
			wantCodes: map[string]string{
				"phone":    CodePattern,
				"location": CodeInvalidEnum,
				"year":     CodeMinimum,
			},
		},
		{
			name:      "extra field rejected",
			input:     map[string]interface{}{"firstName": "Juan", "phone": "99999999", "nickname": "J"},
			wantCodes: map[string]string{"nickname": CodeExtraField},
		},
		{
			name:      "wrong type",
			input:     map[string]interface{}{"firstName": 7, "phone": "99999999"},
			wantCodes: map[string]string{"firstName": CodeInvalidType},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateInput(tt.input, contactSchema())
			assert.Equal(t, tt.wantValid, result.Valid, result.GetErrorMessages())
			for field, code := range tt.wantCodes {
				fieldErrs := result.GetErrorsForField(field)
				require.NotEmpty(t, fieldErrs, field)
				assert.Equal(t, code, fieldErrs[0].Code)
			}
		})
	}
}

func TestValidatePhone(t *testing.T) {
	for _, phone := range []string{"9999-9999", "99999999", "+504 9999-9999", "+50422220000"} {
		assert.True(t, ValidatePhone(phone), phone)
	}
	for _, phone := range []string{"", "999-9999", "+1 555 555 5555", "abcd-efgh"} {
		assert.False(t, ValidatePhone(phone), phone)
	}
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+50499999999", NormalizePhone("9999-9999"))
	assert.Equal(t, "+50422220000", NormalizePhone("+504 2222-0000"))
	assert.Equal(t, "+50450412345", NormalizePhone("5041-2345"))
	assert.Equal(t, "", NormalizePhone("123"))
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("info@omerhsa.com"))
	assert.False(t, ValidateEmail("info@omerhsa"))
}

func TestValidateActivityNaming(t *testing.T) {
	assert.NoError(t, ValidateActivityNaming("crm.lead.create"))
	assert.Error(t, ValidateActivityNaming("crm-lead-create"))
}
