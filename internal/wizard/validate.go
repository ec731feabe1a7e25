package wizard

import (
	"fmt"
	"strconv"
	"strings"

	"omerhsa-quotes/internal/common/validation"
	"omerhsa-quotes/internal/models"
)

type Field string

const (
	FieldInsuranceType Field = "insuranceType"
	FieldFirstName     Field = "firstName"
	FieldLastName      Field = "lastName"
	FieldEmail         Field = "email"
	FieldPhone         Field = "phone"
	FieldLocation      Field = "location"
	FieldVehicleModel  Field = "vehicleModel"
	FieldVehicleYear   Field = "vehicleYear"
	FieldVehicleValue  Field = "vehicleValue"
	FieldOwnerCategory Field = "ownerCategory"
	FieldComments      Field = "comments"
)

const (
	maxNameLength     = 80
	maxCommentsLength = 2000
)

const (
	codeRequired = validation.CodeRequired
	codeTooLong  = validation.CodeMaxLength
	codePattern  = validation.CodePattern
	codeEnum     = validation.CodeInvalidEnum
	codeRange    = "OUT_OF_RANGE"
)

var messages = map[Field]map[string]string{
	FieldInsuranceType: {codeRequired: "Selecciona un tipo de seguro."},
	FieldFirstName:     {codeTooLong: fmt.Sprintf("El nombre no puede exceder %d caracteres.", maxNameLength)},
	FieldLastName:      {codeTooLong: fmt.Sprintf("El apellido no puede exceder %d caracteres.", maxNameLength)},
	FieldEmail:         {codePattern: "Ingresa un correo electrónico válido."},
	FieldPhone:         {codePattern: "Ingresa un teléfono válido (ej. 9999-9999)."},
	FieldLocation:      {codeEnum: "Selecciona una ubicación válida."},
	FieldVehicleYear:   {codePattern: "Ingresa el año con 4 dígitos."},
	FieldVehicleValue:  {codePattern: "Ingresa un valor numérico."},
	FieldOwnerCategory: {codeEnum: "Selecciona una categoría válida."},
	FieldComments:      {codeTooLong: fmt.Sprintf("Los comentarios no pueden exceder %d caracteres.", maxCommentsLength)},
}

func fieldError(field Field, code string) FieldError {
	msg, ok := messages[field][code]
	if !ok {
		msg = "Este campo es obligatorio."
		if code != codeRequired {
			msg = "Valor inválido."
		}
	}
	return FieldError{Field: field, Code: code, Message: msg}
}

var contactSchema = validation.JSONSchema{
	Type: "object",
	Properties: map[string]validation.Property{
		string(FieldFirstName): {Type: "string", MaxLength: validation.IntPtr(maxNameLength)},
		string(FieldLastName):  {Type: "string", MaxLength: validation.IntPtr(maxNameLength)},
		string(FieldEmail):     {Type: "string", Pattern: validation.StringPtr(validation.EmailPattern)},
		string(FieldPhone):     {Type: "string", Pattern: validation.StringPtr(validation.PhonePattern)},
		string(FieldLocation):  {Type: "string", Enum: models.Locations},
	},
	Required: []string{string(FieldFirstName), string(FieldPhone)},
}

var vehicleSchema = validation.JSONSchema{
	Type: "object",
	Properties: map[string]validation.Property{
		string(FieldVehicleModel):  {Type: "string", MaxLength: validation.IntPtr(maxNameLength)},
		string(FieldVehicleYear):   {Type: "string", Pattern: validation.StringPtr(`^\d{4}$`)},
		string(FieldVehicleValue):  {Type: "string", Pattern: validation.StringPtr(`^\d[\d,]*(\.\d{1,2})?$`)},
		string(FieldOwnerCategory): {Type: "string", Enum: models.OwnerCategories},
	},
	Required: []string{string(FieldVehicleModel), string(FieldVehicleYear)},
}

var generalSchema = validation.JSONSchema{
	Type: "object",
	Properties: map[string]validation.Property{
		string(FieldComments): {Type: "string", MaxLength: validation.IntPtr(maxCommentsLength)},
	},
}

// presentFields keeps only non-blank values so optional fields left empty are
// not checked against their pattern.
func presentFields(fields map[Field]string) map[string]interface{} {
	input := make(map[string]interface{}, len(fields))
	for name, v := range fields {
		if strings.TrimSpace(v) != "" {
			input[string(name)] = strings.TrimSpace(v)
		}
	}
	return input
}

func toFieldErrors(result *validation.ValidationResult) []FieldError {
	out := make([]FieldError, 0, len(result.Errors))
	for _, e := range result.Errors {
		out = append(out, fieldError(Field(e.Field), e.Code))
	}
	return out
}

// ValidateStep checks a single step without changing the state.
func (s *State) ValidateStep(step Step) *ValidationError {
	return s.validateStep(step)
}

func (s *State) validateStep(step Step) *ValidationError {
	var fields []FieldError

	switch step {
	case StepSelection:
		if !s.InsuranceType.Valid() {
			fields = append(fields, fieldError(FieldInsuranceType, codeRequired))
		}
	case StepPersonalInfo:
		result := validation.ValidateInput(presentFields(map[Field]string{
			FieldFirstName: s.Contact.FirstName,
			FieldLastName:  s.Contact.LastName,
			FieldEmail:     s.Contact.Email,
			FieldPhone:     s.Contact.Phone,
			FieldLocation:  s.Contact.Location,
		}), contactSchema)
		fields = toFieldErrors(result)
	case StepDetails:
		if s.InsuranceType == models.InsuranceAuto {
			fields = s.validateVehicle()
		} else {
			result := validation.ValidateInput(presentFields(map[Field]string{
				FieldComments: s.Comments,
			}), generalSchema)
			fields = toFieldErrors(result)
		}
	}

	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Step: step, Fields: fields}
}

func (s *State) validateVehicle() []FieldError {
	result := validation.ValidateInput(presentFields(map[Field]string{
		FieldVehicleModel:  s.Vehicle.Model,
		FieldVehicleYear:   s.Vehicle.Year,
		FieldVehicleValue:  s.Vehicle.EstimatedValue,
		FieldOwnerCategory: s.Vehicle.OwnerCategory,
	}), vehicleSchema)
	fields := toFieldErrors(result)

	if s.Vehicle.Year == "" || result.HasErrors(string(FieldVehicleYear)) {
		return fields
	}
	rules := s.ruleSet()
	maxYear := rules.Now().Year() + 1
	year, _ := strconv.Atoi(s.Vehicle.Year)
	if year < rules.MinVehicleYear || year > maxYear {
		fields = append(fields, FieldError{
			Field:   FieldVehicleYear,
			Code:    codeRange,
			Message: fmt.Sprintf("Ingresa un año entre %d y %d.", rules.MinVehicleYear, maxYear),
		})
	}
	return fields
}

// Validate checks steps 1 to 3 and returns the first failing step.
func (s *State) Validate() *ValidationError {
	for step := StepSelection; step < StepReview; step++ {
		if verr := s.validateStep(step); verr != nil {
			return verr
		}
	}
	return nil
}
