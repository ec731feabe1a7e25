package wizard

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"omerhsa-quotes/internal/common/errors"
)

// ErrClosed is returned by a submission whose wizard was closed while it was pending.
var ErrClosed = stderrors.New("wizard closed")

type FieldError struct {
	Field   Field  `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationError blocks Next and BeginSubmit.
type ValidationError struct {
	Step   Step         `json:"step"`
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = fmt.Sprintf("%s(%s)", f.Field, f.Code)
	}
	return fmt.Sprintf("validation failed at %s: %s", e.Step, strings.Join(names, ", "))
}

// Messages returns field -> first message, as shown next to the inputs.
func (e *ValidationError) Messages() map[string]string {
	out := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		if _, exists := out[string(f.Field)]; !exists {
			out[string(f.Field)] = f.Message
		}
	}
	return out
}

// SubmissionError is a failed submit. It is kept on the state at Review.
type SubmissionError struct {
	Code      errors.ErrorCode `json:"code"`
	Message   string           `json:"message"`
	Retryable bool             `json:"retryable"`
	Detail    string           `json:"detail,omitempty"`
	Cause     error            `json:"-"`
}

func (e *SubmissionError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *SubmissionError) Unwrap() error {
	return e.Cause
}

var submissionMessages = map[errors.ErrorCode]string{
	errors.ErrCodeSubmissionTimeout:   "El envío tardó demasiado. Intenta de nuevo.",
	errors.ErrCodeSubmissionCancelled: "El envío fue cancelado.",
	errors.ErrCodeValidationFailed:    "Revisa los datos de tu solicitud.",
	errors.ErrCodeSubmissionFailed:    "No pudimos enviar tu solicitud. Intenta de nuevo en unos minutos.",
}

func submissionMessage(code errors.ErrorCode) string {
	if msg, ok := submissionMessages[code]; ok {
		return msg
	}
	return submissionMessages[errors.ErrCodeSubmissionFailed]
}

// FromError classifies a submitter failure.
func FromError(err error) *SubmissionError {
	if err == nil {
		return nil
	}
	var serr *SubmissionError
	if stderrors.As(err, &serr) {
		return serr
	}

	out := &SubmissionError{Cause: err, Detail: err.Error()}
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		out.Code = errors.ErrCodeSubmissionTimeout
		out.Retryable = true
	case stderrors.Is(err, context.Canceled):
		out.Code = errors.ErrCodeSubmissionCancelled
		out.Retryable = true
	default:
		if stdErr, ok := errors.As(err); ok {
			out.Code = stdErr.Code
			out.Retryable = stdErr.Retryable
		} else {
			out.Code = errors.ErrCodeSubmissionFailed
			out.Retryable = true
		}
	}
	out.Message = submissionMessage(out.Code)
	return out
}
