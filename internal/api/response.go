package api

import (
	stderrors "errors"
	"net/http"

	"omerhsa-quotes/internal/common/errors"
	"omerhsa-quotes/internal/common/logger"
	"omerhsa-quotes/internal/contact"
	"omerhsa-quotes/internal/quote"
	"omerhsa-quotes/internal/wizard"

	"github.com/gin-gonic/gin"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Status    string            `json:"status"`
	Code      int               `json:"code"`
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message,omitempty"`
	Errors    map[string]string `json:"errors,omitempty"`
	TraceID   string            `json:"trace_id,omitempty"`
	Data      interface{}       `json:"data,omitempty"`
}

func traceID(c *gin.Context) string {
	return c.GetString(traceIDKey)
}

func RespondSuccess(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, APIResponse{
		Status:  "success",
		Code:    http.StatusOK,
		Message: message,
		TraceID: traceID(c),
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, errorCode errors.ErrorCode, message string) {
	c.JSON(code, APIResponse{
		Status:    "error",
		Code:      code,
		ErrorCode: string(errorCode),
		Message:   message,
		TraceID:   traceID(c),
	})
}

const (
	msgValidation   = "Revisa los campos marcados."
	msgNoDraft      = "No hay una cotización en curso."
	msgClosed       = "La cotización fue descartada."
	msgInProgress   = "Tu solicitud ya se está enviando."
	msgInvalidStep  = "Esa acción no está disponible en este paso."
	msgUnavailable  = "Servicio no disponible. Intenta de nuevo en unos minutos."
	msgInternal     = "Ocurrió un error inesperado."
	msgGateRequired = "Acceso restringido. Inicia sesión para continuar."
	msgBadPayload   = "Solicitud inválida."
)

// HandleServiceError maps a service error to a status and envelope. data,
// when not nil, is returned alongside the error so the client can render
// the state the error left behind.
func HandleServiceError(c *gin.Context, log logger.Logger, err error, data interface{}) {
	resp := APIResponse{Status: "error", TraceID: traceID(c), Data: data}

	var (
		verr *wizard.ValidationError
		serr *wizard.SubmissionError
		ferr *contact.FieldsError
	)

	switch {
	case stderrors.As(err, &verr):
		resp.Code = http.StatusUnprocessableEntity
		resp.ErrorCode = string(errors.ErrCodeValidationFailed)
		resp.Message = msgValidation
		resp.Errors = verr.Messages()
	case stderrors.As(err, &ferr):
		resp.Code = http.StatusUnprocessableEntity
		resp.ErrorCode = string(errors.ErrCodeValidationFailed)
		resp.Message = msgValidation
		resp.Errors = ferr.Fields
	case stderrors.As(err, &serr):
		resp.Code = http.StatusBadGateway
		if !serr.Retryable {
			resp.Code = http.StatusUnprocessableEntity
		}
		resp.ErrorCode = string(serr.Code)
		resp.Message = serr.Message
	case stderrors.Is(err, quote.ErrNoDraft):
		resp.Code = http.StatusNotFound
		resp.Message = msgNoDraft
	case stderrors.Is(err, wizard.ErrClosed):
		resp.Code = http.StatusConflict
		resp.Message = msgClosed
	default:
		stdErr, ok := errors.As(err)
		if !ok {
			stdErr = errors.NewInternalError(err)
		}
		resp.ErrorCode = string(stdErr.Code)
		resp.Code, resp.Message = statusFor(stdErr)
	}

	if resp.Code >= http.StatusInternalServerError {
		log.Error("request failed", map[string]interface{}{
			"trace_id": resp.TraceID,
			"path":     c.FullPath(),
			"error":    err.Error(),
		})
	}
	c.JSON(resp.Code, resp)
}

func statusFor(e *errors.StandardError) (int, string) {
	switch e.Code {
	case errors.ErrCodeValidationFailed, errors.ErrCodeInputParsingFailed:
		return http.StatusBadRequest, msgBadPayload
	case errors.ErrCodeInvalidTransition:
		return http.StatusConflict, msgInvalidStep
	case errors.ErrCodeSubmissionInProgress:
		return http.StatusConflict, msgInProgress
	case errors.ErrCodeAuthenticationFailed, errors.ErrCodeSessionExpired:
		return http.StatusUnauthorized, e.Message
	case errors.ErrCodeSessionStoreFailed, errors.ErrCodeDatabaseConnectionFailed:
		return http.StatusServiceUnavailable, msgUnavailable
	default:
		return http.StatusInternalServerError, msgInternal
	}
}
