// Package errors provides standardized error handling for the quote service
// and its BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed     ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidTransition    ErrorCode = "INVALID_TRANSITION"
	ErrCodeSubmissionInProgress ErrorCode = "SUBMISSION_IN_PROGRESS"
	ErrCodeSubmissionFailed     ErrorCode = "SUBMISSION_FAILED"
	ErrCodeSubmissionCancelled  ErrorCode = "SUBMISSION_CANCELLED"
	ErrCodeSubmissionTimeout    ErrorCode = "SUBMISSION_TIMEOUT"
	ErrCodeInputParsingFailed   ErrorCode = "INPUT_PARSING_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeDatabaseQueryFailed      ErrorCode = "DATABASE_QUERY_FAILED"
	ErrCodeQuoteNotFound            ErrorCode = "QUOTE_NOT_FOUND"
	ErrCodeSessionStoreFailed       ErrorCode = "SESSION_STORE_FAILED"

	ErrCodeCRMAPIError      ErrorCode = "CRM_API_ERROR"
	ErrCodeCRMNotConfigured ErrorCode = "CRM_NOT_CONFIGURED"

	ErrCodeProcessStartFailed ErrorCode = "PROCESS_START_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeSMTPError              ErrorCode = "SMTP_ERROR"

	ErrCodeSearchQueryFailed ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeSearchTimeout     ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeIndexNotFound     ErrorCode = "INDEX_NOT_FOUND"

	ErrCodeAuthenticationFailed ErrorCode = "AUTHENTICATION_FAILED"
	ErrCodeSessionExpired       ErrorCode = "SESSION_EXPIRED"

	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
)

type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// As extracts a *StandardError from err's chain.
func As(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func NewValidationFailedError(details string) *StandardError {
	return newError(ErrCodeValidationFailed, "Input validation failed", details, false)
}

func NewInvalidTransitionError(from, action string) *StandardError {
	return newError(ErrCodeInvalidTransition, "Action not allowed in the current step",
		fmt.Sprintf("step: %s, action: %s", from, action), false)
}

func NewSubmissionInProgressError() *StandardError {
	return newError(ErrCodeSubmissionInProgress, "A submission is already in progress", "", false)
}

func NewSubmissionFailedError(err error) *StandardError {
	return newError(ErrCodeSubmissionFailed, "Quote submission failed", err.Error(), true)
}

func NewInputParsingFailedError(err error) *StandardError {
	return newError(ErrCodeInputParsingFailed, "Failed to parse job input", err.Error(), false)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

func NewDatabaseInsertFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Database insert operation failed", err.Error(), true)
}

func NewDatabaseQueryFailedError(operation string, err error) *StandardError {
	return newError(ErrCodeDatabaseQueryFailed, "Database query execution error",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true)
}

func NewQuoteNotFoundError(quoteID string) *StandardError {
	return newError(ErrCodeQuoteNotFound, "Quote request not found",
		fmt.Sprintf("quoteId: %s", quoteID), false)
}

func NewSessionStoreFailedError(err error) *StandardError {
	return newError(ErrCodeSessionStoreFailed, "Session store unavailable", err.Error(), true)
}

func NewCRMAPIError(operation string, err error) *StandardError {
	return newError(ErrCodeCRMAPIError, "CRM API call failed",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true)
}

func NewCRMNotConfiguredError() *StandardError {
	return newError(ErrCodeCRMNotConfigured, "CRM integration is not configured", "", false)
}

func NewProcessStartFailedError(processID string, err error) *StandardError {
	return newError(ErrCodeProcessStartFailed, "Failed to start workflow process",
		fmt.Sprintf("processId: %s, error: %s", processID, err.Error()), true)
}

func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()), true)
}

func NewSMTPError(err error) *StandardError {
	return newError(ErrCodeSMTPError, "SMTP delivery failed", err.Error(), true)
}

func NewSearchQueryFailedError(index string, err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Elasticsearch query error",
		fmt.Sprintf("index: %s, error: %s", index, err.Error()), true)
}

func NewSearchTimeoutError(index string) *StandardError {
	return newError(ErrCodeSearchTimeout, "Elasticsearch query timeout",
		fmt.Sprintf("index: %s", index), true)
}

func NewIndexNotFoundError(indexName string) *StandardError {
	return newError(ErrCodeIndexNotFound, "Elasticsearch index not found",
		fmt.Sprintf("indexName: %s", indexName), false)
}

func NewAuthenticationError(details string) *StandardError {
	return newError(ErrCodeAuthenticationFailed, "Authentication failed", details, false)
}

func NewSessionExpiredError() *StandardError {
	return newError(ErrCodeSessionExpired, "Session expired", "", false)
}

func NewConfigInvalidError(details string) *StandardError {
	return newError(ErrCodeConfigInvalid, "Invalid configuration", details, false)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

// BPMNErrorMapping maps internal codes to the error codes caught by boundary
// events in the quote-request process.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeValidationFailed:       "QUOTE_INVALID",
	ErrCodeInputParsingFailed:     "QUOTE_INVALID",
	ErrCodeQuoteNotFound:          "QUOTE_NOT_FOUND",
	ErrCodeDatabaseInsertFailed:   "PERSISTENCE_FAILED",
	ErrCodeDatabaseQueryFailed:    "PERSISTENCE_FAILED",
	ErrCodeCRMAPIError:            "CRM_UNAVAILABLE",
	ErrCodeCRMNotConfigured:       "CRM_UNAVAILABLE",
	ErrCodeNotificationSendFailed: "NOTIFICATION_FAILED",
	ErrCodeSMTPError:              "NOTIFICATION_FAILED",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeDatabaseQueryFailed,
		ErrCodeCRMAPIError,
		ErrCodeNotificationSendFailed,
		ErrCodeSMTPError,
		ErrCodeSearchQueryFailed,
		ErrCodeProcessStartFailed,
		ErrCodeSessionStoreFailed:
		return 3

	case ErrCodeSearchTimeout,
		ErrCodeSubmissionTimeout:
		return 2

	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "AUTHENTICATION") || strings.Contains(codeStr, "SESSION_EXPIRED"):
		return "AUTH"
	case strings.Contains(codeStr, "SUBMISSION") || strings.Contains(codeStr, "TRANSITION"):
		return "WIZARD"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUOTE_NOT_FOUND") || strings.Contains(codeStr, "SESSION_STORE"):
		return "DATABASE"
	case strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "CRM"):
		return "CRM"
	case strings.Contains(codeStr, "NOTIFICATION") || strings.Contains(codeStr, "SMTP"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "PROCESS"):
		return "WORKFLOW"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "PARSING"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
