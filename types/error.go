package types

import "fmt"

// ErrorCode represents a unified error code across the engine.
type ErrorCode string

// Generation error codes
const (
	ErrValidationSkip   ErrorCode = "VALIDATION_SKIP"
	ErrProviderError    ErrorCode = "PROVIDER_ERROR"
	ErrTransientPoll    ErrorCode = "TRANSIENT_POLL"
	ErrIngestion        ErrorCode = "INGESTION_ERROR"
	ErrFatalDispatch    ErrorCode = "FATAL_DISPATCH"
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"
	ErrModelNotFound    ErrorCode = "MODEL_NOT_FOUND"
	ErrOrchestratorBusy ErrorCode = "ORCHESTRATOR_BUSY"
	ErrUploadFailed     ErrorCode = "UPLOAD_FAILED"
	ErrStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	ErrRateLimited      ErrorCode = "RATE_LIMITED"
	ErrTimeout          ErrorCode = "TIMEOUT"
	ErrInternalError    ErrorCode = "INTERNAL_ERROR"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	ModelID    string    `json:"model_id,omitempty"`
	Provider   string    `json:"provider,omitempty"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithModel records the model the error belongs to.
func (e *Error) WithModel(modelID string) *Error {
	e.ModelID = modelID
	return e
}

// WithProvider sets the provider name.
func (e *Error) WithProvider(provider string) *Error {
	e.Provider = provider
	return e
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}

// IsFatal reports whether the error must abort the remaining batch.
// Every other code is recovered per model and the batch continues.
func IsFatal(err error) bool {
	return GetErrorCode(err) == ErrFatalDispatch
}
