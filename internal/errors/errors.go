package errors

import (
	"fmt"
	"net/http"
)

// APIError is an error with a fixed HTTP mapping. Handlers pass the
// predefined values below to ErrorHandler.HandleError, attaching
// request-specific details with WithDetails.
type APIError struct {
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code"`
	Type       string `json:"type"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Is matches any APIError carrying the same error code, so a value returned
// by WithDetails still matches its predefined parent.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.ErrorCode == e.ErrorCode
}

// WithDetails returns a copy of e carrying details. The receiver is left
// untouched, so predefined values stay shareable.
func (e *APIError) WithDetails(details any) *APIError {
	cp := *e
	cp.Details = details
	return &cp
}

// ValidationError describes one rejected request field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func newAPIError(status int, code, problemType, message string) *APIError {
	return &APIError{StatusCode: status, ErrorCode: code, Type: problemType, Message: message}
}

var (
	ErrInvalidRequest    = newAPIError(http.StatusBadRequest, "INVALID_REQUEST", TypeValidation, "Invalid request format")
	ErrValidationFailed  = newAPIError(http.StatusBadRequest, "VALIDATION_FAILED", TypeValidation, "Request validation failed")
	ErrNotFound          = newAPIError(http.StatusNotFound, "NOT_FOUND", TypeNotFound, "Resource not found")
	ErrRunInProgress     = newAPIError(http.StatusConflict, "RUN_IN_PROGRESS", TypeConflict, "A pipeline run is already in progress")
	ErrSourceRejected    = newAPIError(http.StatusUnprocessableEntity, "SOURCE_REJECTED", TypeSourceRejected, "One or more sources could not be reshaped")
	ErrRateLimitExceeded = newAPIError(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", TypeRateLimit, "Rate limit exceeded")
	ErrPipelineFailed    = newAPIError(http.StatusInternalServerError, "PIPELINE_FAILED", TypePipeline, "Pipeline execution failed")
	ErrNoCanonicalData   = newAPIError(http.StatusServiceUnavailable, "NO_CANONICAL_DATA", TypeServiceDown, "No canonical table has been published yet")
)

// InvalidRequestWithError reports a request that could not be decoded.
func InvalidRequestWithError(err error) *APIError {
	return ErrInvalidRequest.WithDetails(err.Error())
}

// ErrValidation reports a single invalid field.
func ErrValidation(field, message string) *APIError {
	return ErrValidationFailed.WithDetails(ValidationError{Field: field, Message: message})
}

// NewValidationErrors reports every invalid field at once.
func NewValidationErrors(errs []ValidationError) *APIError {
	return ErrValidationFailed.WithDetails(errs)
}

// NotFoundError reports a missing resource by name.
func NotFoundError(resource string) *APIError {
	e := ErrNotFound.WithDetails(resource)
	e.Message = fmt.Sprintf("%s not found", resource)
	return e
}
