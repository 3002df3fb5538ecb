package errors

import (
	"fmt"
)

// ErrorType classifies an AppError. HTTP mapping and errors.Is matching
// both key on it.
type ErrorType string

const (
	ErrTypeSchema   ErrorType = "SCHEMA"
	ErrTypeCoercion ErrorType = "COERCION"
	ErrTypeParsing  ErrorType = "PARSING"
	ErrTypeStorage  ErrorType = "STORAGE"
	ErrTypeNotFound ErrorType = "NOT_FOUND"
	ErrTypeConfig   ErrorType = "CONFIG"
)

// Kind sentinels. errors.Is(err, ErrSchema) holds for every schema error.
var (
	ErrSchema   = &AppError{Type: ErrTypeSchema}
	ErrCoercion = &AppError{Type: ErrTypeCoercion}
	ErrParse    = &AppError{Type: ErrTypeParsing}
	ErrStorage  = &AppError{Type: ErrTypeStorage}
	ErrMissing  = &AppError{Type: ErrTypeNotFound}
	ErrConfig   = &AppError{Type: ErrTypeConfig}
)

// AppError is a pipeline or infrastructure failure with a kind, a message,
// an optional cause and key/value context such as the offending source.
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]any
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches any AppError of the same kind.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && e.Type == t.Type
}

// WithContext records key on e and returns e.
func (e *AppError) WithContext(key string, value any) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

func newAppError(kind ErrorType, message string, cause error) *AppError {
	return &AppError{Type: kind, Message: message, Cause: cause}
}

// NewSchemaError reports a source whose country or year axis cannot be read.
func NewSchemaError(source, message string) *AppError {
	return newAppError(ErrTypeSchema, message, nil).WithContext("source", source)
}

// NewCoercionError reports a surviving cell that is not numeric.
func NewCoercionError(source, country, year, text string, cause error) *AppError {
	return newAppError(ErrTypeCoercion,
		fmt.Sprintf("value %q for %s in %s is not numeric", text, country, year), cause).
		WithContext("source", source).
		WithContext("country", country).
		WithContext("year", year)
}

// NewParsingError reports a file that could not be decoded at all.
func NewParsingError(message string, cause error) *AppError {
	return newAppError(ErrTypeParsing, message, cause)
}

func NewStorageError(message string, cause error) *AppError {
	return newAppError(ErrTypeStorage, message, cause)
}

func NewNotFoundError(resource string) *AppError {
	return newAppError(ErrTypeNotFound, resource+" not found", nil)
}

func NewConfigError(message string, cause error) *AppError {
	return newAppError(ErrTypeConfig, message, cause)
}
