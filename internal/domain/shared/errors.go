package shared

import "strings"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrMalformedDocument   = NewDomainError("MALFORMED_DOCUMENT", "Stored document is malformed")
	ErrStoreUnavailable    = NewDomainError("STORE_UNAVAILABLE", "Storage backend is unavailable")
)

// FieldError describes a single invalid field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries the list of offending fields.
// It unwraps to a DomainError with code VALIDATION_ERROR.
type ValidationError struct {
	*DomainError
	Fields []FieldError
}

// NewValidationError creates a validation error for the given fields
func NewValidationError(message string, fields ...FieldError) *ValidationError {
	return &ValidationError{
		DomainError: NewDomainError("VALIDATION_ERROR", message),
		Fields:      fields,
	}
}

// Unwrap exposes the embedded DomainError to errors.As
func (e *ValidationError) Unwrap() error {
	return e.DomainError
}

// FieldNames returns the names of the offending fields in order
func (e *ValidationError) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return names
}

// Error includes the field names so logs stay useful
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.FieldNames(), ", ")
}
