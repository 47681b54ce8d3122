// Package scorererrors provides sentinel and custom error types for the
// scoring and matching pipelines.
package scorererrors

// ErrValidation represents an input-validation error: missing or invalid
// embedding, missing required payload field, unparseable payload. These are
// caller mistakes and must not be retried.
var ErrValidation = &ValidationError{}

// ValidationError is a sentinel error for malformed scoring input.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a new ValidationError with a custom message.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Field != "" {
		return "validation failed for field: " + e.Field
	}

	return "validation error"
}

// Is implements the error interface for error comparison.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)

	return ok
}

// ErrData represents a data-availability error: no candidates with usable
// embeddings in any audience, or a cache refresh failure with nothing cached.
// The whole operation fails; no partial score is emitted.
var ErrData = &DataError{}

// DataError is a sentinel error for missing or unusable reference data.
type DataError struct {
	Message string
}

// NewDataError creates a new DataError with a custom message.
func NewDataError(message string) *DataError {
	return &DataError{Message: message}
}

// Error implements the error interface.
func (e *DataError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	return "reference data unavailable"
}

// Is implements the error interface for error comparison.
func (e *DataError) Is(target error) bool {
	_, ok := target.(*DataError)

	return ok
}

// ErrNotFound represents a "not found" error.
var ErrNotFound = &NotFoundError{}

// NotFoundError is a sentinel error for resources that are not found.
type NotFoundError struct {
	Resource string
}

// NewNotFoundError creates a new NotFoundError for the given resource.
func NewNotFoundError(resource string) *NotFoundError {
	return &NotFoundError{Resource: resource}
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Resource != "" {
		return e.Resource + " not found"
	}

	return "resource not found"
}

// Is implements the error interface for error comparison.
func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)

	return ok
}
