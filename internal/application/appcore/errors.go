package appcore

import (
	"errors"
	"fmt"
)

// ErrValidationFailed prefixes every command or query validation failure.
var ErrValidationFailed = errors.New("validation failed")

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// WrapValidation marks err as a validation failure while keeping it inspectable.
func WrapValidation(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrValidationFailed, err)
}
