package appcore

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/lllypuk/rollcall/internal/domain/uuid"
)

// ValidateRequired checks that a string is not blank
func ValidateRequired(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return NewValidationError(field, "is required")
	}
	return nil
}

// ValidateUUID checks that an identifier is set
func ValidateUUID(field string, id uuid.UUID) error {
	if id.IsZero() {
		return NewValidationError(field, "must be a valid UUID")
	}
	return nil
}

// ValidateLength checks a length range counted in characters
func ValidateLength(field, value string, minLength, maxLength int) error {
	n := utf8.RuneCountInString(value)
	if n < minLength || n > maxLength {
		return NewValidationError(
			field,
			fmt.Sprintf("must be between %d and %d characters", minLength, maxLength),
		)
	}
	return nil
}

// ValidateMaxBytes checks the encoded size of a string
func ValidateMaxBytes(field, value string, maxBytes int) error {
	if len(value) > maxBytes {
		return NewValidationError(field, fmt.Sprintf("must be at most %d bytes", maxBytes))
	}
	return nil
}

// ValidateEmail performs a basic format check
func ValidateEmail(field, value string) error {
	if value == "" {
		return NewValidationError(field, "email is required")
	}
	at := strings.IndexByte(value, '@')
	if at <= 0 || at != strings.LastIndexByte(value, '@') {
		return NewValidationError(field, "must be a valid email address")
	}
	domain := value[at+1:]
	dot := strings.LastIndexByte(domain, '.')
	if dot <= 0 || dot == len(domain)-1 {
		return NewValidationError(field, "must be a valid email address")
	}
	return nil
}
