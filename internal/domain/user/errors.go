package user

import (
	"fmt"

	"github.com/lllypuk/rollcall/internal/domain/errs"
)

var (
	ErrInvalidEmail    = fmt.Errorf("%w: malformed email address", errs.ErrInvalidInput)
	ErrInvalidUsername = fmt.Errorf(
		"%w: username must be %d-%d characters",
		errs.ErrInvalidInput, MinUsernameLength, MaxUsernameLength,
	)
	ErrInvalidTagID = fmt.Errorf("%w: tag must be a %d-digit number", errs.ErrInvalidInput, TagLength)
	ErrEmptyImage   = fmt.Errorf("%w: image data is empty", errs.ErrInvalidInput)

	// Uniqueness violations reported by storage.
	ErrEmailTaken    = fmt.Errorf("email %w", errs.ErrAlreadyExists)
	ErrUsernameTaken = fmt.Errorf("username %w", errs.ErrAlreadyExists)
	ErrTagIDTaken    = fmt.Errorf("tag %w", errs.ErrAlreadyExists)
)
