package user

import (
	"fmt"

	"github.com/lllypuk/rollcall/internal/domain/errs"
)

var (
	// ErrUserNotFound is returned when no account matches the request
	ErrUserNotFound = fmt.Errorf("user %w", errs.ErrNotFound)

	// ErrEmailOrUsernameExists is returned by registration when either key is taken
	ErrEmailOrUsernameExists = fmt.Errorf("email or username %w", errs.ErrAlreadyExists)

	// ErrUsernameAlreadyExists is returned when a rename targets another user's name
	ErrUsernameAlreadyExists = fmt.Errorf("username %w", errs.ErrAlreadyExists)

	// ErrImageRequired is returned when an image upload carries no data
	ErrImageRequired = fmt.Errorf("%w: no image file provided", errs.ErrInvalidInput)

	// ErrTagSpaceExhausted is returned when no free tag was found within the attempt budget
	ErrTagSpaceExhausted = fmt.Errorf("tag allocation: %w", errs.ErrResourceExhausted)

	// ErrTemporaryUsernameExhausted is returned when no free placeholder username was found
	ErrTemporaryUsernameExhausted = fmt.Errorf("temporary username: %w", errs.ErrResourceExhausted)

	// ErrInvalidCredentials is returned for any rejected sign-in
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", errs.ErrUnauthorized)
)
