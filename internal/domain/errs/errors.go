package errs

import "errors"

var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists is returned when a resource already exists
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrInvalidInput is returned when input data is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized is returned when credentials are missing or rejected
	ErrUnauthorized = errors.New("unauthorized")

	// ErrResourceExhausted is returned when a bounded resource has no free slot left
	ErrResourceExhausted = errors.New("resource exhausted")
)
