package appcore

import "context"

// UseCase is implemented by every application operation.
type UseCase[TCommand any, TResult any] interface {
	Execute(ctx context.Context, cmd TCommand) (TResult, error)
}

// Result is the common envelope returned by use cases
type Result[T any] struct {
	Value T
	Error error
}

// IsSuccess reports whether the operation finished without error
func (r Result[T]) IsSuccess() bool {
	return r.Error == nil
}

// IsFailure reports whether the operation failed
func (r Result[T]) IsFailure() bool {
	return r.Error != nil
}
