package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/lllypuk/rollcall/internal/application/appcore"
	"github.com/lllypuk/rollcall/internal/domain/errs"
)

// GetUserUseCase handles retrieval of a user by ID
type GetUserUseCase struct {
	userRepo QueryRepository
}

// NewGetUserUseCase creates New GetUserUseCase
func NewGetUserUseCase(userRepo QueryRepository) *GetUserUseCase {
	return &GetUserUseCase{userRepo: userRepo}
}

// Execute performs retrieval of the user
func (uc *GetUserUseCase) Execute(ctx context.Context, query GetUserQuery) (Result, error) {
	if err := appcore.ValidateUUID("userID", query.UserID); err != nil {
		return Result{}, appcore.WrapValidation(err)
	}

	usr, err := uc.userRepo.FindByID(ctx, query.UserID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return Result{}, ErrUserNotFound
		}
		return Result{}, fmt.Errorf("failed to find user: %w", err)
	}

	return newResult(usr), nil
}
