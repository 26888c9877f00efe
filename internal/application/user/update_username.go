package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/lllypuk/rollcall/internal/application/appcore"
	"github.com/lllypuk/rollcall/internal/domain/errs"
	"github.com/lllypuk/rollcall/internal/domain/user"
)

// UpdateUsernameUseCase renames a user. Renaming to the current name succeeds.
type UpdateUsernameUseCase struct {
	userRepo Repository
}

// NewUpdateUsernameUseCase creates New UpdateUsernameUseCase
func NewUpdateUsernameUseCase(userRepo Repository) *UpdateUsernameUseCase {
	return &UpdateUsernameUseCase{userRepo: userRepo}
}

// Execute performs the rename and returns the updated user
func (uc *UpdateUsernameUseCase) Execute(ctx context.Context, cmd UpdateUsernameCommand) (Result, error) {
	cmd.Username = user.NormalizeUsername(cmd.Username)

	if err := uc.validate(cmd); err != nil {
		return Result{}, appcore.WrapValidation(err)
	}

	owner, err := uc.userRepo.FindByUsername(ctx, cmd.Username)
	switch {
	case err == nil && owner.ID() != cmd.UserID:
		return Result{}, ErrUsernameAlreadyExists
	case err != nil && !errors.Is(err, errs.ErrNotFound):
		return Result{}, fmt.Errorf("failed to check username: %w", err)
	}

	if updateErr := uc.userRepo.UpdateUsername(ctx, cmd.UserID, cmd.Username); updateErr != nil {
		switch {
		case errors.Is(updateErr, errs.ErrNotFound):
			return Result{}, ErrUserNotFound
		case errors.Is(updateErr, user.ErrUsernameTaken):
			return Result{}, ErrUsernameAlreadyExists
		default:
			return Result{}, fmt.Errorf("failed to update username: %w", updateErr)
		}
	}

	usr, err := uc.userRepo.FindByID(ctx, cmd.UserID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return Result{}, ErrUserNotFound
		}
		return Result{}, fmt.Errorf("failed to load user: %w", err)
	}

	return newResult(usr), nil
}

func (uc *UpdateUsernameUseCase) validate(cmd UpdateUsernameCommand) error {
	if err := appcore.ValidateUUID("userID", cmd.UserID); err != nil {
		return err
	}
	if err := appcore.ValidateRequired("username", cmd.Username); err != nil {
		return err
	}
	return appcore.ValidateLength("username", cmd.Username, user.MinUsernameLength, user.MaxUsernameLength)
}
