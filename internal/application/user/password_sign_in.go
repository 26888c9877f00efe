package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/lllypuk/rollcall/internal/application/appcore"
	"github.com/lllypuk/rollcall/internal/domain/errs"
	"github.com/lllypuk/rollcall/internal/domain/user"
)

const methodPassword = "password"

// PasswordSignInUseCase authenticates accounts that registered with a password.
type PasswordSignInUseCase struct {
	userRepo QueryRepository
	hasher   PasswordHasher
	recorder Recorder
}

// NewPasswordSignInUseCase creates New PasswordSignInUseCase
func NewPasswordSignInUseCase(userRepo QueryRepository, hasher PasswordHasher, recorder Recorder) *PasswordSignInUseCase {
	return &PasswordSignInUseCase{
		userRepo: userRepo,
		hasher:   hasher,
		recorder: recorderOrNop(recorder),
	}
}

// Execute returns the account when the password matches. Unknown emails,
// password-less accounts and mismatches all yield ErrInvalidCredentials.
func (uc *PasswordSignInUseCase) Execute(ctx context.Context, cmd PasswordSignInCommand) (SignInResult, error) {
	cmd.Email = user.NormalizeEmail(cmd.Email)

	if err := uc.validate(cmd); err != nil {
		return SignInResult{}, appcore.WrapValidation(err)
	}

	usr, err := uc.userRepo.FindByEmail(ctx, cmd.Email)
	if errors.Is(err, errs.ErrNotFound) {
		uc.recorder.SignIn(methodPassword, SignInRejected)
		return SignInResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return SignInResult{}, fmt.Errorf("failed to find user: %w", err)
	}

	if !usr.HasPassword() || uc.hasher.Compare(usr.PasswordHash(), cmd.Password) != nil {
		uc.recorder.SignIn(methodPassword, SignInRejected)
		return SignInResult{}, ErrInvalidCredentials
	}

	uc.recorder.SignIn(methodPassword, SignInReturning)
	return SignInResult{Result: newResult(usr)}, nil
}

func (uc *PasswordSignInUseCase) validate(cmd PasswordSignInCommand) error {
	if err := appcore.ValidateEmail("email", cmd.Email); err != nil {
		return err
	}
	if err := appcore.ValidateRequired("password", cmd.Password); err != nil {
		return err
	}
	return appcore.ValidateMaxBytes("password", cmd.Password, MaxPasswordBytes)
}
