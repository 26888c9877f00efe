package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/lllypuk/rollcall/internal/application/appcore"
	"github.com/lllypuk/rollcall/internal/domain/user"
)

const (
	// MaxPasswordBytes is the longest password bcrypt accepts.
	MaxPasswordBytes = 72

	// maxInsertAttempts bounds retries after a tag race lost at insert time.
	maxInsertAttempts = 3

	sourceRegister = "register"
	sourceGoogle   = "google"
)

// RegisterUserUseCase creates an account from an email and a username.
type RegisterUserUseCase struct {
	userRepo Repository
	tags     *TagAllocator
	hasher   PasswordHasher
	recorder Recorder
}

// NewRegisterUserUseCase creates New RegisterUserUseCase
func NewRegisterUserUseCase(
	userRepo Repository,
	tags *TagAllocator,
	hasher PasswordHasher,
	recorder Recorder,
) *RegisterUserUseCase {
	return &RegisterUserUseCase{
		userRepo: userRepo,
		tags:     tags,
		hasher:   hasher,
		recorder: recorderOrNop(recorder),
	}
}

// Execute performs registration
func (uc *RegisterUserUseCase) Execute(ctx context.Context, cmd RegisterUserCommand) (Result, error) {
	cmd.Email = user.NormalizeEmail(cmd.Email)
	cmd.Username = user.NormalizeUsername(cmd.Username)

	if err := uc.validate(cmd); err != nil {
		return Result{}, appcore.WrapValidation(err)
	}

	// fast path; the unique indexes decide races below
	exists, err := uc.userRepo.ExistsByEmailOrUsername(ctx, cmd.Email, cmd.Username)
	if err != nil {
		return Result{}, fmt.Errorf("failed to check uniqueness: %w", err)
	}
	if exists {
		return Result{}, ErrEmailOrUsernameExists
	}

	var passwordHash string
	if cmd.Password != "" {
		passwordHash, err = uc.hasher.Hash(cmd.Password)
		if err != nil {
			return Result{}, fmt.Errorf("failed to hash password: %w", err)
		}
	}

	for range maxInsertAttempts {
		tag, allocErr := uc.tags.Allocate(ctx)
		if allocErr != nil {
			return Result{}, allocErr
		}

		usr, newErr := user.NewUser(cmd.Email, cmd.Username, tag, passwordHash)
		if newErr != nil {
			return Result{}, appcore.WrapValidation(newErr)
		}

		insertErr := uc.userRepo.Insert(ctx, usr)
		switch {
		case insertErr == nil:
			uc.recorder.UserCreated(sourceRegister)
			return newResult(usr), nil
		case errors.Is(insertErr, user.ErrTagIDTaken):
			continue
		case errors.Is(insertErr, user.ErrEmailTaken), errors.Is(insertErr, user.ErrUsernameTaken):
			return Result{}, ErrEmailOrUsernameExists
		default:
			return Result{}, fmt.Errorf("failed to save user: %w", insertErr)
		}
	}

	return Result{}, ErrTagSpaceExhausted
}

func (uc *RegisterUserUseCase) validate(cmd RegisterUserCommand) error {
	if err := appcore.ValidateEmail("email", cmd.Email); err != nil {
		return err
	}
	if err := appcore.ValidateRequired("username", cmd.Username); err != nil {
		return err
	}
	if err := appcore.ValidateLength(
		"username", cmd.Username, user.MinUsernameLength, user.MaxUsernameLength,
	); err != nil {
		return err
	}
	if err := appcore.ValidateMaxBytes("password", cmd.Password, MaxPasswordBytes); err != nil {
		return err
	}
	return nil
}
