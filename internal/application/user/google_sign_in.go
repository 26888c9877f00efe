package user

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/lllypuk/rollcall/internal/application/appcore"
	"github.com/lllypuk/rollcall/internal/domain/errs"
	"github.com/lllypuk/rollcall/internal/domain/user"
)

const (
	temporaryUsernamePrefix   = "user_"
	temporaryUsernameAttempts = 5
	methodGoogle              = "google"
)

// GoogleSignInUseCase signs in a provider-verified user, creating a
// placeholder account on first contact.
type GoogleSignInUseCase struct {
	userRepo Repository
	verifier IdentityVerifier
	tags     *TagAllocator
	recorder Recorder
	now      func() time.Time
}

// SignInOption configures a GoogleSignInUseCase
type SignInOption func(*GoogleSignInUseCase)

// WithSignInClock overrides the clock used for temporary usernames.
func WithSignInClock(now func() time.Time) SignInOption {
	return func(uc *GoogleSignInUseCase) {
		uc.now = now
	}
}

// NewGoogleSignInUseCase creates New GoogleSignInUseCase
func NewGoogleSignInUseCase(
	userRepo Repository,
	verifier IdentityVerifier,
	tags *TagAllocator,
	recorder Recorder,
	opts ...SignInOption,
) *GoogleSignInUseCase {
	uc := &GoogleSignInUseCase{
		userRepo: userRepo,
		verifier: verifier,
		tags:     tags,
		recorder: recorderOrNop(recorder),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Execute verifies the credential and returns the matching account.
func (uc *GoogleSignInUseCase) Execute(ctx context.Context, cmd GoogleSignInCommand) (SignInResult, error) {
	if err := appcore.ValidateRequired("credential", cmd.Credential); err != nil {
		return SignInResult{}, appcore.WrapValidation(err)
	}

	identity, err := uc.verifier.Verify(ctx, cmd.Credential)
	if err != nil {
		uc.recorder.SignIn(methodGoogle, SignInRejected)
		return SignInResult{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}

	email := user.NormalizeEmail(identity.Email)
	if validateErr := appcore.ValidateEmail("email", email); validateErr != nil {
		uc.recorder.SignIn(methodGoogle, SignInRejected)
		return SignInResult{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, validateErr)
	}

	existing, err := uc.userRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		uc.recorder.SignIn(methodGoogle, SignInReturning)
		return SignInResult{Result: newResult(existing)}, nil
	case !errors.Is(err, errs.ErrNotFound):
		return SignInResult{}, fmt.Errorf("failed to find user: %w", err)
	}

	return uc.createPlaceholder(ctx, email)
}

func (uc *GoogleSignInUseCase) createPlaceholder(ctx context.Context, email string) (SignInResult, error) {
	for range maxInsertAttempts {
		tag, err := uc.tags.Allocate(ctx)
		if err != nil {
			return SignInResult{}, err
		}
		username, err := uc.temporaryUsername(ctx)
		if err != nil {
			return SignInResult{}, err
		}

		usr, err := user.NewUser(email, username, tag, "")
		if err != nil {
			return SignInResult{}, fmt.Errorf("failed to create user: %w", err)
		}

		insertErr := uc.userRepo.Insert(ctx, usr)
		switch {
		case insertErr == nil:
			uc.recorder.UserCreated(sourceGoogle)
			uc.recorder.SignIn(methodGoogle, SignInCreated)
			return SignInResult{Result: newResult(usr), Created: true}, nil
		case errors.Is(insertErr, user.ErrEmailTaken):
			// a concurrent first sign-in for the same email won
			winner, findErr := uc.userRepo.FindByEmail(ctx, email)
			if findErr != nil {
				return SignInResult{}, fmt.Errorf("failed to find user: %w", findErr)
			}
			uc.recorder.SignIn(methodGoogle, SignInReturning)
			return SignInResult{Result: newResult(winner)}, nil
		case errors.Is(insertErr, user.ErrTagIDTaken), errors.Is(insertErr, user.ErrUsernameTaken):
			continue
		default:
			return SignInResult{}, fmt.Errorf("failed to save user: %w", insertErr)
		}
	}

	return SignInResult{}, ErrTagSpaceExhausted
}

// temporaryUsername returns user_<unix millis>, with a random suffix when
// another placeholder created in the same millisecond holds that name.
func (uc *GoogleSignInUseCase) temporaryUsername(ctx context.Context) (string, error) {
	base := temporaryUsernamePrefix + strconv.FormatInt(uc.now().UnixMilli(), 10)

	candidate := base
	for range temporaryUsernameAttempts {
		taken, err := uc.userRepo.ExistsByUsername(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check username: %w", err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "_" + strconv.Itoa(1000+rand.IntN(9000))
	}

	return "", ErrTemporaryUsernameExhausted
}
