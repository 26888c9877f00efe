package user_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/rollcall/internal/application/appcore"
	appuser "github.com/lllypuk/rollcall/internal/application/user"
	"github.com/lllypuk/rollcall/internal/domain/errs"
	domainuser "github.com/lllypuk/rollcall/internal/domain/user"
	"github.com/lllypuk/rollcall/internal/infrastructure/repository/memory"
)

var fixedNow = time.UnixMilli(1_700_000_000_123)

func newSignInUseCase(repo appuser.Repository, rec appuser.Recorder) *appuser.GoogleSignInUseCase {
	return appuser.NewGoogleSignInUseCase(
		repo,
		emailVerifier{},
		appuser.NewTagAllocator(repo, 8),
		rec,
		appuser.WithSignInClock(func() time.Time { return fixedNow }),
	)
}

func TestGoogleSignInUseCase_CreatesPlaceholder(t *testing.T) {
	// Arrange
	repo := memory.NewUserRepository()
	rec := newCountingRecorder()
	uc := newSignInUseCase(repo, rec)

	// Act
	result, err := uc.Execute(context.Background(), appuser.GoogleSignInCommand{Credential: "ok:New@Example.com"})

	// Assert
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.True(t, result.NeedsSetup())
	usr := result.Value
	assert.Equal(t, "new@example.com", usr.Email())
	assert.Equal(t, "user_1700000000123", usr.Username())
	assert.False(t, usr.HasPassword())
	assert.True(t, usr.TagID().Valid())
	assert.Equal(t, 1, repo.Count())
	assert.Equal(t, 1, rec.created["google"])
	assert.Equal(t, 1, rec.signIns["google/created"])
}

func TestGoogleSignInUseCase_IdempotentForExistingEmail(t *testing.T) {
	repo := memory.NewUserRepository()
	rec := newCountingRecorder()
	uc := newSignInUseCase(repo, rec)
	ctx := context.Background()

	first, err := uc.Execute(ctx, appuser.GoogleSignInCommand{Credential: "ok:jane@example.com"})
	require.NoError(t, err)

	for range 3 {
		again, againErr := uc.Execute(ctx, appuser.GoogleSignInCommand{Credential: "ok:jane@example.com"})
		require.NoError(t, againErr)
		assert.False(t, again.Created)
		assert.Equal(t, first.Value.ID(), again.Value.ID())
		assert.Equal(t, first.Value.TagID(), again.Value.TagID())
	}
	assert.Equal(t, 1, repo.Count())
	assert.Equal(t, 3, rec.signIns["google/returning"])
}

func TestGoogleSignInUseCase_ReturningUserSetupState(t *testing.T) {
	repo := memory.NewUserRepository()
	existing := seedUser(repo, "jane@example.com", "jane", 1234567)
	img, _ := domainuser.NewImage([]byte("img"), "image/png")
	require.NoError(t, repo.SetProfilePicture(context.Background(), existing.ID(), img))
	uc := newSignInUseCase(repo, nil)

	result, err := uc.Execute(context.Background(), appuser.GoogleSignInCommand{Credential: "ok:jane@example.com"})
	require.NoError(t, err)
	assert.True(t, result.NeedsSetup())

	require.NoError(t, repo.SetSadImage(context.Background(), existing.ID(), img))

	result, err = uc.Execute(context.Background(), appuser.GoogleSignInCommand{Credential: "ok:jane@example.com"})
	require.NoError(t, err)
	assert.False(t, result.Created)
	assert.False(t, result.NeedsSetup())
	assert.Equal(t, "jane", result.Value.Username())
}

func TestGoogleSignInUseCase_TemporaryUsernameCollision(t *testing.T) {
	repo := memory.NewUserRepository()
	seedUser(repo, "first@example.com", "user_1700000000123", 1234567)
	uc := newSignInUseCase(repo, nil)

	result, err := uc.Execute(context.Background(), appuser.GoogleSignInCommand{Credential: "ok:second@example.com"})

	require.NoError(t, err)
	name := result.Value.Username()
	assert.NotEqual(t, "user_1700000000123", name)
	assert.True(t, strings.HasPrefix(name, "user_1700000000123_"))
	assert.LessOrEqual(t, len(name), domainuser.MaxUsernameLength)
}

func TestGoogleSignInUseCase_ConcurrentFirstSignInResolvesToWinner(t *testing.T) {
	base := memory.NewUserRepository()
	// the winner lands between our lookup and our insert
	winner := seedUser(base, "race@example.com", "winner", 7654321)
	repo := &faultyRepo{UserRepository: base, findMisses: 1}
	uc := newSignInUseCase(repo, nil)

	result, err := uc.Execute(context.Background(), appuser.GoogleSignInCommand{Credential: "ok:race@example.com"})

	require.NoError(t, err)
	assert.False(t, result.Created)
	assert.Equal(t, winner.ID(), result.Value.ID())
	assert.Equal(t, "winner", result.Value.Username())
	assert.Equal(t, 1, base.Count())
}

func TestGoogleSignInUseCase_RejectsBadCredential(t *testing.T) {
	repo := memory.NewUserRepository()
	rec := newCountingRecorder()
	uc := newSignInUseCase(repo, rec)

	_, err := uc.Execute(context.Background(), appuser.GoogleSignInCommand{Credential: "forged"})

	require.ErrorIs(t, err, appuser.ErrInvalidCredentials)
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	assert.Equal(t, 0, repo.Count())
	assert.Equal(t, 1, rec.signIns["google/rejected"])
}

func TestGoogleSignInUseCase_RejectsUnusableEmail(t *testing.T) {
	uc := newSignInUseCase(memory.NewUserRepository(), nil)

	_, err := uc.Execute(context.Background(), appuser.GoogleSignInCommand{Credential: "ok:not-an-email"})

	require.ErrorIs(t, err, appuser.ErrInvalidCredentials)
}

func TestGoogleSignInUseCase_MissingCredential(t *testing.T) {
	uc := newSignInUseCase(memory.NewUserRepository(), nil)

	_, err := uc.Execute(context.Background(), appuser.GoogleSignInCommand{})

	require.ErrorIs(t, err, appcore.ErrValidationFailed)
}

func TestGoogleSignInUseCase_StoreFailure(t *testing.T) {
	repo := &faultyRepo{UserRepository: memory.NewUserRepository(), findErr: errStore}
	uc := newSignInUseCase(repo, nil)

	_, err := uc.Execute(context.Background(), appuser.GoogleSignInCommand{Credential: "ok:jane@example.com"})

	require.ErrorIs(t, err, errStore)
	require.NotErrorIs(t, err, errs.ErrNotFound)
}
