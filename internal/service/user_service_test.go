package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/rollcall/internal/application/appcore"
	userapp "github.com/lllypuk/rollcall/internal/application/user"
	"github.com/lllypuk/rollcall/internal/domain/errs"
	"github.com/lllypuk/rollcall/internal/domain/user"
	"github.com/lllypuk/rollcall/internal/domain/uuid"
	"github.com/lllypuk/rollcall/internal/service"
)

// Mock use cases

type mockUseCase[C any, R any] struct {
	calls       int
	executeFunc func(ctx context.Context, in C) (R, error)
}

func (m *mockUseCase[C, R]) Execute(ctx context.Context, in C) (R, error) {
	m.calls++
	if m.executeFunc != nil {
		return m.executeFunc(ctx, in)
	}
	var zero R
	return zero, nil
}

type imageUseCase = mockUseCase[userapp.StoreImageCommand, userapp.ImageResult]

func newTestUser(t *testing.T) *user.User {
	t.Helper()
	u, err := user.NewUser("ada@example.com", "ada", user.TagID(1234567), "")
	require.NoError(t, err)
	return u
}

func resultOf(u *user.User) userapp.Result {
	return userapp.Result{Result: appcore.Result[*user.User]{Value: u}}
}

func TestUserService_Register(t *testing.T) {
	u := newTestUser(t)
	register := &mockUseCase[userapp.RegisterUserCommand, userapp.Result]{
		executeFunc: func(_ context.Context, cmd userapp.RegisterUserCommand) (userapp.Result, error) {
			assert.Equal(t, "ada@example.com", cmd.Email)
			return resultOf(u), nil
		},
	}
	svc := service.NewUserService(service.UserServiceConfig{RegisterUC: register})

	result, err := svc.Register(context.Background(), userapp.RegisterUserCommand{
		Email:    "ada@example.com",
		Username: "ada",
	})

	require.NoError(t, err)
	assert.Equal(t, u.ID(), result.Value.ID())
	assert.Equal(t, 1, register.calls)
}

func TestUserService_SignIn(t *testing.T) {
	u := newTestUser(t)
	google := &mockUseCase[userapp.GoogleSignInCommand, userapp.SignInResult]{
		executeFunc: func(context.Context, userapp.GoogleSignInCommand) (userapp.SignInResult, error) {
			return userapp.SignInResult{Result: resultOf(u), Created: true}, nil
		},
	}
	password := &mockUseCase[userapp.PasswordSignInCommand, userapp.SignInResult]{
		executeFunc: func(context.Context, userapp.PasswordSignInCommand) (userapp.SignInResult, error) {
			return userapp.SignInResult{}, userapp.ErrInvalidCredentials
		},
	}
	svc := service.NewUserService(service.UserServiceConfig{
		GoogleSignInUC:   google,
		PasswordSignInUC: password,
	})

	signIn, err := svc.GoogleSignIn(context.Background(), userapp.GoogleSignInCommand{Credential: "token"})
	require.NoError(t, err)
	assert.True(t, signIn.Created)
	assert.True(t, signIn.NeedsSetup())

	_, err = svc.PasswordSignIn(context.Background(), userapp.PasswordSignInCommand{Email: "a@b.c", Password: "x"})
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestUserService_StoreImage_RoutesByKind(t *testing.T) {
	profile, sad, task := &imageUseCase{}, &imageUseCase{}, &imageUseCase{}
	stamp := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	task.executeFunc = func(_ context.Context, cmd userapp.StoreImageCommand) (userapp.ImageResult, error) {
		return userapp.ImageResult{UserID: cmd.UserID, Kind: userapp.ImageKindTask, StoredAt: stamp}, nil
	}

	svc := service.NewUserService(service.UserServiceConfig{
		ProfilePictureUC: profile,
		SadPictureUC:     sad,
		TaskImageUC:      task,
	})

	cmd := userapp.StoreImageCommand{UserID: uuid.NewUUID(), Data: []byte{1}}
	ctx := context.Background()

	_, err := svc.StoreImage(ctx, userapp.ImageKindProfile, cmd)
	require.NoError(t, err)
	_, err = svc.StoreImage(ctx, userapp.ImageKindSad, cmd)
	require.NoError(t, err)
	_, err = svc.StoreImage(ctx, userapp.ImageKindSad, cmd)
	require.NoError(t, err)
	result, err := svc.StoreImage(ctx, userapp.ImageKindTask, cmd)
	require.NoError(t, err)

	assert.Equal(t, 1, profile.calls)
	assert.Equal(t, 2, sad.calls)
	assert.Equal(t, 1, task.calls)
	assert.Equal(t, stamp, result.StoredAt)

	_, err = svc.StoreImage(ctx, userapp.ImageKind("banner"), cmd)
	require.ErrorIs(t, err, service.ErrUnknownImageKind)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestUserService_Queries(t *testing.T) {
	u := newTestUser(t)
	get := &mockUseCase[userapp.GetUserQuery, userapp.Result]{
		executeFunc: func(_ context.Context, q userapp.GetUserQuery) (userapp.Result, error) {
			if q.UserID != u.ID() {
				return userapp.Result{}, userapp.ErrUserNotFound
			}
			return resultOf(u), nil
		},
	}
	lookup := &mockUseCase[userapp.LookupByTagQuery, userapp.Result]{
		executeFunc: func(_ context.Context, q userapp.LookupByTagQuery) (userapp.Result, error) {
			if q.TagID != u.TagID() {
				return userapp.Result{}, userapp.ErrUserNotFound
			}
			return resultOf(u), nil
		},
	}
	rename := &mockUseCase[userapp.UpdateUsernameCommand, userapp.Result]{
		executeFunc: func(context.Context, userapp.UpdateUsernameCommand) (userapp.Result, error) {
			return userapp.Result{}, userapp.ErrUsernameAlreadyExists
		},
	}
	svc := service.NewUserService(service.UserServiceConfig{GetUC: get, LookupUC: lookup, RenameUC: rename})
	ctx := context.Background()

	got, err := svc.GetUser(ctx, userapp.GetUserQuery{UserID: u.ID()})
	require.NoError(t, err)
	assert.Equal(t, u.Email(), got.Value.Email())

	_, err = svc.GetUser(ctx, userapp.GetUserQuery{UserID: uuid.NewUUID()})
	assert.True(t, errors.Is(err, errs.ErrNotFound))

	byTag, err := svc.LookupByTag(ctx, userapp.LookupByTagQuery{TagID: u.TagID()})
	require.NoError(t, err)
	assert.Equal(t, u.ID(), byTag.Value.ID())

	_, err = svc.UpdateUsername(ctx, userapp.UpdateUsernameCommand{UserID: u.ID(), Username: "taken"})
	assert.ErrorIs(t, err, errs.ErrAlreadyExists)
}
