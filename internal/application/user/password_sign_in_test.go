package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appuser "github.com/lllypuk/rollcall/internal/application/user"
	"github.com/lllypuk/rollcall/internal/infrastructure/repository/memory"
)

func TestPasswordSignInUseCase(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()
	registered, err := newRegisterUseCase(repo, nil).Execute(ctx, appuser.RegisterUserCommand{
		Email:    "jane@example.com",
		Username: "jane",
		Password: "correct horse",
	})
	require.NoError(t, err)
	seedUser(repo, "google@example.com", "googler", 7777777)

	rec := newCountingRecorder()
	uc := appuser.NewPasswordSignInUseCase(repo, plainHasher{}, rec)

	t.Run("matching password", func(t *testing.T) {
		result, signInErr := uc.Execute(ctx, appuser.PasswordSignInCommand{
			Email:    "JANE@example.com",
			Password: "correct horse",
		})

		require.NoError(t, signInErr)
		assert.Equal(t, registered.Value.ID(), result.Value.ID())
		assert.False(t, result.Created)
	})

	rejected := []struct {
		name string
		cmd  appuser.PasswordSignInCommand
	}{
		{"wrong password", appuser.PasswordSignInCommand{Email: "jane@example.com", Password: "battery"}},
		{"unknown email", appuser.PasswordSignInCommand{Email: "ghost@example.com", Password: "x"}},
		{"password-less account", appuser.PasswordSignInCommand{Email: "google@example.com", Password: "x"}},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			_, signInErr := uc.Execute(ctx, tt.cmd)

			require.ErrorIs(t, signInErr, appuser.ErrInvalidCredentials)
		})
	}

	assert.Equal(t, 1, rec.signIns["password/returning"])
	assert.Equal(t, 3, rec.signIns["password/rejected"])
}
