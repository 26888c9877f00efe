package service

import (
	"context"

	"github.com/lllypuk/rollcall/internal/application/appcore"
	userapp "github.com/lllypuk/rollcall/internal/application/user"
	httphandler "github.com/lllypuk/rollcall/internal/handler/http"
)

// Compile-time assertion that UserService implements httphandler.UserService.
var _ httphandler.UserService = (*UserService)(nil)

// RegisterUserUseCase defines interface for use case creating an account.
type RegisterUserUseCase = appcore.UseCase[userapp.RegisterUserCommand, userapp.Result]

// GoogleSignInUseCase defines interface for use case provider sign-in.
type GoogleSignInUseCase = appcore.UseCase[userapp.GoogleSignInCommand, userapp.SignInResult]

// PasswordSignInUseCase defines interface for use case password sign-in.
type PasswordSignInUseCase = appcore.UseCase[userapp.PasswordSignInCommand, userapp.SignInResult]

// UpdateUsernameUseCase defines interface for use case renaming a user.
type UpdateUsernameUseCase = appcore.UseCase[userapp.UpdateUsernameCommand, userapp.Result]

// StoreImageUseCase defines interface shared by the three image use cases.
type StoreImageUseCase = appcore.UseCase[userapp.StoreImageCommand, userapp.ImageResult]

// GetUserUseCase defines interface for use case fetching an account.
type GetUserUseCase = appcore.UseCase[userapp.GetUserQuery, userapp.Result]

// LookupByTagUseCase defines interface for use case tag lookup.
type LookupByTagUseCase = appcore.UseCase[userapp.LookupByTagQuery, userapp.Result]

// UserService implements httphandler.UserService.
// It groups the user use cases behind one dependency for the handler.
type UserService struct {
	registerUC       RegisterUserUseCase
	googleSignInUC   GoogleSignInUseCase
	passwordSignInUC PasswordSignInUseCase
	renameUC         UpdateUsernameUseCase
	profilePictureUC StoreImageUseCase
	sadPictureUC     StoreImageUseCase
	taskImageUC      StoreImageUseCase
	getUC            GetUserUseCase
	lookupUC         LookupByTagUseCase
}

// UserServiceConfig contains dependencies for UserService.
type UserServiceConfig struct {
	RegisterUC       RegisterUserUseCase
	GoogleSignInUC   GoogleSignInUseCase
	PasswordSignInUC PasswordSignInUseCase
	RenameUC         UpdateUsernameUseCase
	ProfilePictureUC StoreImageUseCase
	SadPictureUC     StoreImageUseCase
	TaskImageUC      StoreImageUseCase
	GetUC            GetUserUseCase
	LookupUC         LookupByTagUseCase
}

// NewUserService creates a new UserService.
func NewUserService(cfg UserServiceConfig) *UserService {
	return &UserService{
		registerUC:       cfg.RegisterUC,
		googleSignInUC:   cfg.GoogleSignInUC,
		passwordSignInUC: cfg.PasswordSignInUC,
		renameUC:         cfg.RenameUC,
		profilePictureUC: cfg.ProfilePictureUC,
		sadPictureUC:     cfg.SadPictureUC,
		taskImageUC:      cfg.TaskImageUC,
		getUC:            cfg.GetUC,
		lookupUC:         cfg.LookupUC,
	}
}

// Register creates a new account.
func (s *UserService) Register(ctx context.Context, cmd userapp.RegisterUserCommand) (userapp.Result, error) {
	return s.registerUC.Execute(ctx, cmd)
}

// GoogleSignIn signs in with a provider credential, creating the account on first contact.
func (s *UserService) GoogleSignIn(
	ctx context.Context,
	cmd userapp.GoogleSignInCommand,
) (userapp.SignInResult, error) {
	return s.googleSignInUC.Execute(ctx, cmd)
}

// PasswordSignIn checks an email and password pair.
func (s *UserService) PasswordSignIn(
	ctx context.Context,
	cmd userapp.PasswordSignInCommand,
) (userapp.SignInResult, error) {
	return s.passwordSignInUC.Execute(ctx, cmd)
}

// UpdateUsername renames a user.
func (s *UserService) UpdateUsername(
	ctx context.Context,
	cmd userapp.UpdateUsernameCommand,
) (userapp.Result, error) {
	return s.renameUC.Execute(ctx, cmd)
}

// StoreImage routes an upload to the use case owning the slot.
func (s *UserService) StoreImage(
	ctx context.Context,
	kind userapp.ImageKind,
	cmd userapp.StoreImageCommand,
) (userapp.ImageResult, error) {
	switch kind {
	case userapp.ImageKindProfile:
		return s.profilePictureUC.Execute(ctx, cmd)
	case userapp.ImageKindSad:
		return s.sadPictureUC.Execute(ctx, cmd)
	case userapp.ImageKindTask:
		return s.taskImageUC.Execute(ctx, cmd)
	default:
		return userapp.ImageResult{}, ErrUnknownImageKind
	}
}

// GetUser returns the full account.
func (s *UserService) GetUser(ctx context.Context, query userapp.GetUserQuery) (userapp.Result, error) {
	return s.getUC.Execute(ctx, query)
}

// LookupByTag returns the account owning a tag.
func (s *UserService) LookupByTag(ctx context.Context, query userapp.LookupByTagQuery) (userapp.Result, error) {
	return s.lookupUC.Execute(ctx, query)
}
