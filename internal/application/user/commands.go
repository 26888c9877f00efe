package user

import "github.com/lllypuk/rollcall/internal/domain/uuid"

// RegisterUserCommand creates an account with an optional password.
type RegisterUserCommand struct {
	Email    string
	Username string
	Password string
}

func (c RegisterUserCommand) CommandName() string { return "RegisterUser" }

// GoogleSignInCommand signs in (or signs up) with a provider credential.
type GoogleSignInCommand struct {
	Credential string
}

func (c GoogleSignInCommand) CommandName() string { return "GoogleSignIn" }

// PasswordSignInCommand checks an email and password pair.
type PasswordSignInCommand struct {
	Email    string
	Password string
}

func (c PasswordSignInCommand) CommandName() string { return "PasswordSignIn" }

// UpdateUsernameCommand renames a user.
type UpdateUsernameCommand struct {
	UserID   uuid.UUID
	Username string
}

func (c UpdateUsernameCommand) CommandName() string { return "UpdateUsername" }

// ImageKind selects which image slot a command targets.
type ImageKind string

const (
	ImageKindProfile ImageKind = "profile"
	ImageKindSad     ImageKind = "sad"
	ImageKindTask    ImageKind = "task"
)

// StoreImageCommand carries an uploaded image for one of the image slots.
type StoreImageCommand struct {
	UserID      uuid.UUID
	Data        []byte
	ContentType string
}

func (c StoreImageCommand) CommandName() string { return "StoreImage" }
