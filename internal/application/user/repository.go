package user

import (
	"context"

	"github.com/lllypuk/rollcall/internal/domain/user"
	"github.com/lllypuk/rollcall/internal/domain/uuid"
)

// CommandRepository defines the state-changing operations on users.
// Every method touches a single document and is atomic on its own.
// Uniqueness violations surface as user.ErrEmailTaken, user.ErrUsernameTaken
// or user.ErrTagIDTaken; a missing user as errs.ErrNotFound.
type CommandRepository interface {
	// Insert stores a new user
	Insert(ctx context.Context, u *user.User) error

	// UpdateUsername replaces the username of an existing user
	UpdateUsername(ctx context.Context, id uuid.UUID, username string) error

	// SetProfilePicture overwrites the profile picture slot
	SetProfilePicture(ctx context.Context, id uuid.UUID, img user.Image) error

	// SetSadImage overwrites the sad image slot
	SetSadImage(ctx context.Context, id uuid.UUID, img user.Image) error

	// AppendTaskImage adds an entry to the end of the task image log
	AppendTaskImage(ctx context.Context, id uuid.UUID, img user.TaskImage) error
}

// QueryRepository defines read-only access to users.
type QueryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	FindByEmail(ctx context.Context, email string) (*user.User, error)
	FindByUsername(ctx context.Context, username string) (*user.User, error)
	FindByTagID(ctx context.Context, tag user.TagID) (*user.User, error)

	// ExistsByEmailOrUsername answers both uniqueness checks with one query
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByTagID(ctx context.Context, tag user.TagID) (bool, error)
}

// Repository combines Command and Query interfaces
type Repository interface {
	CommandRepository
	QueryRepository
}

// TagLookup is the subset of QueryRepository the tag allocator needs.
type TagLookup interface {
	ExistsByTagID(ctx context.Context, tag user.TagID) (bool, error)
}
