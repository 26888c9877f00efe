// Package memory holds in-process repositories used in mock mode and tests.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/lllypuk/rollcall/internal/domain/errs"
	"github.com/lllypuk/rollcall/internal/domain/user"
	"github.com/lllypuk/rollcall/internal/domain/uuid"
)

// UserRepository keeps users in a map and enforces the same uniqueness
// rules as the MongoDB indexes. Stored users are copied on the way in and out.
type UserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*user.User
}

// NewUserRepository creates an empty repository
func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[uuid.UUID]*user.User)}
}

// Insert stores a new user
func (r *UserRepository) Insert(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		switch {
		case existing.Email() == u.Email():
			return user.ErrEmailTaken
		case existing.Username() == u.Username():
			return user.ErrUsernameTaken
		case existing.TagID() == u.TagID():
			return user.ErrTagIDTaken
		}
	}
	if _, ok := r.users[u.ID()]; ok {
		return errs.ErrAlreadyExists
	}

	r.users[u.ID()] = clone(u)
	return nil
}

// UpdateUsername replaces the username of an existing user
func (r *UserRepository) UpdateUsername(_ context.Context, id uuid.UUID, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return errs.ErrNotFound
	}
	for otherID, other := range r.users {
		if otherID != id && other.Username() == username {
			return user.ErrUsernameTaken
		}
	}
	return u.Rename(username)
}

// SetProfilePicture overwrites the profile picture slot
func (r *UserRepository) SetProfilePicture(_ context.Context, id uuid.UUID, img user.Image) error {
	return r.mutate(id, func(u *user.User) { u.SetProfilePicture(cloneImage(img)) })
}

// SetSadImage overwrites the sad image slot
func (r *UserRepository) SetSadImage(_ context.Context, id uuid.UUID, img user.Image) error {
	return r.mutate(id, func(u *user.User) { u.SetSadImage(cloneImage(img)) })
}

// AppendTaskImage adds an entry to the end of the task image log
func (r *UserRepository) AppendTaskImage(_ context.Context, id uuid.UUID, ti user.TaskImage) error {
	return r.mutate(id, func(u *user.User) {
		u.AppendTaskImage(user.NewTaskImage(cloneImage(ti.Image), ti.Timestamp))
	})
}

// FindByID finds a user by ID
func (r *UserRepository) FindByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return clone(u), nil
}

// FindByEmail finds a user by normalized email
func (r *UserRepository) FindByEmail(_ context.Context, email string) (*user.User, error) {
	return r.findFirst(func(u *user.User) bool { return u.Email() == email })
}

// FindByUsername finds a user by username
func (r *UserRepository) FindByUsername(_ context.Context, username string) (*user.User, error) {
	return r.findFirst(func(u *user.User) bool { return u.Username() == username })
}

// FindByTagID finds a user by tag
func (r *UserRepository) FindByTagID(_ context.Context, tag user.TagID) (*user.User, error) {
	return r.findFirst(func(u *user.User) bool { return u.TagID() == tag })
}

// ExistsByEmailOrUsername reports whether either key is in use
func (r *UserRepository) ExistsByEmailOrUsername(_ context.Context, email, username string) (bool, error) {
	return r.exists(func(u *user.User) bool { return u.Email() == email || u.Username() == username }), nil
}

// ExistsByUsername reports whether the username is in use
func (r *UserRepository) ExistsByUsername(_ context.Context, username string) (bool, error) {
	return r.exists(func(u *user.User) bool { return u.Username() == username }), nil
}

// ExistsByTagID reports whether the tag is in use
func (r *UserRepository) ExistsByTagID(_ context.Context, tag user.TagID) (bool, error) {
	return r.exists(func(u *user.User) bool { return u.TagID() == tag }), nil
}

// Count returns the number of stored users (for tests)
func (r *UserRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

// Ping always succeeds; it lets the repository stand in for a database health check.
func (r *UserRepository) Ping(context.Context) error {
	return nil
}

func (r *UserRepository) mutate(id uuid.UUID, fn func(*user.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return errs.ErrNotFound
	}
	fn(u)
	return nil
}

func (r *UserRepository) findFirst(match func(*user.User) bool) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if match(u) {
			return clone(u), nil
		}
	}
	return nil, errs.ErrNotFound
}

func (r *UserRepository) exists(match func(*user.User) bool) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if match(u) {
			return true
		}
	}
	return false
}

func clone(u *user.User) *user.User {
	var pfp, sad *user.Image
	if img := u.ProfilePicture(); img != nil {
		c := cloneImage(*img)
		pfp = &c
	}
	if img := u.SadImage(); img != nil {
		c := cloneImage(*img)
		sad = &c
	}

	tasks := u.TaskImages()
	for i := range tasks {
		tasks[i].Image = cloneImage(tasks[i].Image)
	}

	return user.Reconstruct(
		u.ID(), u.Email(), u.Username(), u.TagID(), u.PasswordHash(),
		pfp, sad, tasks, u.CreatedAt(), u.UpdatedAt(),
	)
}

func cloneImage(img user.Image) user.Image {
	return user.Image{Data: slices.Clone(img.Data), ContentType: img.ContentType}
}
