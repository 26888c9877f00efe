package user

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lllypuk/rollcall/internal/domain/uuid"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

// User is a RollCall account. Email, username and tag are unique across
// all users; the tag never changes after creation.
type User struct {
	id             uuid.UUID
	email          string
	username       string
	tagID          TagID
	passwordHash   string
	profilePicture *Image
	sadImage       *Image
	taskImages     []TaskImage
	createdAt      time.Time
	updatedAt      time.Time
}

// NewUser creates a user after normalizing email and username.
// passwordHash may be empty for accounts created via an external provider.
func NewUser(email, username string, tagID TagID, passwordHash string) (*User, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	username = NormalizeUsername(username)
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if !tagID.Valid() {
		return nil, ErrInvalidTagID
	}

	now := time.Now().UTC()
	return &User{
		id:           uuid.NewUUID(),
		email:        email,
		username:     username,
		tagID:        tagID,
		passwordHash: passwordHash,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// Reconstruct restores a user from storage without validation.
func Reconstruct(
	id uuid.UUID,
	email, username string,
	tagID TagID,
	passwordHash string,
	profilePicture, sadImage *Image,
	taskImages []TaskImage,
	createdAt, updatedAt time.Time,
) *User {
	return &User{
		id:             id,
		email:          email,
		username:       username,
		tagID:          tagID,
		passwordHash:   passwordHash,
		profilePicture: profilePicture,
		sadImage:       sadImage,
		taskImages:     taskImages,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// Getters

func (u *User) ID() uuid.UUID {
	return u.id
}

func (u *User) Email() string {
	return u.email
}

func (u *User) Username() string {
	return u.username
}

func (u *User) TagID() TagID {
	return u.tagID
}

// PasswordHash returns the stored hash, empty for password-less accounts.
func (u *User) PasswordHash() string {
	return u.passwordHash
}

func (u *User) HasPassword() bool {
	return u.passwordHash != ""
}

func (u *User) ProfilePicture() *Image {
	return u.profilePicture
}

func (u *User) SadImage() *Image {
	return u.sadImage
}

// TaskImages returns the log oldest first. The returned slice is a copy.
func (u *User) TaskImages() []TaskImage {
	return slices.Clone(u.taskImages)
}

func (u *User) CreatedAt() time.Time {
	return u.createdAt
}

func (u *User) UpdatedAt() time.Time {
	return u.updatedAt
}

// HasCompletedSetup reports whether both the profile picture and the sad
// image have been provided.
func (u *User) HasCompletedSetup() bool {
	return u.profilePicture != nil && u.sadImage != nil
}

// Rename replaces the username.
func (u *User) Rename(username string) error {
	username = NormalizeUsername(username)
	if err := ValidateUsername(username); err != nil {
		return err
	}
	u.username = username
	u.touch()
	return nil
}

// SetProfilePicture overwrites the profile picture slot.
func (u *User) SetProfilePicture(img Image) {
	u.profilePicture = &img
	u.touch()
}

// SetSadImage overwrites the sad image slot.
func (u *User) SetSadImage(img Image) {
	u.sadImage = &img
	u.touch()
}

// AppendTaskImage adds an entry to the end of the task image log.
func (u *User) AppendTaskImage(ti TaskImage) {
	u.taskImages = append(u.taskImages, ti)
	u.touch()
}

func (u *User) touch() {
	u.updatedAt = time.Now().UTC()
}

// NormalizeEmail trims surrounding whitespace and lower-cases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeUsername trims surrounding whitespace.
func NormalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

// ValidateEmail performs a shape check: a non-empty local part, a single
// '@' and a dotted domain.
func ValidateEmail(email string) error {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || strings.Contains(domain, "@") {
		return ErrInvalidEmail
	}
	dot := strings.LastIndexByte(domain, '.')
	if dot <= 0 || dot == len(domain)-1 || strings.ContainsAny(email, " \t\r\n") {
		return ErrInvalidEmail
	}
	return nil
}

// ValidateUsername checks the length bounds, counted in characters.
func ValidateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < MinUsernameLength || n > MaxUsernameLength {
		return ErrInvalidUsername
	}
	return nil
}
