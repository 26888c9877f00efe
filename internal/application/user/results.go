package user

import (
	"time"

	"github.com/lllypuk/rollcall/internal/application/appcore"
	"github.com/lllypuk/rollcall/internal/domain/user"
	"github.com/lllypuk/rollcall/internal/domain/uuid"
)

// Result - result of an operation on a single user
type Result struct {
	appcore.Result[*user.User]
}

// SignInResult reports the signed-in user and whether it was created by this call.
type SignInResult struct {
	Result

	Created bool
}

// NeedsSetup reports whether the client still has to collect profile images.
func (r SignInResult) NeedsSetup() bool {
	return !r.Value.HasCompletedSetup()
}

// ImageResult describes a stored image.
type ImageResult struct {
	UserID   uuid.UUID
	Kind     ImageKind
	Size     int
	StoredAt time.Time
}

func newResult(u *user.User) Result {
	return Result{Result: appcore.Result[*user.User]{Value: u}}
}
