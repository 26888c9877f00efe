package user

import "context"

// PasswordHasher hashes and verifies account passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare returns nil only when password matches hash
	Compare(hash, password string) error
}

// Identity is what an external provider vouches for.
type Identity struct {
	Subject string
	Email   string
}

// IdentityVerifier turns a provider credential into a verified identity.
type IdentityVerifier interface {
	Verify(ctx context.Context, credential string) (Identity, error)
}

// Sign-in outcomes reported to the Recorder.
const (
	SignInReturning = "returning"
	SignInCreated   = "created"
	SignInRejected  = "rejected"
)

// Recorder receives operational counters from the use cases.
type Recorder interface {
	UserCreated(source string)
	SignIn(method, outcome string)
	TagAllocated(attempts int, ok bool)
	ImageStored(kind ImageKind, size int)
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) UserCreated(string) {}
func (NopRecorder) SignIn(string, string) {}
func (NopRecorder) TagAllocated(int, bool) {}
func (NopRecorder) ImageStored(ImageKind, int) {}

func recorderOrNop(r Recorder) Recorder {
	if r == nil {
		return NopRecorder{}
	}
	return r
}
