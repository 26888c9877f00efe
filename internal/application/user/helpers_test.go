package user_test

import (
	"context"
	"errors"
	"strings"
	"sync"

	appuser "github.com/lllypuk/rollcall/internal/application/user"
	"github.com/lllypuk/rollcall/internal/domain/errs"
	domainuser "github.com/lllypuk/rollcall/internal/domain/user"
	"github.com/lllypuk/rollcall/internal/infrastructure/repository/memory"
)

var errStore = errors.New("store unavailable")

// plainHasher prefixes passwords instead of hashing them.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (plainHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return errors.New("mismatch")
	}
	return nil
}

// emailVerifier accepts "ok:<email>" credentials.
type emailVerifier struct{}

func (emailVerifier) Verify(_ context.Context, credential string) (appuser.Identity, error) {
	email, ok := strings.CutPrefix(credential, "ok:")
	if !ok {
		return appuser.Identity{}, errors.New("bad token")
	}
	return appuser.Identity{Subject: "sub-" + email, Email: email}, nil
}

// countingRecorder remembers every call.
type countingRecorder struct {
	mu       sync.Mutex
	created  map[string]int
	signIns  map[string]int
	attempts []int
	images   map[appuser.ImageKind]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{
		created: map[string]int{},
		signIns: map[string]int{},
		images:  map[appuser.ImageKind]int{},
	}
}

func (r *countingRecorder) UserCreated(source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created[source]++
}

func (r *countingRecorder) SignIn(method, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signIns[method+"/"+outcome]++
}

func (r *countingRecorder) TagAllocated(attempts int, _ bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, attempts)
}

func (r *countingRecorder) ImageStored(kind appuser.ImageKind, size int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.images[kind] += size
}

// sequenceSource yields the given offsets in order, then repeats the last one.
func sequenceSource(offsets ...int) func(int) int {
	var mu sync.Mutex
	i := 0
	return func(int) int {
		mu.Lock()
		defer mu.Unlock()
		v := offsets[min(i, len(offsets)-1)]
		i++
		return v
	}
}

// tagOffset converts a tag into the value a source must return to produce it.
func tagOffset(tag domainuser.TagID) int {
	return tag.Int() - domainuser.MinTagValue
}

// faultyRepo wraps the memory repository and injects failures.
type faultyRepo struct {
	*memory.UserRepository

	insertErrs []error
	existsErr  error
	findErr    error
	findMisses int
}

func (f *faultyRepo) Insert(ctx context.Context, u *domainuser.User) error {
	if len(f.insertErrs) > 0 {
		err := f.insertErrs[0]
		f.insertErrs = f.insertErrs[1:]
		if err != nil {
			return err
		}
	}
	return f.UserRepository.Insert(ctx, u)
}

func (f *faultyRepo) ExistsByTagID(ctx context.Context, tag domainuser.TagID) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.UserRepository.ExistsByTagID(ctx, tag)
}

func (f *faultyRepo) FindByEmail(ctx context.Context, email string) (*domainuser.User, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if f.findMisses > 0 {
		f.findMisses--
		return nil, errs.ErrNotFound
	}
	return f.UserRepository.FindByEmail(ctx, email)
}

func seedUser(repo *memory.UserRepository, email, username string, tag domainuser.TagID) *domainuser.User {
	u, err := domainuser.NewUser(email, username, tag, "")
	if err != nil {
		panic(err)
	}
	if err = repo.Insert(context.Background(), u); err != nil {
		panic(err)
	}
	return u
}
