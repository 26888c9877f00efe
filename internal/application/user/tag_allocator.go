package user

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/lllypuk/rollcall/internal/domain/user"
)

// DefaultTagAttempts bounds the candidate draws per allocation.
const DefaultTagAttempts = 32

// TagAllocator picks unused tags by random probing.
type TagAllocator struct {
	lookup      TagLookup
	maxAttempts int
	intn        func(n int) int
	recorder    Recorder
}

// TagAllocatorOption configures a TagAllocator
type TagAllocatorOption func(*TagAllocator)

// WithTagSource replaces the random source. intn must return a value in [0, n).
func WithTagSource(intn func(n int) int) TagAllocatorOption {
	return func(a *TagAllocator) {
		a.intn = intn
	}
}

// WithTagRecorder reports attempt counts to r.
func WithTagRecorder(r Recorder) TagAllocatorOption {
	return func(a *TagAllocator) {
		a.recorder = recorderOrNop(r)
	}
}

// NewTagAllocator creates an allocator; maxAttempts <= 0 selects DefaultTagAttempts.
func NewTagAllocator(lookup TagLookup, maxAttempts int, opts ...TagAllocatorOption) *TagAllocator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultTagAttempts
	}
	a := &TagAllocator{
		lookup:      lookup,
		maxAttempts: maxAttempts,
		intn:        rand.IntN,
		recorder:    NopRecorder{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Allocate returns a tag that was unused at the time of the check. The
// caller still has to rely on the store's unique index at insert time.
func (a *TagAllocator) Allocate(ctx context.Context) (user.TagID, error) {
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		candidate := user.RandomTagID(a.intn)

		taken, err := a.lookup.ExistsByTagID(ctx, candidate)
		if err != nil {
			return 0, fmt.Errorf("check tag %s: %w", candidate, err)
		}
		if !taken {
			a.recorder.TagAllocated(attempt, true)
			return candidate, nil
		}
	}

	a.recorder.TagAllocated(a.maxAttempts, false)
	return 0, ErrTagSpaceExhausted
}
