package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appuser "github.com/lllypuk/rollcall/internal/application/user"
	"github.com/lllypuk/rollcall/internal/domain/errs"
	"github.com/lllypuk/rollcall/internal/infrastructure/repository/memory"
)

func TestTagAllocator_ReturnsFreeCandidate(t *testing.T) {
	repo := memory.NewUserRepository()
	seedUser(repo, "a@example.com", "alice", 1000005)
	rec := newCountingRecorder()

	alloc := appuser.NewTagAllocator(repo, 10,
		appuser.WithTagSource(sequenceSource(5, 5, 7)),
		appuser.WithTagRecorder(rec),
	)

	tag, err := alloc.Allocate(context.Background())

	require.NoError(t, err)
	assert.EqualValues(t, 1000007, tag)
	assert.Equal(t, []int{3}, rec.attempts)
}

func TestTagAllocator_ExhaustsAfterBound(t *testing.T) {
	repo := memory.NewUserRepository()
	seedUser(repo, "a@example.com", "alice", 1000000)

	alloc := appuser.NewTagAllocator(repo, 4, appuser.WithTagSource(sequenceSource(0)))

	_, err := alloc.Allocate(context.Background())

	require.ErrorIs(t, err, appuser.ErrTagSpaceExhausted)
	require.ErrorIs(t, err, errs.ErrResourceExhausted)
}

func TestTagAllocator_PropagatesLookupError(t *testing.T) {
	repo := &faultyRepo{UserRepository: memory.NewUserRepository(), existsErr: errStore}

	alloc := appuser.NewTagAllocator(repo, 3)

	_, err := alloc.Allocate(context.Background())

	require.ErrorIs(t, err, errStore)
}

func TestTagAllocator_DefaultBound(t *testing.T) {
	repo := memory.NewUserRepository()
	seedUser(repo, "a@example.com", "alice", 1000000)
	rec := newCountingRecorder()

	alloc := appuser.NewTagAllocator(repo, 0,
		appuser.WithTagSource(sequenceSource(0)),
		appuser.WithTagRecorder(rec),
	)

	_, err := alloc.Allocate(context.Background())

	require.ErrorIs(t, err, appuser.ErrTagSpaceExhausted)
	assert.Equal(t, []int{appuser.DefaultTagAttempts}, rec.attempts)
}

func TestTagAllocator_RandomTagsAreSevenDigits(t *testing.T) {
	alloc := appuser.NewTagAllocator(memory.NewUserRepository(), 1)

	for range 200 {
		tag, err := alloc.Allocate(context.Background())
		require.NoError(t, err)
		assert.Len(t, tag.String(), 7)
	}
}
