package uuid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/rollcall/internal/domain/uuid"
)

func TestNewUUID(t *testing.T) {
	id := uuid.NewUUID()

	assert.False(t, id.IsZero())
	assert.Len(t, id.String(), 36)
	assert.NotEqual(t, id, uuid.NewUUID())
}

func TestParseUUID(t *testing.T) {
	t.Run("canonicalizes upper case input", func(t *testing.T) {
		id, err := uuid.ParseUUID("550E8400-E29B-41D4-A716-446655440000")

		require.NoError(t, err)
		assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", id.String())
	})

	invalid := []struct {
		name  string
		input string
	}{
		{"empty string", ""},
		{"invalid format", "not-a-uuid"},
		{"too short", "550e8400"},
		{"invalid characters", "xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx"},
	}

	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			id, err := uuid.ParseUUID(tc.input)

			require.Error(t, err)
			assert.True(t, id.IsZero())
		})
	}
}

func TestMustParseUUID_Panics(t *testing.T) {
	assert.Panics(t, func() { uuid.MustParseUUID("bogus") })
}
