package uuid

import (
	"github.com/google/uuid"
)

// UUID is an opaque identifier stored in its canonical string form.
type UUID string

// NewUUID returns a random (version 4) UUID.
func NewUUID() UUID {
	return UUID(uuid.New().String())
}

// ParseUUID validates s and returns it as a UUID in canonical lower-case form.
func ParseUUID(s string) (UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return UUID(id.String()), nil
}

// MustParseUUID is like ParseUUID but panics on malformed input.
func MustParseUUID(s string) UUID {
	id, err := ParseUUID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (u UUID) String() string {
	return string(u)
}

// IsZero reports whether the identifier is unset.
func (u UUID) IsZero() bool {
	return u == ""
}
