package user

import "strconv"

const (
	// TagLength is the number of decimal digits in a tag.
	TagLength = 7

	MinTagValue = 1_000_000
	MaxTagValue = 9_999_999
)

// TagID is the short numeric discriminator shown next to a username.
// Valid tags are exactly seven digits with no leading zero.
type TagID int

// NewTagID validates n as a tag.
func NewTagID(n int) (TagID, error) {
	t := TagID(n)
	if !t.Valid() {
		return 0, ErrInvalidTagID
	}
	return t, nil
}

// ParseTagID parses the decimal form of a tag, e.g. from a path parameter.
func ParseTagID(s string) (TagID, error) {
	if len(s) != TagLength {
		return 0, ErrInvalidTagID
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, ErrInvalidTagID
	}
	return NewTagID(n)
}

// RandomTagID draws a tag uniformly from [MinTagValue, MaxTagValue].
// intn must return a value in [0, n).
func RandomTagID(intn func(n int) int) TagID {
	return TagID(MinTagValue + intn(MaxTagValue-MinTagValue+1))
}

// Valid reports whether t lies inside the tag range.
func (t TagID) Valid() bool {
	return t >= MinTagValue && t <= MaxTagValue
}

func (t TagID) Int() int {
	return int(t)
}

func (t TagID) String() string {
	return strconv.Itoa(int(t))
}
