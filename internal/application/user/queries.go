package user

import (
	domainuser "github.com/lllypuk/rollcall/internal/domain/user"
	"github.com/lllypuk/rollcall/internal/domain/uuid"
)

// GetUserQuery fetches a full account by ID.
type GetUserQuery struct {
	UserID uuid.UUID
}

func (q GetUserQuery) QueryName() string { return "GetUser" }

// LookupByTagQuery finds the account owning a tag.
type LookupByTagQuery struct {
	TagID domainuser.TagID
}

func (q LookupByTagQuery) QueryName() string { return "LookupByTag" }
