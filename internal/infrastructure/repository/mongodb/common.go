package mongodb

import (
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/lllypuk/rollcall/internal/domain/errs"
)

// HandleMongoError converts a MongoDB error into a domain error.
// returns:
//   - nil if err == nil
//   - errs.ErrNotFound if the document was not found
//   - errs.ErrAlreadyExists if a unique constraint was violated
//   - wrapped error otherwise
func HandleMongoError(err error, resourceType string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return errs.ErrNotFound
	}

	if mongo.IsDuplicateKeyError(err) {
		return errs.ErrAlreadyExists
	}

	return fmt.Errorf("failed to operate on %s: %w", resourceType, err)
}

// duplicateKeyIndex returns the index named in a duplicate key error, or an
// empty string when err is not one. The server reports the violation as
// "E11000 duplicate key error collection: db.users index: <name> dup key: ...".
func duplicateKeyIndex(err error) string {
	if err == nil || !mongo.IsDuplicateKeyError(err) {
		return ""
	}
	_, rest, ok := strings.Cut(err.Error(), "index: ")
	if !ok {
		return ""
	}
	name, _, _ := strings.Cut(rest, " ")
	return name
}
