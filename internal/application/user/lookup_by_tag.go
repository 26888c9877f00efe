package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/lllypuk/rollcall/internal/application/appcore"
	"github.com/lllypuk/rollcall/internal/domain/errs"
)

// LookupByTagUseCase resolves a tag to its owner.
type LookupByTagUseCase struct {
	userRepo QueryRepository
}

// NewLookupByTagUseCase creates New LookupByTagUseCase
func NewLookupByTagUseCase(userRepo QueryRepository) *LookupByTagUseCase {
	return &LookupByTagUseCase{userRepo: userRepo}
}

// Execute performs the lookup
func (uc *LookupByTagUseCase) Execute(ctx context.Context, query LookupByTagQuery) (Result, error) {
	if !query.TagID.Valid() {
		return Result{}, appcore.WrapValidation(appcore.NewValidationError("tagId", "must be a 7-digit number"))
	}

	usr, err := uc.userRepo.FindByTagID(ctx, query.TagID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return Result{}, ErrUserNotFound
		}
		return Result{}, fmt.Errorf("failed to find user: %w", err)
	}

	return newResult(usr), nil
}
