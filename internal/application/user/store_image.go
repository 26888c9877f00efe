package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lllypuk/rollcall/internal/application/appcore"
	"github.com/lllypuk/rollcall/internal/domain/errs"
	"github.com/lllypuk/rollcall/internal/domain/user"
)

// validateImageCommand is shared by the three image use cases.
func validateImageCommand(cmd StoreImageCommand) (user.Image, error) {
	if err := appcore.ValidateUUID("userID", cmd.UserID); err != nil {
		return user.Image{}, appcore.WrapValidation(err)
	}
	img, err := user.NewImage(cmd.Data, cmd.ContentType)
	if err != nil {
		return user.Image{}, ErrImageRequired
	}
	return img, nil
}

func mapImageStoreError(err error) error {
	if errors.Is(err, errs.ErrNotFound) {
		return ErrUserNotFound
	}
	return fmt.Errorf("failed to store image: %w", err)
}

// SetProfilePictureUseCase overwrites the profile picture.
type SetProfilePictureUseCase struct {
	userRepo CommandRepository
	recorder Recorder
}

// NewSetProfilePictureUseCase creates New SetProfilePictureUseCase
func NewSetProfilePictureUseCase(userRepo CommandRepository, recorder Recorder) *SetProfilePictureUseCase {
	return &SetProfilePictureUseCase{userRepo: userRepo, recorder: recorderOrNop(recorder)}
}

// Execute stores the image in the profile picture slot
func (uc *SetProfilePictureUseCase) Execute(ctx context.Context, cmd StoreImageCommand) (ImageResult, error) {
	img, err := validateImageCommand(cmd)
	if err != nil {
		return ImageResult{}, err
	}
	if storeErr := uc.userRepo.SetProfilePicture(ctx, cmd.UserID, img); storeErr != nil {
		return ImageResult{}, mapImageStoreError(storeErr)
	}

	uc.recorder.ImageStored(ImageKindProfile, img.Size())
	return ImageResult{UserID: cmd.UserID, Kind: ImageKindProfile, Size: img.Size(), StoredAt: time.Now().UTC()}, nil
}

// SetSadPictureUseCase overwrites the sad image.
type SetSadPictureUseCase struct {
	userRepo CommandRepository
	recorder Recorder
}

// NewSetSadPictureUseCase creates New SetSadPictureUseCase
func NewSetSadPictureUseCase(userRepo CommandRepository, recorder Recorder) *SetSadPictureUseCase {
	return &SetSadPictureUseCase{userRepo: userRepo, recorder: recorderOrNop(recorder)}
}

// Execute stores the image in the sad image slot
func (uc *SetSadPictureUseCase) Execute(ctx context.Context, cmd StoreImageCommand) (ImageResult, error) {
	img, err := validateImageCommand(cmd)
	if err != nil {
		return ImageResult{}, err
	}
	if storeErr := uc.userRepo.SetSadImage(ctx, cmd.UserID, img); storeErr != nil {
		return ImageResult{}, mapImageStoreError(storeErr)
	}

	uc.recorder.ImageStored(ImageKindSad, img.Size())
	return ImageResult{UserID: cmd.UserID, Kind: ImageKindSad, Size: img.Size(), StoredAt: time.Now().UTC()}, nil
}

// AddTaskImageUseCase appends to the task image log.
type AddTaskImageUseCase struct {
	userRepo CommandRepository
	recorder Recorder
	now      func() time.Time
}

// NewAddTaskImageUseCase creates New AddTaskImageUseCase
func NewAddTaskImageUseCase(userRepo CommandRepository, recorder Recorder) *AddTaskImageUseCase {
	return &AddTaskImageUseCase{
		userRepo: userRepo,
		recorder: recorderOrNop(recorder),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Execute appends the image and returns the recorded timestamp
func (uc *AddTaskImageUseCase) Execute(ctx context.Context, cmd StoreImageCommand) (ImageResult, error) {
	img, err := validateImageCommand(cmd)
	if err != nil {
		return ImageResult{}, err
	}

	// stored at millisecond precision, so truncate before reporting it back
	entry := user.NewTaskImage(img, uc.now().Truncate(time.Millisecond))
	if storeErr := uc.userRepo.AppendTaskImage(ctx, cmd.UserID, entry); storeErr != nil {
		return ImageResult{}, mapImageStoreError(storeErr)
	}

	uc.recorder.ImageStored(ImageKindTask, img.Size())
	return ImageResult{UserID: cmd.UserID, Kind: ImageKindTask, Size: img.Size(), StoredAt: entry.Timestamp}, nil
}
