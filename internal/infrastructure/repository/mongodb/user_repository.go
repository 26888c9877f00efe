package mongodb

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/lllypuk/rollcall/internal/domain/errs"
	userdomain "github.com/lllypuk/rollcall/internal/domain/user"
	"github.com/lllypuk/rollcall/internal/domain/uuid"
	indexes "github.com/lllypuk/rollcall/internal/infrastructure/mongodb"
)

// summaryProjection leaves image bytes on the server. Image slots still
// decode (with empty data) so setup state stays visible.
//
//nolint:gochecknoglobals // read-only projection document
var summaryProjection = bson.M{
	"profile_picture.data": 0,
	"sad_image.data":       0,
	"task_images":          0,
}

// MongoUserRepository implements userapp.Repository (application layer interface)
type MongoUserRepository struct {
	collection *mongo.Collection
	logger     *slog.Logger
}

// UserRepoOption configures MongoUserRepository.
type UserRepoOption func(*MongoUserRepository)

// WithUserRepoLogger sets the logger for user repository.
func WithUserRepoLogger(logger *slog.Logger) UserRepoOption {
	return func(r *MongoUserRepository) {
		r.logger = logger
	}
}

// NewMongoUserRepository creates New MongoDB User Repository
func NewMongoUserRepository(collection *mongo.Collection, opts ...UserRepoOption) *MongoUserRepository {
	r := &MongoUserRepository{
		collection: collection,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Insert stores a new user. Unique index violations are reported per key.
func (r *MongoUserRepository) Insert(ctx context.Context, user *userdomain.User) error {
	if user == nil || user.ID().IsZero() {
		return errs.ErrInvalidInput
	}

	_, err := r.collection.InsertOne(ctx, userToDocument(user))
	if err == nil {
		return nil
	}

	if dupErr := duplicateKeyError(err); dupErr != nil {
		return dupErr
	}

	r.logger.ErrorContext(ctx, "failed to insert user",
		slog.String("user_id", user.ID().String()),
		slog.String("error", err.Error()),
	)
	return HandleMongoError(err, "user")
}

// UpdateUsername sets a new username on an existing user
func (r *MongoUserRepository) UpdateUsername(ctx context.Context, id uuid.UUID, username string) error {
	return r.updateOne(ctx, id, "update username", bson.M{
		"$set": bson.M{"username": username, "updated_at": now()},
	})
}

// SetProfilePicture overwrites the profile picture slot
func (r *MongoUserRepository) SetProfilePicture(ctx context.Context, id uuid.UUID, img userdomain.Image) error {
	return r.updateOne(ctx, id, "set profile picture", bson.M{
		"$set": bson.M{"profile_picture": imageToDocument(img), "updated_at": now()},
	})
}

// SetSadImage overwrites the sad image slot
func (r *MongoUserRepository) SetSadImage(ctx context.Context, id uuid.UUID, img userdomain.Image) error {
	return r.updateOne(ctx, id, "set sad image", bson.M{
		"$set": bson.M{"sad_image": imageToDocument(img), "updated_at": now()},
	})
}

// AppendTaskImage pushes an entry onto the task image log
func (r *MongoUserRepository) AppendTaskImage(ctx context.Context, id uuid.UUID, img userdomain.TaskImage) error {
	return r.updateOne(ctx, id, "append task image", bson.M{
		"$push": bson.M{"task_images": taskImageToDocument(img)},
		"$set":  bson.M{"updated_at": now()},
	})
}

// FindByID loads the full user, image payloads included
func (r *MongoUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*userdomain.User, error) {
	if id.IsZero() {
		return nil, errs.ErrInvalidInput
	}
	return r.findOne(ctx, bson.M{"user_id": id.String()}, options.FindOne())
}

// FindByEmail finds user by normalized email; image payloads are not loaded
func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	if email == "" {
		return nil, errs.ErrInvalidInput
	}
	return r.findOne(ctx, bson.M{"email": email}, options.FindOne().SetProjection(summaryProjection))
}

// FindByUsername finds user by username; image payloads are not loaded
func (r *MongoUserRepository) FindByUsername(ctx context.Context, username string) (*userdomain.User, error) {
	if username == "" {
		return nil, errs.ErrInvalidInput
	}
	return r.findOne(ctx, bson.M{"username": username}, options.FindOne().SetProjection(summaryProjection))
}

// FindByTagID finds user by tag; image payloads are not loaded
func (r *MongoUserRepository) FindByTagID(ctx context.Context, tag userdomain.TagID) (*userdomain.User, error) {
	return r.findOne(ctx, bson.M{"tag_id": tag.Int()}, options.FindOne().SetProjection(summaryProjection))
}

// ExistsByEmailOrUsername answers both uniqueness checks with one query
func (r *MongoUserRepository) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	return r.exists(ctx, bson.M{"$or": bson.A{
		bson.M{"email": email},
		bson.M{"username": username},
	}})
}

// ExistsByUsername checks whether the username is taken
func (r *MongoUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	if username == "" {
		return false, errs.ErrInvalidInput
	}
	return r.exists(ctx, bson.M{"username": username})
}

// ExistsByTagID checks whether the tag is taken
func (r *MongoUserRepository) ExistsByTagID(ctx context.Context, tag userdomain.TagID) (bool, error) {
	return r.exists(ctx, bson.M{"tag_id": tag.Int()})
}

func (r *MongoUserRepository) findOne(
	ctx context.Context,
	filter bson.M,
	opts *options.FindOneOptionsBuilder,
) (*userdomain.User, error) {
	var doc userDocument
	err := r.collection.FindOne(ctx, filter, opts).Decode(&doc)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.ErrorContext(ctx, "failed to find user",
				slog.Any("filter", filter),
				slog.String("error", err.Error()),
			)
		}
		return nil, HandleMongoError(err, "user")
	}

	return documentToUser(&doc)
}

func (r *MongoUserRepository) updateOne(ctx context.Context, id uuid.UUID, op string, update bson.M) error {
	if id.IsZero() {
		return errs.ErrInvalidInput
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"user_id": id.String()}, update)
	if err != nil {
		if dupErr := duplicateKeyError(err); dupErr != nil {
			return dupErr
		}
		r.logger.ErrorContext(ctx, "failed to "+op,
			slog.String("user_id", id.String()),
			slog.String("error", err.Error()),
		)
		return HandleMongoError(err, "user")
	}

	if result.MatchedCount == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *MongoUserRepository) exists(ctx context.Context, filter bson.M) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, HandleMongoError(err, "user")
	}
	return count > 0, nil
}

// duplicateKeyError maps a unique index violation to the matching domain error.
func duplicateKeyError(err error) error {
	switch duplicateKeyIndex(err) {
	case "":
		return nil
	case indexes.IndexUsersEmail:
		return userdomain.ErrEmailTaken
	case indexes.IndexUsersUsername:
		return userdomain.ErrUsernameTaken
	case indexes.IndexUsersTagID:
		return userdomain.ErrTagIDTaken
	default:
		return errs.ErrAlreadyExists
	}
}

func now() time.Time {
	return time.Now().UTC()
}

// userDocument represents the document structure in MongoDB
type userDocument struct {
	UserID         string              `bson:"user_id"`
	Email          string              `bson:"email"`
	Username       string              `bson:"username"`
	TagID          int                 `bson:"tag_id"`
	PasswordHash   string              `bson:"password_hash,omitempty"`
	ProfilePicture *imageDocument      `bson:"profile_picture,omitempty"`
	SadImage       *imageDocument      `bson:"sad_image,omitempty"`
	TaskImages     []taskImageDocument `bson:"task_images"`
	CreatedAt      time.Time           `bson:"created_at"`
	UpdatedAt      time.Time           `bson:"updated_at"`
}

type imageDocument struct {
	Data        []byte `bson:"data"`
	ContentType string `bson:"content_type"`
}

type taskImageDocument struct {
	Data        []byte    `bson:"data"`
	ContentType string    `bson:"content_type"`
	Timestamp   time.Time `bson:"timestamp"`
}

func userToDocument(user *userdomain.User) userDocument {
	doc := userDocument{
		UserID:       user.ID().String(),
		Email:        user.Email(),
		Username:     user.Username(),
		TagID:        user.TagID().Int(),
		PasswordHash: user.PasswordHash(),
		// $push needs an array, never null
		TaskImages: make([]taskImageDocument, 0, len(user.TaskImages())),
		CreatedAt:  user.CreatedAt(),
		UpdatedAt:  user.UpdatedAt(),
	}
	if img := user.ProfilePicture(); img != nil {
		d := imageToDocument(*img)
		doc.ProfilePicture = &d
	}
	if img := user.SadImage(); img != nil {
		d := imageToDocument(*img)
		doc.SadImage = &d
	}
	for _, ti := range user.TaskImages() {
		doc.TaskImages = append(doc.TaskImages, taskImageToDocument(ti))
	}
	return doc
}

func documentToUser(doc *userDocument) (*userdomain.User, error) {
	if doc == nil {
		return nil, errs.ErrInvalidInput
	}

	id, err := uuid.ParseUUID(doc.UserID)
	if err != nil {
		return nil, errs.ErrInvalidInput
	}

	var pfp, sad *userdomain.Image
	if doc.ProfilePicture != nil {
		img := documentToImage(*doc.ProfilePicture)
		pfp = &img
	}
	if doc.SadImage != nil {
		img := documentToImage(*doc.SadImage)
		sad = &img
	}

	tasks := make([]userdomain.TaskImage, 0, len(doc.TaskImages))
	for _, ti := range doc.TaskImages {
		tasks = append(tasks, userdomain.NewTaskImage(
			userdomain.Image{Data: ti.Data, ContentType: ti.ContentType},
			ti.Timestamp,
		))
	}

	return userdomain.Reconstruct(
		id,
		doc.Email,
		doc.Username,
		userdomain.TagID(doc.TagID),
		doc.PasswordHash,
		pfp,
		sad,
		tasks,
		doc.CreatedAt,
		doc.UpdatedAt,
	), nil
}

func imageToDocument(img userdomain.Image) imageDocument {
	return imageDocument{Data: img.Data, ContentType: img.ContentType}
}

func documentToImage(doc imageDocument) userdomain.Image {
	return userdomain.Image{Data: doc.Data, ContentType: doc.ContentType}
}

func taskImageToDocument(ti userdomain.TaskImage) taskImageDocument {
	return taskImageDocument{Data: ti.Data, ContentType: ti.ContentType, Timestamp: ti.Timestamp}
}
