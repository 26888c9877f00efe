package httphandler

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lllypuk/rollcall/internal/application/appcore"
	userapp "github.com/lllypuk/rollcall/internal/application/user"
	"github.com/lllypuk/rollcall/internal/domain/errs"
	"github.com/lllypuk/rollcall/internal/domain/user"
	"github.com/lllypuk/rollcall/internal/domain/uuid"
	"github.com/lllypuk/rollcall/internal/infrastructure/httpserver"
)

const (
	// imageFormField is the multipart field carrying uploads.
	imageFormField = "image"

	// DefaultMaxImageBytes caps a single uploaded image.
	DefaultMaxImageBytes int64 = 8 << 20
)

var (
	errImageTooLarge = errors.New("image exceeds the size limit")
	errBadUpload     = errors.New("malformed multipart upload")
)

// RegisterRequest represents the request to create an account.
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
}

// GoogleSignInRequest carries a Google ID token. Email is accepted in place
// of the token only when the server trusts client-supplied emails.
type GoogleSignInRequest struct {
	IDToken string `json:"idToken"`
	Email   string `json:"email"`
}

// LoginRequest represents the request to sign in with a password.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUsernameRequest represents the request to rename a user.
type UpdateUsernameRequest struct {
	Username string `json:"username"`
}

// RegisterResponse is returned after account creation.
type RegisterResponse struct {
	UserID string `json:"userId"`
	TagID  string `json:"tagId"`
}

// SignInResponse is returned by both sign-in routes.
type SignInResponse struct {
	UserID            string `json:"userId"`
	Username          string `json:"username"`
	TagID             string `json:"tagId"`
	HasCompletedSetup bool   `json:"hasCompletedSetup"`
	NeedsSetup        bool   `json:"needsSetup"`
}

// UsernameResponse is returned after a rename.
type UsernameResponse struct {
	Username string `json:"username"`
	TagID    string `json:"tagId"`
}

// ImageResponse is returned after a profile or sad picture upload.
type ImageResponse struct {
	Size        int    `json:"size"`
	ContentType string `json:"contentType"`
}

// TaskImageResponse is returned after a task image upload.
type TaskImageResponse struct {
	Timestamp time.Time `json:"timestamp"`
}

// UserSummaryResponse is the public view used by tag lookups.
type UserSummaryResponse struct {
	UserID            string `json:"userId"`
	Username          string `json:"username"`
	TagID             string `json:"tagId"`
	HasCompletedSetup bool   `json:"hasCompletedSetup"`
}

// TaskImageEntry is one task image in a full user response.
type TaskImageEntry struct {
	Data        string    `json:"data"`
	ContentType string    `json:"contentType"`
	Timestamp   time.Time `json:"timestamp"`
}

// UserResponse represents a full account. Images are standard base64 and
// empty slots are null. Password material is never included.
type UserResponse struct {
	UserID            string           `json:"userId"`
	Email             string           `json:"email"`
	Username          string           `json:"username"`
	TagID             string           `json:"tagId"`
	ProfilePicture    *string          `json:"profilePicture"`
	SadImg            *string          `json:"sadImg"`
	TaskImg           []TaskImageEntry `json:"taskImg"`
	HasCompletedSetup bool             `json:"hasCompletedSetup"`
	CreatedAt         string           `json:"createdAt"`
	UpdatedAt         string           `json:"updatedAt"`
}

// UserService defines the interface for user operations.
// Declared on the consumer side per project guidelines.
type UserService interface {
	Register(ctx context.Context, cmd userapp.RegisterUserCommand) (userapp.Result, error)
	GoogleSignIn(ctx context.Context, cmd userapp.GoogleSignInCommand) (userapp.SignInResult, error)
	PasswordSignIn(ctx context.Context, cmd userapp.PasswordSignInCommand) (userapp.SignInResult, error)
	UpdateUsername(ctx context.Context, cmd userapp.UpdateUsernameCommand) (userapp.Result, error)
	StoreImage(ctx context.Context, kind userapp.ImageKind, cmd userapp.StoreImageCommand) (userapp.ImageResult, error)
	GetUser(ctx context.Context, query userapp.GetUserQuery) (userapp.Result, error)
	LookupByTag(ctx context.Context, query userapp.LookupByTagQuery) (userapp.Result, error)
}

// UserHandler handles user-related HTTP requests.
type UserHandler struct {
	userService   UserService
	maxImageBytes int64
	logger        *slog.Logger
}

// UserHandlerOption configures a UserHandler.
type UserHandlerOption func(*UserHandler)

// WithMaxImageBytes sets the upload size limit.
func WithMaxImageBytes(n int64) UserHandlerOption {
	return func(h *UserHandler) {
		if n > 0 {
			h.maxImageBytes = n
		}
	}
}

// WithUserHandlerLogger sets the logger used for unexpected failures.
func WithUserHandlerLogger(logger *slog.Logger) UserHandlerOption {
	return func(h *UserHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService UserService, opts ...UserHandlerOption) *UserHandler {
	h := &UserHandler{
		userService:   userService,
		maxImageBytes: DefaultMaxImageBytes,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers user routes with the router.
func (h *UserHandler) RegisterRoutes(r *httpserver.Router) {
	users := r.Group("/users")

	users.POST("/register", h.Register)
	users.POST("/google-signin", h.GoogleSignIn)
	users.POST("/login", h.Login)

	// static segment, matched ahead of /:userId
	users.GET("/tag/:tagId", h.LookupByTag)

	users.GET("/:userId", h.Get)
	users.PUT("/:userId/username", h.UpdateUsername)
	users.PUT("/:userId/pfp", h.imageUpload(userapp.ImageKindProfile))
	users.PUT("/:userId/sad-pic", h.imageUpload(userapp.ImageKindSad))
	users.POST("/:userId/task-image", h.imageUpload(userapp.ImageKindTask))
}

// Register handles POST /api/v1/users/register.
func (h *UserHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if bindErr := c.Bind(&req); bindErr != nil {
		return httpserver.RespondErrorWithCode(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
	}

	result, err := h.userService.Register(c.Request().Context(), userapp.RegisterUserCommand{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return h.handleUserError(c, err)
	}

	return httpserver.RespondCreated(c, RegisterResponse{
		UserID: result.Value.ID().String(),
		TagID:  result.Value.TagID().String(),
	})
}

// GoogleSignIn handles POST /api/v1/users/google-signin.
// Returns 201 when the call created the account, 200 otherwise.
func (h *UserHandler) GoogleSignIn(c echo.Context) error {
	var req GoogleSignInRequest
	if bindErr := c.Bind(&req); bindErr != nil {
		return httpserver.RespondErrorWithCode(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
	}

	credential := req.IDToken
	if credential == "" {
		credential = req.Email
	}

	result, err := h.userService.GoogleSignIn(c.Request().Context(), userapp.GoogleSignInCommand{
		Credential: credential,
	})
	if err != nil {
		return h.handleUserError(c, err)
	}

	resp := ToSignInResponse(result)
	if result.Created {
		return httpserver.RespondCreated(c, resp)
	}
	return httpserver.RespondOK(c, resp)
}

// Login handles POST /api/v1/users/login.
func (h *UserHandler) Login(c echo.Context) error {
	var req LoginRequest
	if bindErr := c.Bind(&req); bindErr != nil {
		return httpserver.RespondErrorWithCode(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
	}

	result, err := h.userService.PasswordSignIn(c.Request().Context(), userapp.PasswordSignInCommand{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return h.handleUserError(c, err)
	}

	return httpserver.RespondOK(c, ToSignInResponse(result))
}

// LookupByTag handles GET /api/v1/users/tag/:tagId.
func (h *UserHandler) LookupByTag(c echo.Context) error {
	tag, parseErr := user.ParseTagID(c.Param("tagId"))
	if parseErr != nil {
		return httpserver.RespondErrorWithCode(c, http.StatusBadRequest, "INVALID_TAG_ID", "tag must be a 7-digit number")
	}

	result, err := h.userService.LookupByTag(c.Request().Context(), userapp.LookupByTagQuery{TagID: tag})
	if err != nil {
		return h.handleUserError(c, err)
	}

	u := result.Value
	return httpserver.RespondOK(c, UserSummaryResponse{
		UserID:            u.ID().String(),
		Username:          u.Username(),
		TagID:             u.TagID().String(),
		HasCompletedSetup: u.HasCompletedSetup(),
	})
}

// Get handles GET /api/v1/users/:userId.
func (h *UserHandler) Get(c echo.Context) error {
	userID, ok := parseUserID(c)
	if !ok {
		return respondInvalidUserID(c)
	}

	result, err := h.userService.GetUser(c.Request().Context(), userapp.GetUserQuery{UserID: userID})
	if err != nil {
		return h.handleUserError(c, err)
	}

	return httpserver.RespondOK(c, ToUserResponse(result.Value))
}

// UpdateUsername handles PUT /api/v1/users/:userId/username.
func (h *UserHandler) UpdateUsername(c echo.Context) error {
	userID, ok := parseUserID(c)
	if !ok {
		return respondInvalidUserID(c)
	}

	var req UpdateUsernameRequest
	if bindErr := c.Bind(&req); bindErr != nil {
		return httpserver.RespondErrorWithCode(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
	}

	result, err := h.userService.UpdateUsername(c.Request().Context(), userapp.UpdateUsernameCommand{
		UserID:   userID,
		Username: req.Username,
	})
	if err != nil {
		return h.handleUserError(c, err)
	}

	return httpserver.RespondOK(c, UsernameResponse{
		Username: result.Value.Username(),
		TagID:    result.Value.TagID().String(),
	})
}

// imageUpload builds the handler for one of the multipart image routes.
func (h *UserHandler) imageUpload(kind userapp.ImageKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := parseUserID(c)
		if !ok {
			return respondInvalidUserID(c)
		}

		data, contentType, readErr := h.readImage(c)
		if readErr != nil {
			return h.handleUserError(c, readErr)
		}

		result, err := h.userService.StoreImage(c.Request().Context(), kind, userapp.StoreImageCommand{
			UserID:      userID,
			Data:        data,
			ContentType: contentType,
		})
		if err != nil {
			return h.handleUserError(c, err)
		}

		if kind == userapp.ImageKindTask {
			return httpserver.RespondOK(c, TaskImageResponse{Timestamp: result.StoredAt})
		}
		return httpserver.RespondOK(c, ImageResponse{Size: result.Size, ContentType: contentType})
	}
}

// readImage loads the "image" form file. The declared part type is kept
// unless it is missing or generic, in which case the bytes are sniffed.
func (h *UserHandler) readImage(c echo.Context) ([]byte, string, error) {
	fh, err := c.FormFile(imageFormField)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, "", userapp.ErrImageRequired
	}
	if err != nil {
		return nil, "", errBadUpload
	}
	if fh.Size > h.maxImageBytes {
		return nil, "", errImageTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return nil, "", errBadUpload
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxImageBytes+1))
	if err != nil {
		return nil, "", errBadUpload
	}
	if int64(len(data)) > h.maxImageBytes {
		return nil, "", errImageTooLarge
	}
	if len(data) == 0 {
		return nil, "", userapp.ErrImageRequired
	}

	contentType := fh.Header.Get(echo.HeaderContentType)
	if contentType == "" || contentType == user.DefaultContentType {
		contentType = http.DetectContentType(data)
	}

	return data, contentType, nil
}

// Helper functions

func parseUserID(c echo.Context) (uuid.UUID, bool) {
	id, err := uuid.ParseUUID(c.Param("userId"))
	if err != nil {
		return "", false
	}
	return id, true
}

func respondInvalidUserID(c echo.Context) error {
	return httpserver.RespondErrorWithCode(c, http.StatusBadRequest, "INVALID_USER_ID", "invalid user ID format")
}

// handleUserError maps use case errors to responses. Uniqueness conflicts
// answer 400, which is what existing clients expect.
func (h *UserHandler) handleUserError(c echo.Context, err error) error {
	var validationErr *appcore.ValidationError

	switch {
	case errors.Is(err, userapp.ErrUserNotFound), errors.Is(err, errs.ErrNotFound):
		return httpserver.RespondErrorWithCode(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, userapp.ErrEmailOrUsernameExists):
		return httpserver.RespondErrorWithCode(
			c, http.StatusBadRequest, "EMAIL_OR_USERNAME_EXISTS", "Email or username already exists")
	case errors.Is(err, userapp.ErrUsernameAlreadyExists), errors.Is(err, user.ErrUsernameTaken):
		return httpserver.RespondErrorWithCode(c, http.StatusBadRequest, "USERNAME_TAKEN", "Username already taken")
	case errors.Is(err, user.ErrEmailTaken):
		return httpserver.RespondErrorWithCode(c, http.StatusBadRequest, "EMAIL_TAKEN", "Email already in use")
	case errors.Is(err, userapp.ErrImageRequired):
		return httpserver.RespondErrorWithCode(c, http.StatusBadRequest, "IMAGE_REQUIRED", "No image file provided")
	case errors.Is(err, errImageTooLarge):
		return httpserver.RespondErrorWithCode(
			c, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Image exceeds the size limit")
	case errors.Is(err, errBadUpload):
		return httpserver.RespondErrorWithCode(c, http.StatusBadRequest, "INVALID_REQUEST", "malformed upload")
	case errors.Is(err, userapp.ErrInvalidCredentials):
		return httpserver.RespondErrorWithCode(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
	case errors.As(err, &validationErr):
		return httpserver.RespondErrorWithCode(
			c, http.StatusBadRequest, "VALIDATION_ERROR", validationErr.Field+": "+validationErr.Message)
	case errors.Is(err, appcore.ErrValidationFailed), errors.Is(err, errs.ErrInvalidInput):
		return httpserver.RespondErrorWithCode(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, errs.ErrResourceExhausted):
		h.logger.WarnContext(c.Request().Context(), "user allocation exhausted", slog.String("error", err.Error()))
		return httpserver.RespondError(c, err)
	default:
		h.logger.ErrorContext(c.Request().Context(), "user request failed",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
		return httpserver.RespondError(c, err)
	}
}

// ToSignInResponse converts a sign-in result to SignInResponse.
func ToSignInResponse(r userapp.SignInResult) SignInResponse {
	u := r.Value
	return SignInResponse{
		UserID:            u.ID().String(),
		Username:          u.Username(),
		TagID:             u.TagID().String(),
		HasCompletedSetup: u.HasCompletedSetup(),
		NeedsSetup:        r.NeedsSetup(),
	}
}

// ToUserResponse converts a domain User to UserResponse.
func ToUserResponse(u *user.User) UserResponse {
	tasks := u.TaskImages()
	entries := make([]TaskImageEntry, 0, len(tasks))
	for _, ti := range tasks {
		entries = append(entries, TaskImageEntry{
			Data:        base64.StdEncoding.EncodeToString(ti.Data),
			ContentType: ti.ContentType,
			Timestamp:   ti.Timestamp,
		})
	}

	return UserResponse{
		UserID:            u.ID().String(),
		Email:             u.Email(),
		Username:          u.Username(),
		TagID:             u.TagID().String(),
		ProfilePicture:    encodeImage(u.ProfilePicture()),
		SadImg:            encodeImage(u.SadImage()),
		TaskImg:           entries,
		HasCompletedSetup: u.HasCompletedSetup(),
		CreatedAt:         u.CreatedAt().Format(time.RFC3339),
		UpdatedAt:         u.UpdatedAt().Format(time.RFC3339),
	}
}

func encodeImage(img *user.Image) *string {
	if img == nil || len(img.Data) == 0 {
		return nil
	}
	s := base64.StdEncoding.EncodeToString(img.Data)
	return &s
}
