// Package main provides the API server entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	userapp "github.com/lllypuk/rollcall/internal/application/user"
	"github.com/lllypuk/rollcall/internal/config"
	httphandler "github.com/lllypuk/rollcall/internal/handler/http"
	"github.com/lllypuk/rollcall/internal/infrastructure/auth"
	"github.com/lllypuk/rollcall/internal/infrastructure/httpserver"
	"github.com/lllypuk/rollcall/internal/infrastructure/identity"
	"github.com/lllypuk/rollcall/internal/infrastructure/metrics"
	mongodbinfra "github.com/lllypuk/rollcall/internal/infrastructure/mongodb"
	"github.com/lllypuk/rollcall/internal/infrastructure/ratelimit"
	"github.com/lllypuk/rollcall/internal/infrastructure/repository/memory"
	"github.com/lllypuk/rollcall/internal/infrastructure/repository/mongodb"
	"github.com/lllypuk/rollcall/internal/middleware"
	"github.com/lllypuk/rollcall/internal/service"
)

// Container initialization timeouts.
const (
	containerInitTimeout   = 30 * time.Second
	redisPingTimeout       = 5 * time.Second
	mongoDisconnectTimeout = 10 * time.Second
)

// Health component names.
const (
	componentMongoDB     = "mongodb"
	componentRedis       = "redis"
	componentMemoryStore = "memory_store"
)

// healthCheck is one component probed by the health endpoints. Optional
// components report degraded instead of unhealthy and never fail readiness.
type healthCheck struct {
	name     string
	optional bool
	ping     func(ctx context.Context) error
}

// Container holds all application dependencies and manages their lifecycle.
// It implements httpserver.HealthChecker for unified health endpoint support.
type Container struct {
	// Configuration
	Config *config.Config
	Logger *slog.Logger

	// Infrastructure
	MongoDB     *mongo.Client
	MongoDBName string
	Redis       *redis.Client
	Registry    *prometheus.Registry

	// Repositories
	UserRepo userapp.Repository

	// Adapters
	Hasher         *auth.BcryptHasher
	Verifier       userapp.IdentityVerifier
	GoogleVerifier *identity.GoogleVerifier // closed on shutdown
	RateLimitStore middleware.RateLimitStore
	UserMetrics    *metrics.UserMetrics
	HTTPMetrics    *metrics.HTTPMetrics

	// Services
	UserService *service.UserService

	// HTTP Handlers
	UserHandler *httphandler.UserHandler

	checks []healthCheck
}

// Ensure Container implements httpserver.HealthChecker.
var _ httpserver.HealthChecker = (*Container)(nil)

// ContainerOption configures the Container.
type ContainerOption func(*Container)

// WithLogger sets a custom logger for the container.
func WithLogger(logger *slog.Logger) ContainerOption {
	return func(c *Container) {
		c.Logger = logger
	}
}

// WithRegistry sets the Prometheus registry metrics are registered with.
func WithRegistry(registry *prometheus.Registry) ContainerOption {
	return func(c *Container) {
		c.Registry = registry
	}
}

// NewContainer creates a new dependency injection container.
// The wiring mode (real/mock) is determined by config.App.Mode.
func NewContainer(cfg *config.Config, opts ...ContainerOption) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}

	c.logWiringMode()
	c.setupMetrics()

	if err := c.setupInfrastructure(); err != nil {
		// Clean up any partially initialized resources
		_ = c.Close()
		return nil, fmt.Errorf("failed to setup infrastructure: %w", err)
	}

	c.setupServices()
	c.setupHTTPHandlers()

	if err := c.validateWiring(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("wiring validation failed: %w", err)
	}

	return c, nil
}

// logWiringMode logs the current wiring mode configuration.
func (c *Container) logWiringMode() {
	mode := c.Config.App.Mode
	if mode == "" {
		mode = config.AppModeReal
	}

	if c.Config.App.IsMockMode() {
		c.Logger.Warn("container starting in MOCK mode",
			slog.String("mode", string(mode)),
			slog.String("environment", c.Config.App.Environment),
		)
	} else {
		c.Logger.Info("container starting in REAL mode",
			slog.String("mode", string(mode)),
			slog.String("environment", c.Config.App.Environment),
		)
	}
}

// setupMetrics registers the user and HTTP collectors plus the Go runtime ones.
func (c *Container) setupMetrics() {
	if c.Registry == nil {
		c.Registry = prometheus.NewRegistry()
		c.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	c.UserMetrics = metrics.NewUserMetrics(c.Registry)
	c.HTTPMetrics = metrics.NewHTTPMetrics(c.Registry)
}

// setupInfrastructure initializes storage, rate limiting and identity.
func (c *Container) setupInfrastructure() error {
	c.Hasher = auth.NewBcryptHasher(c.Config.Auth.BcryptCost)

	if c.Config.App.IsMockMode() {
		c.setupMockInfrastructure()
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), containerInitTimeout)
	defer cancel()

	if err := c.setupMongoDB(ctx); err != nil {
		return fmt.Errorf("mongodb: %w", err)
	}

	if c.Config.RateLimit.Enabled {
		if err := c.setupRedis(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}

	if err := c.setupGoogleVerifier(); err != nil {
		return fmt.Errorf("google verifier: %w", err)
	}

	return nil
}

// setupMockInfrastructure wires in-process stand-ins for every external system.
func (c *Container) setupMockInfrastructure() {
	repo := memory.NewUserRepository()
	c.UserRepo = repo
	c.Verifier = identity.TrustedEmailVerifier{}

	if c.Config.RateLimit.Enabled {
		c.RateLimitStore = middleware.NewMemoryRateLimitStore()
	}

	c.checks = append(c.checks, healthCheck{name: componentMemoryStore, ping: repo.Ping})
}

// setupMongoDB connects, ensures indexes and builds the user repository.
func (c *Container) setupMongoDB(ctx context.Context) error {
	clientOpts := options.Client().
		ApplyURI(c.Config.MongoDB.URI).
		SetMaxPoolSize(c.Config.MongoDB.MaxPoolSize).
		SetTimeout(c.Config.MongoDB.Timeout)

	client, connectErr := mongo.Connect(clientOpts)
	if connectErr != nil {
		return fmt.Errorf("failed to connect: %w", connectErr)
	}
	c.MongoDB = client
	c.MongoDBName = c.Config.MongoDB.Database

	pingCtx, cancel := context.WithTimeout(ctx, c.Config.MongoDB.Timeout)
	defer cancel()

	if pingErr := client.Ping(pingCtx, nil); pingErr != nil {
		return fmt.Errorf("failed to ping: %w", pingErr)
	}

	c.Logger.InfoContext(ctx, "connected to MongoDB",
		slog.String("database", c.Config.MongoDB.Database),
	)

	db := client.Database(c.Config.MongoDB.Database)
	indexCtx, indexCancel := context.WithTimeout(ctx, c.Config.MongoDB.Timeout)
	defer indexCancel()

	if indexErr := mongodbinfra.CreateAllIndexes(indexCtx, db); indexErr != nil {
		return fmt.Errorf("failed to create indexes: %w", indexErr)
	}

	c.Logger.InfoContext(ctx, "MongoDB indexes created successfully")

	c.UserRepo = mongodb.NewMongoUserRepository(
		db.Collection(mongodbinfra.CollectionUsers),
		mongodb.WithUserRepoLogger(c.Logger),
	)
	c.checks = append(c.checks, healthCheck{
		name: componentMongoDB,
		ping: func(ctx context.Context) error { return client.Ping(ctx, nil) },
	})

	return nil
}

// setupRedis initializes the Redis client backing the rate limiter.
func (c *Container) setupRedis(ctx context.Context) error {
	c.Redis = redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Addr,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
		PoolSize: c.Config.Redis.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()

	if pingErr := c.Redis.Ping(pingCtx).Err(); pingErr != nil {
		return fmt.Errorf("failed to ping: %w", pingErr)
	}

	c.Logger.InfoContext(ctx, "connected to Redis",
		slog.String("addr", c.Config.Redis.Addr),
	)

	store := ratelimit.NewRedisStore(ratelimit.RedisStoreConfig{
		Client:    c.Redis,
		KeyPrefix: c.Config.RateLimit.KeyPrefix,
	})
	c.RateLimitStore = store

	// the limiter fails open, so a Redis outage degrades but does not block traffic
	c.checks = append(c.checks, healthCheck{name: componentRedis, optional: true, ping: store.Ping})

	return nil
}

// setupGoogleVerifier loads the Google key set used to check ID tokens.
func (c *Container) setupGoogleVerifier() error {
	verifier, err := identity.NewGoogleVerifier(identity.GoogleVerifierConfig{
		JWKSURL:         c.Config.Google.JWKSURL,
		Issuers:         c.Config.Google.Issuers,
		ClientIDs:       c.Config.Google.ClientIDs,
		Leeway:          c.Config.Google.Leeway,
		RefreshInterval: c.Config.Google.RefreshInterval,
		Logger:          c.Logger,
	})
	if err != nil {
		return err
	}

	c.GoogleVerifier = verifier
	c.Verifier = verifier
	return nil
}

// setupServices builds the use cases and the service facade over them.
func (c *Container) setupServices() {
	tags := userapp.NewTagAllocator(
		c.UserRepo,
		c.Config.Users.TagMaxAttempts,
		userapp.WithTagRecorder(c.UserMetrics),
	)

	c.UserService = service.NewUserService(service.UserServiceConfig{
		RegisterUC:       userapp.NewRegisterUserUseCase(c.UserRepo, tags, c.Hasher, c.UserMetrics),
		GoogleSignInUC:   userapp.NewGoogleSignInUseCase(c.UserRepo, c.Verifier, tags, c.UserMetrics),
		PasswordSignInUC: userapp.NewPasswordSignInUseCase(c.UserRepo, c.Hasher, c.UserMetrics),
		RenameUC:         userapp.NewUpdateUsernameUseCase(c.UserRepo),
		ProfilePictureUC: userapp.NewSetProfilePictureUseCase(c.UserRepo, c.UserMetrics),
		SadPictureUC:     userapp.NewSetSadPictureUseCase(c.UserRepo, c.UserMetrics),
		TaskImageUC:      userapp.NewAddTaskImageUseCase(c.UserRepo, c.UserMetrics),
		GetUC:            userapp.NewGetUserUseCase(c.UserRepo),
		LookupUC:         userapp.NewLookupByTagUseCase(c.UserRepo),
	})

	c.Logger.Debug("user service initialized",
		slog.Int("tag_max_attempts", c.Config.Users.TagMaxAttempts),
		slog.Int("bcrypt_cost", c.Hasher.Cost()),
	)
}

// setupHTTPHandlers creates the HTTP handlers.
func (c *Container) setupHTTPHandlers() {
	c.UserHandler = httphandler.NewUserHandler(
		c.UserService,
		httphandler.WithMaxImageBytes(c.Config.Users.MaxImageBytes),
		httphandler.WithUserHandlerLogger(c.Logger),
	)
}

// validateWiring ensures all required dependencies are properly initialized.
func (c *Container) validateWiring() error {
	var errs []error

	if c.UserRepo == nil {
		errs = append(errs, errors.New("user repository not initialized"))
	}
	if c.Verifier == nil {
		errs = append(errs, errors.New("identity verifier not initialized"))
	}
	if c.Config.RateLimit.Enabled && c.RateLimitStore == nil {
		errs = append(errs, errors.New("rate limit store not initialized"))
	}
	if c.UserHandler == nil {
		errs = append(errs, errors.New("user handler not initialized"))
	}

	// Trusting client-supplied emails is never acceptable in production
	if c.Config.IsProduction() {
		if _, isTrusted := c.Verifier.(identity.TrustedEmailVerifier); isTrusted {
			errs = append(errs, errors.New("trusted email verifier is not allowed in production"))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Close releases all container resources.
func (c *Container) Close() error {
	c.Logger.Info("closing container resources...")

	var errs []error

	// Stops the JWKS refresh goroutine
	if c.GoogleVerifier != nil {
		if err := c.GoogleVerifier.Close(); err != nil {
			errs = append(errs, fmt.Errorf("google verifier close: %w", err))
		} else {
			c.Logger.Debug("google verifier closed")
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		} else {
			c.Logger.Debug("redis connection closed")
		}
	}

	if c.MongoDB != nil {
		ctx, cancel := context.WithTimeout(context.Background(), mongoDisconnectTimeout)
		defer cancel()

		if err := c.MongoDB.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("mongodb disconnect: %w", err))
		} else {
			c.Logger.Debug("mongodb connection closed")
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	c.Logger.Info("all container resources closed")
	return nil
}

// GetHealthStatus implements httpserver.HealthChecker. With nothing wired it
// reports the user store unhealthy, which fails readiness.
func (c *Container) GetHealthStatus(ctx context.Context) []httpserver.ComponentStatus {
	if len(c.checks) == 0 {
		return []httpserver.ComponentStatus{{
			Name:    "user_store",
			Status:  httpserver.StatusUnhealthy,
			Message: "store not initialized",
		}}
	}

	statuses := make([]httpserver.ComponentStatus, 0, len(c.checks))
	for _, check := range c.checks {
		status := httpserver.ComponentStatus{
			Name:     check.name,
			Status:   httpserver.StatusHealthy,
			Optional: check.optional,
		}

		start := time.Now()
		err := check.ping(ctx)
		status.LatencyMS = time.Since(start).Milliseconds()

		if err != nil {
			status.Status = httpserver.StatusUnhealthy
			if check.optional {
				status.Status = httpserver.StatusDegraded
			}
			status.Message = err.Error()
			c.Logger.WarnContext(ctx, "health check failed",
				slog.String("component", check.name),
				slog.Bool("optional", check.optional),
				slog.String("error", err.Error()),
			)
		}
		statuses = append(statuses, status)
	}

	return statuses
}
