// Package config provides configuration loading and validation for the application.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default configuration constants.
const (
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 8080
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	DefaultMongoDBTimeout     = 10 * time.Second
	DefaultMongoDBMaxPoolSize = 100

	DefaultRedisPoolSize = 10

	DefaultBcryptCost = 12

	DefaultTagMaxAttempts = 32
	DefaultMaxImageBytes  = 8 << 20 // 8 MiB

	DefaultRateLimit       = 100
	DefaultRateLimitWindow = time.Minute
	DefaultRateLimitBurst  = 10
	DefaultAuthRateLimit   = 20

	DefaultGoogleJWKSURL         = "https://www.googleapis.com/oauth2/v3/certs"
	DefaultGoogleLeeway          = 30 * time.Second
	DefaultGoogleRefreshInterval = 1 * time.Hour

	// MongoDB caps a document at 16 MiB and every image lives inline.
	maxDocumentBytes = 16 << 20
)

// AppMode defines the application wiring mode.
type AppMode string

// Application wiring modes.
const (
	// AppModeReal uses MongoDB, Redis and Google's key set.
	// This is the default mode and should be used in production.
	AppModeReal AppMode = "real"

	// AppModeMock keeps users in memory and trusts the email sent on sign-in.
	// This mode is NOT allowed in production environments.
	AppModeMock AppMode = "mock"
)

// Environments recognised by IsProduction.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds the complete application configuration.
type Config struct {
	App       AppConfig       `yaml:"app"`
	Server    ServerConfig    `yaml:"server"`
	MongoDB   MongoDBConfig   `yaml:"mongodb"`
	Redis     RedisConfig     `yaml:"redis"`
	Google    GoogleConfig    `yaml:"google"`
	Auth      AuthConfig      `yaml:"auth"`
	Users     UsersConfig     `yaml:"users"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	// Mode controls dependency wiring: "real" (default) or "mock".
	// In production, only "real" mode is allowed.
	Mode AppMode `yaml:"mode" env:"APP_MODE"`

	// Name is the application name used in logs.
	Name string `yaml:"name" env:"APP_NAME"`

	// Environment is "development" or "production".
	Environment string `yaml:"environment" env:"APP_ENV"`
}

// IsRealMode returns true if the application should use real implementations.
func (c AppConfig) IsRealMode() bool {
	return c.Mode == "" || c.Mode == AppModeReal
}

// IsMockMode returns true if the application should use mock implementations.
func (c AppConfig) IsMockMode() bool {
	return c.Mode == AppModeMock
}

// ServerConfig holds HTTP server configuration.
//
//nolint:golines // Struct tags require longer lines for readability
type ServerConfig struct {
	Host            string        `yaml:"host" env:"SERVER_HOST"`
	Port            int           `yaml:"port" env:"SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
	AllowOrigins    []string      `yaml:"allow_origins" env:"SERVER_ALLOW_ORIGINS"`
}

// Address returns the full server address (host:port).
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// MongoDBConfig holds MongoDB connection configuration.
//
//nolint:golines // Struct tags require longer lines for readability
type MongoDBConfig struct {
	URI         string        `yaml:"uri" env:"MONGODB_URI"`
	Database    string        `yaml:"database" env:"MONGODB_DATABASE"`
	Timeout     time.Duration `yaml:"timeout" env:"MONGODB_TIMEOUT"`
	MaxPoolSize uint64        `yaml:"max_pool_size" env:"MONGODB_MAX_POOL_SIZE"`
}

// RedisConfig holds Redis connection configuration.
//
//nolint:golines // Struct tags require longer lines for readability
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
	PoolSize int    `yaml:"pool_size" env:"REDIS_POOL_SIZE"`
}

// GoogleConfig holds Google ID token verification settings. The mobile
// client uses one OAuth client per platform, so several audiences are accepted.
//
//nolint:golines // Struct tags require longer lines for readability
type GoogleConfig struct {
	ClientIDs       []string      `yaml:"client_ids" env:"GOOGLE_CLIENT_IDS"`
	JWKSURL         string        `yaml:"jwks_url" env:"GOOGLE_JWKS_URL"`
	Issuers         []string      `yaml:"issuers" env:"GOOGLE_ISSUERS"`
	Leeway          time.Duration `yaml:"leeway" env:"GOOGLE_LEEWAY"`
	RefreshInterval time.Duration `yaml:"refresh_interval" env:"GOOGLE_REFRESH_INTERVAL"`
}

// AuthConfig holds password hashing configuration.
type AuthConfig struct {
	BcryptCost int `yaml:"bcrypt_cost" env:"AUTH_BCRYPT_COST"`
}

// UsersConfig holds limits for account operations.
//
//nolint:golines // Struct tags require longer lines for readability
type UsersConfig struct {
	TagMaxAttempts int   `yaml:"tag_max_attempts" env:"USERS_TAG_MAX_ATTEMPTS"`
	MaxImageBytes  int64 `yaml:"max_image_bytes" env:"USERS_MAX_IMAGE_BYTES"`
}

// RateLimitConfig holds request rate limiting configuration.
//
//nolint:golines // Struct tags require longer lines for readability
type RateLimitConfig struct {
	Enabled   bool          `yaml:"enabled" env:"RATE_LIMIT_ENABLED"`
	Limit     int           `yaml:"limit" env:"RATE_LIMIT_LIMIT"`
	Window    time.Duration `yaml:"window" env:"RATE_LIMIT_WINDOW"`
	Burst     int           `yaml:"burst" env:"RATE_LIMIT_BURST"`
	AuthLimit int           `yaml:"auth_limit" env:"RATE_LIMIT_AUTH_LIMIT"` // register, sign-in
	KeyPrefix string        `yaml:"key_prefix" env:"RATE_LIMIT_KEY_PREFIX"`
}

// LogConfig holds logging configuration.
//
//nolint:golines // Struct tags require longer lines for readability
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`   // debug | info | warn | error
	Format string `yaml:"format" env:"LOG_FORMAT"` // json | text
}

// Configuration errors.
var (
	ErrConfigNotFound   = errors.New("configuration file not found")
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrMissingRequired  = errors.New("missing required configuration")
	ErrInvalidDuration  = errors.New("invalid duration format")
	ErrInvalidLogLevel  = errors.New("invalid log level: must be debug, info, warn, or error")
	ErrInvalidLogFormat = errors.New("invalid log format: must be json or text")
	ErrInvalidAppMode   = errors.New("invalid app mode: must be real or mock")
	ErrInvalidAppEnv    = errors.New("invalid app environment: must be development or production")
	ErrMockModeInProd   = errors.New("mock mode is not allowed in production")
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Mode:        AppModeReal,
			Name:        "rollcall",
			Environment: EnvDevelopment,
		},
		Server: ServerConfig{
			Host:            DefaultHost,
			Port:            DefaultPort,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		MongoDB: MongoDBConfig{
			URI:         "mongodb://localhost:27017",
			Database:    "rollcall",
			Timeout:     DefaultMongoDBTimeout,
			MaxPoolSize: DefaultMongoDBMaxPoolSize,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			PoolSize: DefaultRedisPoolSize,
		},
		Google: GoogleConfig{
			JWKSURL:         DefaultGoogleJWKSURL,
			Issuers:         []string{"accounts.google.com", "https://accounts.google.com"},
			Leeway:          DefaultGoogleLeeway,
			RefreshInterval: DefaultGoogleRefreshInterval,
		},
		Auth: AuthConfig{
			BcryptCost: DefaultBcryptCost,
		},
		Users: UsersConfig{
			TagMaxAttempts: DefaultTagMaxAttempts,
			MaxImageBytes:  DefaultMaxImageBytes,
		},
		RateLimit: RateLimitConfig{
			Enabled:   true,
			Limit:     DefaultRateLimit,
			Window:    DefaultRateLimitWindow,
			Burst:     DefaultRateLimitBurst,
			AuthLimit: DefaultAuthRateLimit,
			KeyPrefix: "rollcall:",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	var errs []error

	errs = c.validateApp(errs)
	errs = c.validateServer(errs)
	errs = c.validateMongoDB(errs)
	errs = c.validateRedis(errs)
	errs = c.validateGoogle(errs)
	errs = c.validateUsers(errs)
	errs = c.validateRateLimit(errs)
	errs = c.validateLog(errs)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrConfigInvalid, errors.Join(errs...))
	}

	return nil
}

// validateApp validates application configuration.
func (c *Config) validateApp(errs []error) []error {
	if c.App.Mode != "" && c.App.Mode != AppModeReal && c.App.Mode != AppModeMock {
		errs = append(errs, fmt.Errorf("%w: got %q", ErrInvalidAppMode, c.App.Mode))
	}
	switch strings.ToLower(c.App.Environment) {
	case "", EnvDevelopment, EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("%w: got %q", ErrInvalidAppEnv, c.App.Environment))
	}
	if c.App.IsMockMode() && c.IsProduction() {
		errs = append(errs, ErrMockModeInProd)
	}
	return errs
}

// validateServer validates server configuration.
func (c *Config) validateServer(errs []error) []error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, errors.New("server.read_timeout must be positive"))
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, errors.New("server.write_timeout must be positive"))
	}
	return errs
}

// validateMongoDB validates MongoDB configuration. Mock mode never connects.
func (c *Config) validateMongoDB(errs []error) []error {
	if c.App.IsMockMode() {
		return errs
	}
	if c.MongoDB.URI == "" {
		errs = append(errs, errors.New("mongodb.uri is required"))
	}
	if c.MongoDB.Database == "" {
		errs = append(errs, errors.New("mongodb.database is required"))
	}
	return errs
}

// validateRedis validates Redis configuration.
func (c *Config) validateRedis(errs []error) []error {
	if c.App.IsMockMode() || !c.RateLimit.Enabled {
		return errs
	}
	if c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required"))
	}
	return errs
}

// validateGoogle validates Google sign-in configuration.
func (c *Config) validateGoogle(errs []error) []error {
	if c.App.IsMockMode() {
		return errs
	}
	if len(c.Google.ClientIDs) == 0 {
		errs = append(errs, fmt.Errorf("%w: google.client_ids", ErrMissingRequired))
	}
	if c.Google.JWKSURL == "" {
		errs = append(errs, fmt.Errorf("%w: google.jwks_url", ErrMissingRequired))
	}
	if c.Google.Leeway < 0 {
		errs = append(errs, errors.New("google.leeway must not be negative"))
	}
	return errs
}

// validateUsers validates account limits.
func (c *Config) validateUsers(errs []error) []error {
	if c.Users.TagMaxAttempts <= 0 {
		errs = append(errs, errors.New("users.tag_max_attempts must be positive"))
	}
	if c.Users.MaxImageBytes <= 0 || c.Users.MaxImageBytes > maxDocumentBytes/2 {
		errs = append(errs, fmt.Errorf("users.max_image_bytes must be between 1 and %d", maxDocumentBytes/2))
	}
	return errs
}

// validateRateLimit validates rate limiting configuration.
func (c *Config) validateRateLimit(errs []error) []error {
	if !c.RateLimit.Enabled {
		return errs
	}
	if c.RateLimit.Limit <= 0 {
		errs = append(errs, errors.New("rate_limit.limit must be positive"))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate_limit.window must be positive"))
	}
	if c.RateLimit.Burst < 0 {
		errs = append(errs, errors.New("rate_limit.burst must not be negative"))
	}
	return errs
}

// validateLog validates logging configuration.
func (c *Config) validateLog(errs []error) []error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ErrInvalidLogLevel)
	}
	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[strings.ToLower(c.Log.Format)] {
		errs = append(errs, ErrInvalidLogFormat)
	}
	return errs
}

// Load loads configuration from the default config file and environment variables.
func Load() (*Config, error) {
	return LoadFromPath("")
}

// LoadFromPath loads configuration from a specific file path.
// If path is empty, it tries to find the config file in standard locations.
func LoadFromPath(path string) (*Config, error) {
	loader := NewLoader()
	return loader.Load(path)
}

// Loader handles configuration loading from files and environment variables.
type Loader struct {
	configPaths []string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		configPaths: []string{
			"configs/config.yaml",
			"config.yaml",
			"/etc/rollcall/config.yaml",
		},
	}
}

// WithConfigPaths sets custom config paths to search.
func (l *Loader) WithConfigPaths(paths []string) *Loader {
	l.configPaths = paths
	return l
}

// Load loads configuration from file and environment variables.
func (l *Loader) Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	configPath := path
	if configPath == "" {
		if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
			configPath = envPath
		} else {
			for _, p := range l.configPaths {
				if _, err := os.Stat(p); err == nil {
					configPath = p
					break
				}
			}
		}
	}

	if configPath != "" {
		if err := l.loadFromFile(cfg, configPath); err != nil {
			// a file found by searching may be ignored, an explicit one may not
			if path != "" || os.Getenv("CONFIG_PATH") != "" {
				return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
			}
		}
	}

	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile loads configuration from a YAML file.
func (l *Loader) loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if unmarshalErr := yaml.Unmarshal(data, cfg); unmarshalErr != nil {
		return fmt.Errorf("failed to parse config file: %w", unmarshalErr)
	}

	return nil
}

// loadFromEnv loads configuration from environment variables.
func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.loadEnvToStruct(reflect.ValueOf(cfg).Elem())
}

// loadEnvToStruct recursively loads environment variables into a struct.
func (l *Loader) loadEnvToStruct(v reflect.Value) error {
	t := v.Type()

	for i := range v.NumField() {
		field := v.Field(i)
		fieldType := t.Field(i)

		if field.Kind() == reflect.Struct {
			if err := l.loadEnvToStruct(field); err != nil {
				return err
			}
			continue
		}

		envTag := fieldType.Tag.Get("env")
		if envTag == "" {
			continue
		}

		envValue := os.Getenv(envTag)
		if envValue == "" {
			continue
		}

		if err := l.setFieldFromEnv(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s from env %s: %w", fieldType.Name, envTag, err)
		}
	}

	return nil
}

// setFieldFromEnv sets a struct field value from an environment variable string.
//
//nolint:exhaustive // We only support a subset of reflect.Kind for config values
func (l *Loader) setFieldFromEnv(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeFor[time.Duration]() {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("%w: %s", ErrInvalidDuration, value)
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %s", value)
			}
			field.SetInt(i)
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid unsigned integer value: %s", value)
		}
		field.SetUint(u)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value: %s", value)
		}
		field.SetBool(b)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid float value: %s", value)
		}
		field.SetFloat(f)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", field.Type())
		}
		var items []string
		for item := range strings.SplitSeq(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		field.Set(reflect.ValueOf(items))

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// IsDevelopment returns true if the log level indicates a development environment.
func (c *Config) IsDevelopment() bool {
	return strings.ToLower(c.Log.Level) == "debug"
}

// IsProduction reports whether the service runs in the production environment.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Environment, EnvProduction)
}
