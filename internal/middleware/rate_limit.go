package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// Rate limit defaults.
const (
	DefaultRateLimit       = 100
	DefaultRateLimitWindow = time.Minute
	DefaultBurstSize       = 10

	defaultRateLimitMessage = "Too many requests. Please try again later."
)

// RateLimitStore counts requests per key inside a fixed window.
type RateLimitStore interface {
	// Increment bumps the counter for key and returns the new value. The
	// window starts with the first increment.
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)

	// GetCount returns the current count for key.
	GetCount(ctx context.Context, key string) (int64, error)

	// GetTTL returns how long until the window for key resets.
	GetTTL(ctx context.Context, key string) (time.Duration, error)
}

// RateLimitConfig holds configuration for the rate limit middleware.
type RateLimitConfig struct {
	Logger *slog.Logger

	// Store is the counter backend. A nil store disables limiting.
	Store RateLimitStore

	// Limit is the number of requests allowed per window, before burst.
	Limit int

	Window time.Duration

	// BurstSize is added on top of Limit.
	BurstSize int

	// RouteLimits overrides Limit for matched routes. Keys are
	// "METHOD route" using the registered echo route, e.g.
	// "POST /api/v1/users/login". A trailing '*' matches by prefix.
	RouteLimits *RouteLimits

	// KeyFunc derives the counter key. Defaults to method, route and client IP.
	KeyFunc func(c echo.Context) string

	// SkipPaths are request paths that are never limited.
	SkipPaths []string

	Message string

	// ExceedHandler replaces the default 429 response.
	ExceedHandler func(c echo.Context, retryAfter time.Duration) error
}

// DefaultRateLimitConfig returns a RateLimitConfig with sensible defaults.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Logger:    slog.Default(),
		Limit:     DefaultRateLimit,
		Window:    DefaultRateLimitWindow,
		BurstSize: DefaultBurstSize,
		SkipPaths: []string{"/health", "/ready", "/metrics"},
		Message:   defaultRateLimitMessage,
	}
}

// RateLimit returns a fixed-window rate limiting middleware.
func RateLimit(config RateLimitConfig) echo.MiddlewareFunc {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Limit <= 0 {
		config.Limit = DefaultRateLimit
	}
	if config.Window <= 0 {
		config.Window = DefaultRateLimitWindow
	}
	if config.Message == "" {
		config.Message = defaultRateLimitMessage
	}
	if config.KeyFunc == nil {
		config.KeyFunc = RouteIPKey
	}

	skipPaths := make(map[string]struct{}, len(config.SkipPaths))
	for _, path := range config.SkipPaths {
		skipPaths[path] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path

			if _, ok := skipPaths[path]; ok || config.Store == nil {
				return next(c)
			}

			key := config.KeyFunc(c)
			ctx := req.Context()

			count, err := config.Store.Increment(ctx, key, config.Window)
			if err != nil {
				// fail open
				config.Logger.ErrorContext(ctx, "failed to increment rate limit counter",
					slog.String("key", key),
					slog.String("error", err.Error()),
				)
				return next(c)
			}

			limit := config.Limit
			if config.RouteLimits != nil {
				limit = config.RouteLimits.Get(req.Method, c.Path(), limit)
			}
			totalLimit := int64(limit + config.BurstSize)
			remaining := max(totalLimit-count, 0)

			header := c.Response().Header()
			header.Set("X-Ratelimit-Limit", strconv.FormatInt(totalLimit, 10))
			header.Set("X-Ratelimit-Remaining", strconv.FormatInt(remaining, 10))

			ttl, err := config.Store.GetTTL(ctx, key)
			if err == nil && ttl > 0 {
				header.Set("X-Ratelimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))
			}

			if count <= totalLimit {
				return next(c)
			}

			config.Logger.WarnContext(ctx, "rate limit exceeded",
				slog.String("key", key),
				slog.Int64("count", count),
				slog.Int64("limit", totalLimit),
				slog.String("path", path),
				slog.String("remote_ip", c.RealIP()),
			)

			if config.ExceedHandler != nil {
				return config.ExceedHandler(c, ttl)
			}
			return respondRateLimitError(c, config.Message, ttl)
		}
	}
}

// RouteIPKey keys counters by method, registered route and client IP, so
// /users/a and /users/b share one counter.
func RouteIPKey(c echo.Context) string {
	route := c.Path()
	if route == "" {
		route = c.Request().URL.Path
	}
	return fmt.Sprintf("ratelimit:route:%s:%s:ip:%s", c.Request().Method, route, c.RealIP())
}

// IPKey keys counters by client IP only.
func IPKey(c echo.Context) string {
	return "ratelimit:ip:" + c.RealIP()
}

// RateLimitByIP returns a rate limiting middleware that shares one counter
// per client across all routes.
func RateLimitByIP(config RateLimitConfig) echo.MiddlewareFunc {
	config.KeyFunc = IPKey
	return RateLimit(config)
}

func respondRateLimitError(c echo.Context, message string, retryAfter time.Duration) error {
	seconds := int64(retryAfter.Seconds())
	if retryAfter > 0 {
		c.Response().Header().Set("Retry-After", strconv.FormatInt(seconds, 10))
	}

	return c.JSON(http.StatusTooManyRequests, map[string]any{
		"success": false,
		"error": map[string]any{
			"code":        "RATE_LIMIT_EXCEEDED",
			"message":     message,
			"retry_after": seconds,
		},
	})
}

// RouteLimits holds per-route request limits.
type RouteLimits struct {
	limits map[string]int
}

// NewRouteLimits creates an empty set of route limits.
func NewRouteLimits() *RouteLimits {
	return &RouteLimits{limits: make(map[string]int)}
}

// Set assigns limit to "METHOD route". Returns the receiver for chaining.
func (r *RouteLimits) Set(pattern string, limit int) *RouteLimits {
	r.limits[pattern] = limit
	return r
}

// Get returns the limit for method and route, or defaultLimit.
func (r *RouteLimits) Get(method, route string, defaultLimit int) int {
	key := method + " " + route
	if limit, ok := r.limits[key]; ok {
		return limit
	}

	for pattern, limit := range r.limits {
		if matchPattern(pattern, key) {
			return limit
		}
	}

	return defaultLimit
}

func matchPattern(pattern, key string) bool {
	if pattern == key {
		return true
	}
	if n := len(pattern); n > 0 && pattern[n-1] == '*' {
		prefix := pattern[:n-1]
		return len(key) >= len(prefix) && key[:len(prefix)] == prefix
	}
	return false
}

// MemoryRateLimitStore keeps counters in process memory. Used in mock mode
// and tests; counters are not shared between instances. Expired counters are
// dropped on read and swept at most once per window on Increment.
type MemoryRateLimitStore struct {
	mu        sync.Mutex
	counts    map[string]*rateLimitEntry
	now       func() time.Time
	nextSweep time.Time
}

type rateLimitEntry struct {
	count     int64
	expiresAt time.Time
}

// NewMemoryRateLimitStore creates a new in-memory rate limit store.
func NewMemoryRateLimitStore() *MemoryRateLimitStore {
	return &MemoryRateLimitStore{
		counts: make(map[string]*rateLimitEntry),
		now:    time.Now,
	}
}

// Increment increments the counter for the given key.
func (s *MemoryRateLimitStore) Increment(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if !now.Before(s.nextSweep) {
		s.sweep(now)
		s.nextSweep = now.Add(window)
	}

	if entry, ok := s.counts[key]; ok && now.Before(entry.expiresAt) {
		entry.count++
		return entry.count, nil
	}

	s.counts[key] = &rateLimitEntry{count: 1, expiresAt: now.Add(window)}
	return 1, nil
}

// GetCount returns the current count for the given key.
func (s *MemoryRateLimitStore) GetCount(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.counts[key]
	if !ok {
		return 0, nil
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.counts, key)
		return 0, nil
	}
	return entry.count, nil
}

// GetTTL returns the remaining TTL for the given key.
func (s *MemoryRateLimitStore) GetTTL(_ context.Context, key string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.counts[key]
	if !ok {
		return 0, nil
	}
	ttl := entry.expiresAt.Sub(s.now())
	if ttl <= 0 {
		delete(s.counts, key)
		return 0, nil
	}
	return ttl, nil
}

// Len returns the number of tracked counters, including expired ones not
// yet swept.
func (s *MemoryRateLimitStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.counts)
}

func (s *MemoryRateLimitStore) sweep(now time.Time) {
	for key, entry := range s.counts {
		if !now.Before(entry.expiresAt) {
			delete(s.counts, key)
		}
	}
}

// Reset clears all counters.
func (s *MemoryRateLimitStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts = make(map[string]*rateLimitEntry)
}
