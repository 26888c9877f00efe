// Package main provides the API server entry point.
package main

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lllypuk/rollcall/internal/infrastructure/httpserver"
	"github.com/lllypuk/rollcall/internal/middleware"
)

const (
	apiPrefix = "/api/v1"

	// healthCheckTimeout bounds one probe pass over the stores.
	healthCheckTimeout = 2 * time.Second
)

// authRoutes get the tighter auth rate limit; they create accounts or check
// credentials.
var authRoutes = []string{
	http.MethodPost + " " + apiPrefix + "/users/register",
	http.MethodPost + " " + apiPrefix + "/users/google-signin",
	http.MethodPost + " " + apiPrefix + "/users/login",
}

// SetupRoutes configures all API routes and middleware chains on e.
func SetupRoutes(c *Container, e *echo.Echo) *httpserver.Router {
	e.HideBanner = true
	e.HidePort = true

	corsConfig := middleware.DefaultCORSConfig()
	if len(c.Config.Server.AllowOrigins) > 0 {
		corsConfig.AllowOrigins = c.Config.Server.AllowOrigins
	}

	routerConfig := httpserver.RouterConfig{
		Logger:              c.Logger,
		RateLimitMiddleware: newRateLimitMiddleware(c),
		RequestObserver:     c.HTTPMetrics,
		CORSConfig:          corsConfig,
		LoggingConfig: middleware.LoggingConfig{
			Logger:    c.Logger,
			SkipPaths: []string{"/health", "/ready", "/metrics"},
		},
		RecoveryConfig: middleware.RecoveryConfig{
			Logger:    c.Logger,
			StackSize: middleware.DefaultStackSize,
		},
		APIPrefix: apiPrefix,
	}

	router := httpserver.NewRouter(e, routerConfig)

	// Container implements httpserver.HealthChecker
	router.RegisterHealthEndpoints(c, httpserver.WithCheckTimeout(healthCheckTimeout))
	router.RegisterMetricsEndpoint(c.Registry)

	router.RegisterAll(c.UserHandler)

	if c.Config.IsDevelopment() {
		router.PrintRoutes()
	}

	return router
}

// newRateLimitMiddleware returns nil when rate limiting is disabled.
func newRateLimitMiddleware(c *Container) echo.MiddlewareFunc {
	cfg := c.Config.RateLimit
	if !cfg.Enabled || c.RateLimitStore == nil {
		return nil
	}

	routeLimits := middleware.NewRouteLimits()
	for _, route := range authRoutes {
		routeLimits.Set(route, cfg.AuthLimit)
	}

	return middleware.RateLimit(middleware.RateLimitConfig{
		Logger:      c.Logger,
		Store:       c.RateLimitStore,
		Limit:       cfg.Limit,
		Window:      cfg.Window,
		BurstSize:   cfg.Burst,
		RouteLimits: routeLimits,
		SkipPaths:   []string{"/health", "/ready", "/health/details", "/metrics"},
	})
}
