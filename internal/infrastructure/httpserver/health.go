// Package httpserver provides HTTP server infrastructure components.
package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Health states reported by the probe endpoints.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	// StatusDegraded marks an optional component that is down; the service
	// still serves traffic without it.
	StatusDegraded = "degraded"
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
)

// DefaultCheckTimeout bounds one probe pass over all components.
const DefaultCheckTimeout = 3 * time.Second

// ComponentStatus is the state of one backing store.
type ComponentStatus struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	Optional  bool   `json:"optional,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
	Message   string `json:"message,omitempty"`
}

// HealthResponse is the body of every probe endpoint.
type HealthResponse struct {
	Status     string            `json:"status"`
	Components []ComponentStatus `json:"components,omitempty"`
}

// HealthChecker probes the user store and its companions.
type HealthChecker interface {
	GetHealthStatus(ctx context.Context) []ComponentStatus
}

// Ready reports whether traffic can be served: at least one component is
// wired and none is unhealthy. Degraded components do not block readiness.
func Ready(components []ComponentStatus) bool {
	if len(components) == 0 {
		return false
	}
	for _, comp := range components {
		if comp.Status == StatusUnhealthy {
			return false
		}
	}
	return true
}

// Overall folds component states into one: unhealthy wins over degraded.
func Overall(components []ComponentStatus) string {
	overall := StatusHealthy
	for _, comp := range components {
		switch comp.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			overall = StatusDegraded
		}
	}
	return overall
}

// HealthOption configures HealthEndpoints.
type HealthOption func(*HealthEndpoints)

// WithCheckTimeout bounds each probe pass. Non-positive values keep the default.
func WithCheckTimeout(d time.Duration) HealthOption {
	return func(h *HealthEndpoints) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// HealthEndpoints serves /health, /ready and /health/details.
type HealthEndpoints struct {
	checker HealthChecker
	timeout time.Duration
}

// NewHealthEndpoints creates the probe endpoints. A nil checker reports
// ready with no components.
func NewHealthEndpoints(checker HealthChecker, opts ...HealthOption) *HealthEndpoints {
	h := &HealthEndpoints{checker: checker, timeout: DefaultCheckTimeout}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the probe endpoints on e.
func (h *HealthEndpoints) Register(e *echo.Echo) {
	e.GET("/health", h.handleHealth)
	e.GET("/ready", h.handleReady)
	e.GET("/health/details", h.handleHealthDetails)
}

// handleHealth is the liveness probe; it touches no store.
func (h *HealthEndpoints) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: StatusHealthy})
}

func (h *HealthEndpoints) handleReady(c echo.Context) error {
	if h.checker == nil {
		return c.JSON(http.StatusOK, HealthResponse{Status: StatusReady})
	}

	components := h.probe(c.Request().Context())
	if Ready(components) {
		return c.JSON(http.StatusOK, HealthResponse{Status: StatusReady, Components: components})
	}
	return c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: StatusNotReady, Components: components})
}

func (h *HealthEndpoints) handleHealthDetails(c echo.Context) error {
	components := h.probe(c.Request().Context())

	overall := Overall(components)
	code := http.StatusOK
	if overall == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}

	return c.JSON(code, HealthResponse{Status: overall, Components: components})
}

func (h *HealthEndpoints) probe(ctx context.Context) []ComponentStatus {
	if h.checker == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	return h.checker.GetHealthStatus(ctx)
}

// RegisterHealthEndpoints registers /health, /ready and /health/details.
func (r *Router) RegisterHealthEndpoints(checker HealthChecker, opts ...HealthOption) {
	NewHealthEndpoints(checker, opts...).Register(r.echo)
}
