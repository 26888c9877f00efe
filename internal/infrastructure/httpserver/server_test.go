package httpserver_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/rollcall/internal/infrastructure/httpserver"
)

func TestDefaultServerConfig(t *testing.T) {
	config := httpserver.DefaultServerConfig()

	assert.Equal(t, httpserver.DefaultHost, config.Host)
	assert.Equal(t, httpserver.DefaultPort, config.Port)
	assert.Equal(t, httpserver.DefaultReadTimeout, config.ReadTimeout)
	assert.Equal(t, httpserver.DefaultWriteTimeout, config.WriteTimeout)
	assert.Equal(t, httpserver.DefaultShutdownTimeout, config.ShutdownTimeout)
	assert.Equal(t, httpserver.DefaultBodyLimit, config.BodyLimit)
}

func TestNewServer(t *testing.T) {
	tests := []struct {
		name   string
		config httpserver.ServerConfig
		logger *slog.Logger
	}{
		{
			name:   "with default config and nil logger",
			config: httpserver.DefaultServerConfig(),
			logger: nil,
		},
		{
			name: "with custom config and logger",
			config: httpserver.ServerConfig{
				Host:            "127.0.0.1",
				Port:            3000,
				ReadTimeout:     15 * time.Second,
				WriteTimeout:    15 * time.Second,
				ShutdownTimeout: 5 * time.Second,
				BodyLimit:       "1M",
			},
			logger: slog.Default(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httpserver.NewServer(tt.config, tt.logger)

			require.NotNil(t, server)
			assert.NotNil(t, server.Echo())
			assert.Equal(t, httpserver.DefaultMaxHeaderBytes, server.Echo().Server.MaxHeaderBytes)
		})
	}
}

func TestServerAddress(t *testing.T) {
	server := httpserver.NewServer(httpserver.ServerConfig{Host: "localhost", Port: 3000}, nil)

	assert.Equal(t, "localhost:3000", server.Address())
}

func TestServerBodyLimit(t *testing.T) {
	config := httpserver.DefaultServerConfig()
	config.BodyLimit = "1K"
	server := httpserver.NewServer(config, nil)

	server.Echo().POST("/upload", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	small := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("ok"))
	rec := httptest.NewRecorder()
	server.Echo().ServeHTTP(rec, small)
	assert.Equal(t, http.StatusOK, rec.Code)

	large := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(strings.Repeat("x", 4096)))
	rec = httptest.NewRecorder()
	server.Echo().ServeHTTP(rec, large)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "PAYLOAD_TOO_LARGE")
}

func TestServerShutdown(t *testing.T) {
	config := httpserver.ServerConfig{
		Host:            "127.0.0.1",
		Port:            0,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
	server := httpserver.NewServer(config, nil)

	// shutting down a server that never started is not an error
	err := server.Shutdown(context.Background())
	assert.NoError(t, err)
}

func TestServerTimeoutConfiguration(t *testing.T) {
	config := httpserver.ServerConfig{
		Host:         "127.0.0.1",
		Port:         8080,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 20 * time.Second,
	}
	server := httpserver.NewServer(config, nil)

	assert.Equal(t, 15*time.Second, server.Echo().Server.ReadTimeout)
	assert.Equal(t, 20*time.Second, server.Echo().Server.WriteTimeout)
	assert.Equal(t, httpserver.DefaultReadHeaderTimeout, server.Echo().Server.ReadHeaderTimeout)

	config.ReadTimeout = 2 * time.Second
	server = httpserver.NewServer(config, nil)
	assert.Equal(t, 2*time.Second, server.Echo().Server.ReadHeaderTimeout)
}

func TestServerShutdown_DefaultTimeout(t *testing.T) {
	server := httpserver.NewServer(httpserver.ServerConfig{Host: "127.0.0.1"}, nil)

	// a zero timeout would cancel the drain immediately
	assert.NoError(t, server.Shutdown(context.Background()))
}

func TestServerErrorHandlerWired(t *testing.T) {
	var handler echo.HTTPErrorHandler = httpserver.ErrorHandler
	server := httpserver.NewServer(httpserver.DefaultServerConfig(), nil)
	server.Echo().GET("/users/:userId", func(echo.Context) error {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed user id")
	})

	rec := httptest.NewRecorder()
	server.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/x", nil))

	require.NotNil(t, handler)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":{"code":"BAD_REQUEST","message":"malformed user id"}}`, rec.Body.String())
}

func TestServerNotFoundRoute(t *testing.T) {
	server := httpserver.NewServer(httpserver.DefaultServerConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/nonexistent", nil)
	rec := httptest.NewRecorder()
	server.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":{"code":"NOT_FOUND","message":"Not Found"}}`, rec.Body.String())
}

func TestServerMethodNotAllowed(t *testing.T) {
	server := httpserver.NewServer(httpserver.DefaultServerConfig(), nil)

	server.Echo().GET("/test", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodPost, "/test", nil)
	rec := httptest.NewRecorder()
	server.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), "METHOD_NOT_ALLOWED")
}
