// Package main provides the API server entry point.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lllypuk/rollcall/internal/config"
	"github.com/lllypuk/rollcall/internal/infrastructure/httpserver"
)

// multipartOverhead is added to the image limit when sizing the request body limit.
const multipartOverhead = 1 << 20

func main() {
	cfg, err := config.Load()
	if err != nil {
		//nolint:sloglint // No context available before logger setup
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := setupLogger(cfg)

	logger.Info("starting rollcall API server",
		slog.String("version", "0.1.0"),
		slog.String("environment", getEnvironment(cfg)),
		slog.String("mode", string(cfg.App.Mode)),
	)

	container, err := NewContainer(cfg, WithLogger(logger))
	if err != nil {
		logger.Error("failed to build container", slog.String("error", err.Error()))
		os.Exit(1)
	}

	server := httpserver.NewServer(serverConfig(cfg), logger)
	SetupRoutes(container, server.Echo())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	select {
	case <-ctx.Done():
		logger.InfoContext(context.Background(), "received shutdown signal")
	case err = <-serverErr:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
		}
	}

	shutdown(server, container, cfg, logger)

	if err != nil {
		os.Exit(1)
	}
}

// serverConfig derives the HTTP server settings. The body limit leaves room
// for one maximum-size image plus multipart framing.
func serverConfig(cfg *config.Config) httpserver.ServerConfig {
	bodyLimitKB := (cfg.Users.MaxImageBytes + multipartOverhead) / 1024

	return httpserver.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		BodyLimit:       fmt.Sprintf("%dK", bodyLimitKB),
	}
}

// shutdown stops accepting connections, then releases the container.
func shutdown(server *httpserver.Server, container *Container, cfg *config.Config, logger *slog.Logger) {
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.ErrorContext(shutdownCtx, "server shutdown error", slog.String("error", err.Error()))
	}

	if err := container.Close(); err != nil {
		logger.ErrorContext(shutdownCtx, "container close error", slog.String("error", err.Error()))
	}

	logger.InfoContext(shutdownCtx, "server shutdown complete")
}

// setupLogger creates and configures the structured logger based on configuration.
func setupLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	level := parseLogLevel(cfg.Log.Level)
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.IsDevelopment(),
	}

	switch cfg.Log.Format {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default: // "json" or any other value defaults to JSON
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// getEnvironment returns the environment name based on configuration.
func getEnvironment(cfg *config.Config) string {
	if cfg.IsProduction() {
		return config.EnvProduction
	}
	if cfg.App.Environment != "" {
		return cfg.App.Environment
	}
	return config.EnvDevelopment
}
