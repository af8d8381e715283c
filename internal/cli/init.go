// Package cli provides common initialization shared by the subtrack
// binaries: env files, configuration, logging, the store and signals.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"subtrack/internal/backend"
	"subtrack/internal/config"
	"subtrack/internal/log"
)

// SetupLogger builds the process logger from a LOG_LEVEL value and makes it
// the slog default. An unknown level falls back to info with a warning.
func SetupLogger(level string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	logger := log.NewText(os.Stdout, lvl, log.ComponentApp)
	log.SetDefault(logger)
	if err != nil {
		logger.Warn("Invalid log level, using info", log.FieldError, err)
	}
	return logger
}

// Clock returns the current time in the configured zone, so calendar dates
// derived from it match the user's day rather than the host's.
func Clock(cfg *config.Config) func() time.Time {
	loc := cfg.Location()
	return func() time.Time { return time.Now().In(loc) }
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadConfig reads .env, resolves the configuration and sets up logging
// at the configured level.
func LoadConfig() (*config.Config, *log.Logger, error) {
	LoadEnvFile()

	cfg, err := config.Load()
	logger := SetupLogger(cfg.LogLevel)
	if err != nil {
		return nil, logger, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, logger, err
	}
	return cfg, logger, nil
}

// MustLoadConfig is LoadConfig that exits the process on failure.
func MustLoadConfig() (*config.Config, *log.Logger) {
	cfg, logger, err := LoadConfig()
	if err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg, logger
}

// InitStore opens the backend selected by cfg.
func InitStore(ctx context.Context, logger *log.Logger, cfg *config.Config) (*backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Slog()).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("init %s store: %w", bcfg.Type, err)
	}
	logger.Info("Store initialized", "backend", bcfg.Type.String())
	return res, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM. The
// received signal is logged.
func SignalContext(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
