package backend

import (
	"context"
	"fmt"
	"log/slog"

	"subtrack/internal/storage"
	"subtrack/internal/storage/memory"
	"subtrack/internal/storage/postgres"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case PostgresBackend:
		return f.createPostgresBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	version, _, err := storage.SchemaVersion(config.SQLiteDBPath)
	if err != nil {
		f.logger.Warn("Could not read SQLite schema version", "error", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath, "schema_version", version)

	return &BackendResult{
		Store:   repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createPostgresBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := postgres.New(ctx, config.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Postgres repository: %w", err)
	}

	f.logger.Info("Initialized Postgres backend")

	return &BackendResult{
		Store:   repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend() (*BackendResult, error) {
	f.logger.Info("Initialized memory backend")

	store := memory.New()
	return &BackendResult{
		Store:   store,
		Cleanup: store.Close,
	}, nil
}
