package backend

import (
	"context"

	"subtrack/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the store instance and optional cleanup function
type BackendResult struct {
	Store   storage.Store
	Cleanup CleanupFunc
}

// Factory creates stores based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Postgres specific
	PostgresDSN string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}
