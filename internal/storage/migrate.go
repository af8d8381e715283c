package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrDirtySchema is returned when a previous migration stopped halfway.
// The database needs manual repair before subtrack will touch it again.
var ErrDirtySchema = errors.New("subscription schema is dirty")

// SchemaVersion reports the migration version applied to the SQLite file at
// dbPath. A fresh database reports version 0.
func SchemaVersion(dbPath string) (version uint, dirty bool, err error) {
	err = withMigrator(dbPath, func(m *migrate.Migrate) error {
		version, dirty, err = m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			version, dirty, err = 0, false, nil
		}
		return err
	})
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, dirty, nil
}

// RunMigrations brings the subscription schema at dbPath up to date.
func RunMigrations(dbPath string) error {
	return withMigrator(dbPath, func(m *migrate.Migrate) error {
		v, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			return fmt.Errorf("read schema version: %w", err)
		}
		if dirty {
			return fmt.Errorf("%w at version %d", ErrDirtySchema, v)
		}
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("apply migrations: %w", err)
		}
		return nil
	})
}

// withMigrator runs fn against a migrator on its own connection, so closing
// the migrator leaves the repository pool open.
func withMigrator(dbPath string, fn func(*migrate.Migrate) error) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", dbPath, err)
	}
	defer db.Close()

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("sqlite migration driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("migrator: %w", err)
	}
	defer m.Close()

	return fn(m)
}
