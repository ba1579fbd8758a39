// Package migrations applies the embedded SQL schema with golang-migrate.
package migrations

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrator runs schema migrations against one database
type Migrator struct {
	migrate *migrate.Migrate
	source  source.Driver
	logger  *slog.Logger
}

// New creates a migrator for a postgres:// database URL
func New(databaseURL string, logger *slog.Logger) (*Migrator, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	return &Migrator{migrate: m, source: src, logger: logger}, nil
}

// Up applies all pending migrations. A version left dirty by a failed run
// is rolled back to its predecessor so Up runs it again; every up file is
// written to be safe to re-apply.
func (m *Migrator) Up() error {
	version, dirty, err := m.migrate.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if dirty {
		retryFrom, err := previousVersion(m.source, version)
		if err != nil {
			return err
		}
		m.logger.Warn("schema is dirty, retrying migration", "version", version, "forced_to", retryFrom)
		if err := m.migrate.Force(retryFrom); err != nil {
			return fmt.Errorf("failed to clear dirty state: %w", err)
		}
	}

	if err := m.migrate.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.Info("schema is up to date", "version", version)
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	newVersion, _, _ := m.migrate.Version()
	m.logger.Info("schema migrated", "version", newVersion)
	return nil
}

// previousVersion returns the version to force so that version is applied
// again, database.NilVersion when it is the first migration
func previousVersion(src source.Driver, version uint) (int, error) {
	prev, err := src.Prev(version)
	if errors.Is(err, fs.ErrNotExist) {
		return database.NilVersion, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to find migration before %d: %w", version, err)
	}
	return int(prev), nil
}

// Down rolls back one migration
func (m *Migrator) Down() error {
	if err := m.migrate.Steps(-1); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.Info("nothing to roll back")
			return nil
		}
		return fmt.Errorf("failed to roll back: %w", err)
	}

	version, _, _ := m.migrate.Version()
	m.logger.Info("schema rolled back", "version", version)
	return nil
}

// Version returns the applied version; 0 with no error when the schema is empty
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// Close releases the source and database handles
func (m *Migrator) Close() error {
	srcErr, dbErr := m.migrate.Close()
	return errors.Join(srcErr, dbErr)
}
