// Package migration applies the embedded schema migrations on startup.
package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var embedded embed.FS

// ErrDirty means a previous migration failed halfway and needs a manual fix.
var ErrDirty = errors.New("schema is dirty")

// Status is the schema version after a run.
type Status struct {
	Version uint
	Applied bool
}

// Source exposes the embedded migration files.
func Source() (fs.FS, error) {
	return fs.Sub(embedded, "migrations")
}

// RunMigrations applies every pending up migration to a postgres database.
// The shared *sql.DB is left open.
func RunMigrations(db *sql.DB) (Status, error) {
	if db == nil {
		return Status{}, errors.New("migration: nil database handle")
	}

	m, err := newMigrator(db)
	if err != nil {
		return Status{}, err
	}

	if _, dirty, err := m.Version(); err == nil && dirty {
		return Status{}, ErrDirty
	}

	status := Status{Applied: true}
	if err := m.Up(); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			return Status{}, fmt.Errorf("migration: up: %w", err)
		}
		status.Applied = false
	}

	version, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return Status{}, fmt.Errorf("migration: version: %w", err)
	}
	status.Version = version
	return status, nil
}

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	files, err := Source()
	if err != nil {
		return nil, fmt.Errorf("migration: source: %w", err)
	}
	src, err := iofs.New(files, ".")
	if err != nil {
		return nil, fmt.Errorf("migration: source: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("migration: driver: %w", err)
	}
	return migrate.NewWithInstance("iofs", src, "postgres", driver)
}
