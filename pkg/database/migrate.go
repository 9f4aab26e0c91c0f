package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Madhu097/realestate-fraud-detection/pkg/logger"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// DefaultMigrationsDir is where the schema lives relative to the repo root.
const DefaultMigrationsDir = "db/migrations"

// SourceURL turns a directory into a golang-migrate file source URL.
func SourceURL(dir string) string {
	if strings.HasPrefix(dir, "file://") {
		return dir
	}
	if dir == "" {
		dir = DefaultMigrationsDir
	}
	return "file://" + dir
}

// NewMigrator builds a migrator for db using the SQL files in dir.
func NewMigrator(db *sql.DB, dir string) (*migrate.Migrate, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(SourceURL(dir), "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("load migrations from %s: %w", dir, err)
	}
	return m, nil
}

// MigrateUp applies every pending migration. Having nothing to apply is
// not an error.
func MigrateUp(db *sql.DB, dir string) error {
	m, err := NewMigrator(db, dir)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read migration version: %w", err)
	}
	logger.Info("database schema up to date", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}
