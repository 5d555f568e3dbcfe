// Package database opens the PostgreSQL directory and applies embedded migrations.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	migrations "casbinder/migrations/postgres"
)

// Open connects to url with the pgx driver and verifies the connection.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Status describes the schema after Migrate.
type Status struct {
	Version uint
	Dirty   bool
	// Changed is false when the schema was already current.
	Changed bool
}

// Migrate applies the embedded migrations with golang-migrate on a dedicated
// connection, closed together with the migrate instance. Concurrent callers
// are serialised by the driver's advisory lock.
func Migrate(ctx context.Context, url string, logger *slog.Logger) (Status, error) {
	db, err := Open(ctx, url)
	if err != nil {
		return Status{}, err
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: "schema_migrations"})
	if err != nil {
		_ = db.Close()
		return Status{}, fmt.Errorf("create migrate driver: %w", err)
	}
	source, err := iofs.New(migrations.BinderFS, migrations.BinderDir)
	if err != nil {
		_ = db.Close()
		return Status{}, fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		_ = db.Close()
		return Status{}, fmt.Errorf("create migrate instance: %w", err)
	}
	defer func() {
		_, _ = m.Close()
	}()

	var status Status
	switch err := m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
	case err != nil:
		return Status{}, fmt.Errorf("apply migrations: %w", err)
	default:
		status.Changed = true
	}

	status.Version, status.Dirty, err = m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return Status{}, fmt.Errorf("read schema version: %w", err)
	}
	if status.Dirty {
		logger.WarnContext(ctx, "schema is dirty, a migration failed part way", "version", status.Version)
	}
	return status, nil
}
