package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// MigrationResult is the schema version before and after a Migrate call.
// Version 0 means no migration had been applied.
type MigrationResult struct {
	From uint
	To   uint
}

func (r MigrationResult) Changed() bool { return r.From != r.To }

// Migrate applies the pending {version}_{name}.up.sql files of fsys. The
// database driver holds an advisory lock, so concurrent callers are safe.
func Migrate(ctx context.Context, db *sql.DB, fsys fs.FS) (MigrationResult, error) {
	var res MigrationResult

	src, err := iofs.New(fsys, ".")
	if err != nil {
		return res, fmt.Errorf("Migrate: open source: %w", err)
	}

	// A dedicated connection keeps the migrator from closing the shared pool.
	conn, err := db.Conn(ctx)
	if err != nil {
		src.Close()
		return res, fmt.Errorf("Migrate: acquire connection: %w", err)
	}
	drv, err := postgres.WithConnection(ctx, conn, &postgres.Config{})
	if err != nil {
		conn.Close()
		src.Close()
		return res, fmt.Errorf("Migrate: database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", drv)
	if err != nil {
		drv.Close()
		src.Close()
		return res, fmt.Errorf("Migrate: %w", err)
	}
	defer m.Close()

	stop := context.AfterFunc(ctx, func() {
		select {
		case m.GracefulStop <- true:
		default:
		}
	})
	defer stop()

	if res.From, err = schemaVersion(m); err != nil {
		return res, fmt.Errorf("Migrate: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return res, fmt.Errorf("Migrate: up: %w", err)
	}
	if res.To, err = schemaVersion(m); err != nil {
		return res, fmt.Errorf("Migrate: %w", err)
	}
	return res, nil
}

func schemaVersion(m *migrate.Migrate) (uint, error) {
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read version: %w", err)
	}
	if dirty {
		return v, fmt.Errorf("schema version %d is dirty, fix it by hand and force the version", v)
	}
	return v, nil
}
