// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package store

import (
	"cmp"
	"embed"
	"errors"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	// Register pgx/v5 database driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/samber/oops"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrateIface is the slice of golang-migrate the Migrator drives. The mock
// in migrate_test.go satisfies it so migration handling is testable without
// a database.
type migrateIface interface {
	Up() error
	Down() error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	Close() (source error, database error)
}

// Migrator applies the embedded schema migrations (users and worlds,
// campaigns, entities, bulk update runs) to a PostgreSQL database.
type Migrator struct {
	m migrateIface
}

// NewMigrator opens a migrator for the given database. postgres:// and
// postgresql:// URLs are rewritten to the pgx5:// scheme that golang-migrate
// registers for its pgx/v5 driver.
func NewMigrator(databaseURL string) (*Migrator, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, oops.Code("MIGRATION_SOURCE_FAILED").Wrap(err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, pgx5URL(databaseURL))
	if err != nil {
		_ = source.Close() //nolint:errcheck // init error takes precedence
		return nil, oops.Code("MIGRATION_INIT_FAILED").Wrap(err)
	}
	return &Migrator{m: m}, nil
}

func pgx5URL(databaseURL string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(databaseURL, scheme); ok {
			return "pgx5://" + rest
		}
	}
	return databaseURL
}

// Up applies all pending migrations. Already being at the latest version is
// not an error.
func (m *Migrator) Up() error {
	if err := m.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return oops.Code("MIGRATION_UP_FAILED").Wrap(err)
	}
	return nil
}

// Down rolls the schema back to version 0, dropping every table and all
// data. An already-empty schema is not an error.
func (m *Migrator) Down() error {
	if err := m.m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return oops.Code("MIGRATION_DOWN_FAILED").Wrap(err)
	}
	return nil
}

// Version reports the current schema version and whether it is dirty, that
// is, a migration failed partway and needs manual repair. An untouched
// database reports version 0, clean.
func (m *Migrator) Version() (version uint, dirty bool, err error) {
	version, dirty, err = m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, oops.Code("MIGRATION_VERSION_FAILED").Wrap(err)
	}
	return version, dirty, nil
}

// Force overwrites the recorded version without running any migration. Meant
// for recovering a dirty schema after repairing it by hand; pointing it at
// the wrong version makes later runs skip or re-apply migrations.
func (m *Migrator) Force(version int) error {
	if version < 0 {
		return oops.Code("INVALID_VERSION").Errorf("version must be non-negative, got %d", version)
	}
	if err := m.m.Force(version); err != nil {
		return oops.Code("MIGRATION_FORCE_FAILED").With("version", version).Wrap(err)
	}
	return nil
}

// Close releases the source and database handles.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	if err := errors.Join(srcErr, dbErr); err != nil {
		return oops.Code("MIGRATION_CLOSE_FAILED").Wrap(err)
	}
	return nil
}

// migration is one embedded up-migration, named NNNNNN_name.
type migration struct {
	version uint
	name    string
}

// loadMigrations indexes the embedded up-migrations, sorted by version. The
// embedded FS never changes at runtime, so the index is built once. Files
// that do not follow the NNNNNN_name.up.sql pattern are skipped with a
// warning; the embed test keeps the pattern honest.
var loadMigrations = sync.OnceValues(func() ([]migration, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, oops.Code("MIGRATION_LIST_FAILED").Wrap(err)
	}

	var index []migration
	for _, entry := range entries {
		name, ok := strings.CutSuffix(entry.Name(), ".up.sql")
		if !ok {
			continue
		}
		prefix, _, ok := strings.Cut(name, "_")
		if !ok {
			slog.Warn("skipping migration without a version prefix", "filename", entry.Name())
			continue
		}
		version, err := strconv.ParseUint(prefix, 10, 32)
		if err != nil {
			slog.Warn("skipping migration with unparseable version",
				"filename", entry.Name(), "error", err)
			continue
		}
		index = append(index, migration{version: uint(version), name: name})
	}
	slices.SortFunc(index, func(a, b migration) int {
		return cmp.Compare(a.version, b.version)
	})
	return index, nil
})

// MigrationName returns the NNNNNN_name of the migration at version, or ""
// when no embedded migration carries that version. Unknown versions are a
// normal lookup miss, not an error; the CLI shows them as forced versions.
func MigrationName(version uint) (string, error) {
	index, err := loadMigrations()
	if err != nil {
		return "", err
	}
	for _, mig := range index {
		if mig.version == version {
			return mig.name, nil
		}
	}
	return "", nil
}

// splitVersions partitions the embedded migration versions around the
// current schema version.
func (m *Migrator) splitVersions() (applied, pending []uint, err error) {
	current, _, err := m.Version()
	if err != nil {
		return nil, nil, oops.With("operation", "list migrations").Wrap(err)
	}
	index, err := loadMigrations()
	if err != nil {
		return nil, nil, err
	}
	for _, mig := range index {
		if mig.version <= current {
			applied = append(applied, mig.version)
		} else {
			pending = append(pending, mig.version)
		}
	}
	return applied, pending, nil
}

// AppliedMigrations returns the versions at or below the current schema
// version, ascending.
func (m *Migrator) AppliedMigrations() ([]uint, error) {
	applied, _, err := m.splitVersions()
	return applied, err
}

// PendingMigrations returns the versions Up would apply, ascending.
func (m *Migrator) PendingMigrations() ([]uint, error) {
	_, pending, err := m.splitVersions()
	return pending, err
}
