// Package migration brings the tariff schema up to the embedded
// migration set. It runs only from the migrator entrypoint, never as a
// side effect of serving.
package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// Apply migrates the schema, seeds the courier reference set and records
// the resulting schema state. The advisory lock serializes migrators
// fleet-wide; a dirty schema stops everything for operator intervention.
func Apply(ctx context.Context, log *zap.Logger, db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}
	log = log.Named("migration")

	lock, err := acquireSchemaLock(ctx, db)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(context.Background()); err != nil {
			log.Warn("schema lock release failed", zap.Error(err))
		}
	}()

	m, err := loadManifest()
	if err != nil {
		return err
	}

	migrator, err := newMigrator(db)
	if err != nil {
		return err
	}

	current, err := cleanVersion(migrator)
	if err != nil {
		return err
	}
	log.Info("applying migrations", zap.Uint("from", current), zap.Uint("to", m.Latest))

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	current, err = cleanVersion(migrator)
	if err != nil {
		return err
	}
	if current != m.Latest {
		return fmt.Errorf("schema version mismatch after migrate: got %d want %d", current, m.Latest)
	}

	if err := seedCouriers(ctx, db); err != nil {
		return err
	}
	if err := markSchemaReady(ctx, db, m); err != nil {
		return err
	}

	log.Info("schema ready", zap.Uint("version", m.Latest), zap.String("checksum", m.Checksum))
	return nil
}

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("open migrations: %w", err)
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("create migration source: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("create migration driver: %w", err)
	}
	return migrate.NewWithInstance("iofs", source, "postgres", driver)
}

// cleanVersion reads the current schema version, refusing a dirty state.
func cleanVersion(migrator *migrate.Migrate) (uint, error) {
	version, dirty, err := migrator.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, nil
		}
		return 0, fmt.Errorf("read migration version: %w", err)
	}
	if dirty {
		return 0, fmt.Errorf("database migrations are dirty at version %d", version)
	}
	return version, nil
}
