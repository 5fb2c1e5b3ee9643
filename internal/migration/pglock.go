package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// All spedira migrators contend on this one key so two deploys never
// interleave DDL.
const schemaLockKey int64 = 7_731_204_556

type schemaLock struct {
	db *sql.DB
}

func acquireSchemaLock(ctx context.Context, db *sql.DB) (*schemaLock, error) {
	var locked bool
	if err := db.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", schemaLockKey).Scan(&locked); err != nil {
		return nil, fmt.Errorf("acquire schema lock: %w", err)
	}
	if !locked {
		return nil, errors.New("another migrator holds the schema lock")
	}
	return &schemaLock{db: db}, nil
}

func (l *schemaLock) Release(ctx context.Context) error {
	var released bool
	if err := l.db.QueryRowContext(ctx, "SELECT pg_advisory_unlock($1)", schemaLockKey).Scan(&released); err != nil {
		return fmt.Errorf("release schema lock: %w", err)
	}
	if !released {
		return errors.New("schema lock was not held by this session")
	}
	return nil
}
