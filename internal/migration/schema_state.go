package migration

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"
)

// markSchemaReady upserts the single system_bootstrap_state row with the
// version and checksum of the migration set that produced the schema.
func markSchemaReady(ctx context.Context, db *sql.DB, m manifest) error {
	now := time.Now().UTC()
	_, err := db.ExecContext(ctx, `
		INSERT INTO system_bootstrap_state (id, status, schema_version, checksum, activated_at, created_at)
		VALUES (TRUE, 'active', $1, $2, $3, $3)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status,
		    schema_version = EXCLUDED.schema_version,
		    checksum = EXCLUDED.checksum,
		    activated_at = EXCLUDED.activated_at
	`, strconv.FormatUint(uint64(m.Latest), 10), m.Checksum, now)
	if err != nil {
		return fmt.Errorf("mark schema ready: %w", err)
	}
	return nil
}
