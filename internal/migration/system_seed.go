package migration

import (
	"context"
	"database/sql"
	"fmt"
)

type courierSeed struct {
	ID   int64
	Code string
	Name string
}

// courierSeeds is the closed set of carriers the platform negotiates
// with. Tariff rows reference these IDs; removing one is a schema-level
// decision, not runtime data.
var courierSeeds = []courierSeed{
	{ID: 1, Code: "brt", Name: "BRT"},
	{ID: 2, Code: "gls", Name: "GLS Italy"},
	{ID: 3, Code: "sda", Name: "SDA Express Courier"},
	{ID: 4, Code: "poste", Name: "Poste Italiane"},
	{ID: 5, Code: "dhl", Name: "DHL Express"},
	{ID: 6, Code: "ups", Name: "UPS"},
	{ID: 7, Code: "fedex", Name: "FedEx/TNT"},
}

func seedCouriers(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin system seed transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const stmt = `
		INSERT INTO couriers (id, code, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (code) DO UPDATE
		SET name = EXCLUDED.name
	`
	for _, seed := range courierSeeds {
		if _, err := tx.ExecContext(ctx, stmt, seed.ID, seed.Code, seed.Name); err != nil {
			return fmt.Errorf("seed courier %s: %w", seed.Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit system seed transaction: %w", err)
	}
	return nil
}
