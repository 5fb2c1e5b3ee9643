package migration

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spediralabs/spedira/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Migrations open their own postgres handle: the shared gorm handle may
// point at another dialect, and advisory locking is postgres-specific.
var Module = fx.Module("migrations",
	fx.Invoke(func(cfg config.Config, log *zap.Logger) error {
		if cfg.Database.Driver != "" && cfg.Database.Driver != "postgres" {
			return errors.New("migrations require a postgres database")
		}

		db, err := sql.Open("pgx", cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		return Apply(ctx, log, db)
	}),
)
