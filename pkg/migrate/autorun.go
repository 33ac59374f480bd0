package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/shopdesk/pkg/config"
	"github.com/angelmondragon/shopdesk/pkg/db"
	"github.com/angelmondragon/shopdesk/pkg/logger"
)

// MaybeRun brings the demo schema up to date when auto-migration is enabled.
// Postgres runs the goose migrations in dir; sqlite calls fallback, which
// is expected to run gorm AutoMigrate.
func MaybeRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client, dir string, fallback func(context.Context) error) error {
	if !cfg.DemoAPI.AutoMigrate {
		return nil
	}

	meta := map[string]any{"env": cfg.App.Env, "driver": cfg.DB.Driver, "dir": dir}
	ctx = logg.WithFields(ctx, meta)

	if cfg.DB.IsSQLite() {
		if fallback == nil {
			return nil
		}
		logg.Info(ctx, "running gorm auto-migrate")
		if err := fallback(ctx); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
		return nil
	}

	if err := CheckSchema(dir, SchemaTables...); err != nil {
		return fmt.Errorf("checking migrations: %w", err)
	}
	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	logg.Info(ctx, "running goose migrations")
	if err := Run(ctx, sqlDB, dir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}
	logg.Info(ctx, "goose migrations completed")
	return nil
}
