package migrate

import (
	"context"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// MaybeRunDev creates the storefront tables when running in dev with the
// auto-migrate flag set. Other environments expect the schema to be provisioned.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	driver := "postgres"
	if cfg.FeatureFlags.UseSQLite {
		driver = "sqlite"
	}
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": driver})
	logg.Info(ctx, "schema.auto_migrate")
	if err := AutoMigrate(client.DB()); err != nil {
		return err
	}
	logg.Info(ctx, "schema.auto_migrate.done")
	return nil
}
